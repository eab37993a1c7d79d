package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gazemetrics/gazemetrics-api/internal/analysis"
	"github.com/gazemetrics/gazemetrics-api/internal/cache"
	"github.com/gazemetrics/gazemetrics-api/internal/config"
	"github.com/gazemetrics/gazemetrics-api/internal/database"
	"github.com/gazemetrics/gazemetrics-api/internal/handler"
	"github.com/gazemetrics/gazemetrics-api/internal/middleware"
	"github.com/gazemetrics/gazemetrics-api/internal/repository"
	"github.com/gazemetrics/gazemetrics-api/internal/service"
	"github.com/gazemetrics/gazemetrics-api/internal/sse"
	"github.com/gazemetrics/gazemetrics-api/internal/worker"
	"github.com/gazemetrics/gazemetrics-api/pkg/assemblyai"
	"github.com/gazemetrics/gazemetrics-api/pkg/openai"
)

// main is the application entrypoint for the GazeMetrics analysis API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("version", cfg.Analysis.Version).Msg("starting gazemetrics api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis when the fingerprint cache needs it
	var redisClient *cache.RedisClient
	if cfg.Analysis.CacheBackend == "redis" {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected successfully")
	}

	// 3c. Initialize fingerprint cache
	var fpCache cache.FingerprintCache
	if redisClient != nil {
		fpCache = cache.NewRedisFingerprintCache(redisClient, cfg.Analysis.CacheTTL)
		log.Info().Dur("ttl", cfg.Analysis.CacheTTL).Msg("Using Redis fingerprint cache")
	} else {
		fpCache = cache.NewMemoryFingerprintCache()
		log.Info().Msg("Using in-memory fingerprint cache")
	}

	// 4. Initialize S3 blob store
	s3Svc, err := service.NewS3Service(&cfg.S3)
	if err != nil {
		log.Error().Err(err).Msg("S3 service initialization failed")
		os.Exit(1)
	}

	// 5. Initialize repositories
	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	// 6. Initialize the analysis engine. With AWS credentials configured the
	// visual gates run real Rekognition inference; otherwise the
	// deterministic simulation applies.
	var detector analysis.Detector
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		rekDetector, err := service.NewRekognitionDetector(cfg, s3Svc)
		if err != nil {
			log.Warn().Err(err).Msg("Rekognition detector initialization failed - using simulated detection")
		} else {
			detector = rekDetector
			log.Info().Str("region", cfg.AWS.RekognitionRegion).Msg("Rekognition detector enabled")
		}
	}
	engine := analysis.NewEngine(cfg.Analysis.Version, detector)

	// 6a. SSE hub for progress events
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	// 6b. Initialize services
	authSvc := service.NewAuthService(userRepo)
	videoSvc := service.NewVideoService(videoRepo, s3Svc)
	analysisSvc := service.NewAnalysisService(engine, fpCache, analysisRepo, videoRepo, notifier)

	// 6c. Register the configured analysis backend
	switch cfg.Analysis.Backend {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY not set - falling back to simulated backend")
			break
		}
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		analysisSvc.SetBackend(service.NewOpenAIBackend(client, engine))
	case "assemblyai":
		if cfg.AssemblyAI.APIKey == "" {
			log.Warn().Msg("ASSEMBLYAI_API_KEY not set - falling back to simulated backend")
			break
		}
		client := assemblyai.NewClient(cfg.AssemblyAI.APIKey)
		analysisSvc.SetBackend(service.NewAssemblyAIBackend(client, engine, s3Svc))
	}

	// 7. Initialize handlers
	rateLimiter := middleware.NewInvalidAuthRateLimiter()
	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db, redisClient, cfg.Analysis.Version, cfg.Analysis.Backend),
		Auth:     handler.NewAuthHandler(authSvc, rateLimiter),
		Video:    handler.NewVideoHandler(videoSvc),
		Analysis: handler.NewAnalysisHandler(analysisSvc, videoSvc),
		SSE:      handler.NewSSEHandler(hub),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewAnalysisWorker(videoRepo, analysisSvc, cfg.Worker.AnalysisInterval).Start(ctx)
	go worker.NewCleanupWorker(videoRepo, cfg.Worker.CleanupInterval, cfg.Worker.ProcessingMaxAge).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Video    *handler.VideoHandler
	Analysis *handler.AnalysisHandler
	SSE      *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Auth routes (public)
	auth := router.Group("/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}

	// SSE stream (token passed via query param)
	router.GET("/v1/events", handlers.SSE.Stream)

	// Protected routes
	v1 := router.Group("/v1")
	v1.Use(jwtMiddleware.Handle())
	{
		v1.GET("/auth/me", handlers.Auth.Me)

		// Video upload and lifecycle
		v1.POST("/videos", handlers.Video.Upload)
		v1.GET("/videos", handlers.Video.List)
		v1.GET("/videos/:id", handlers.Video.Get)
		v1.POST("/videos/:id/analyze", handlers.Analysis.AnalyzeVideo)

		// Analysis
		v1.POST("/analyses", handlers.Analysis.Analyze)
		v1.GET("/analyses", handlers.Analysis.List)
		v1.GET("/analyses/stats", handlers.Analysis.Stats)
		v1.GET("/analyses/:id", handlers.Analysis.Get)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
