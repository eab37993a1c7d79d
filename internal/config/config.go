package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	DB         DatabaseConfig
	Redis      RedisConfig
	S3         S3Config
	AWS        AWSConfig
	OpenAI     OpenAIConfig
	AssemblyAI AssemblyAIConfig
	Analysis   AnalysisConfig
	Worker     WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// S3Config contains the blob store configuration for uploaded videos.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// AWSConfig contains AWS Rekognition configuration for the optional
// real-inference detection backend.
type AWSConfig struct {
	AccessKeyID       string
	SecretAccessKey   string
	RekognitionRegion string
}

// OpenAIConfig contains credentials for the OpenAI analysis backend.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// AssemblyAIConfig contains credentials for the AssemblyAI transcription backend.
type AssemblyAIConfig struct {
	APIKey string
}

// AnalysisConfig controls the analysis pipeline.
//
// Backend selects the analysis collaborator: "simulated" (default,
// deterministic), "openai", or "assemblyai". The deterministic simulator is
// always the fallback when a remote backend fails.
//
// CacheBackend selects the fingerprint cache: "memory" (process-lifetime,
// unbounded) or "redis".
type AnalysisConfig struct {
	Version      string
	Backend      string
	CacheBackend string
	CacheTTL     time.Duration
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	AnalysisInterval time.Duration
	CleanupInterval  time.Duration
	ProcessingMaxAge time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// S3 blob store for uploaded videos and thumbnails
	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "us-east-1"),
		Bucket:          getEnv("S3_BUCKET", "gazemetrics-videos"),
		Endpoint:        getEnv("S3_ENDPOINT", "https://s3.us-east-1.amazonaws.com"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	// AWS Rekognition (optional real-inference detector)
	cfg.AWS = AWSConfig{
		AccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		RekognitionRegion: getEnv("AWS_REKOGNITION_REGION", "us-east-1"),
	}

	// OpenAI analysis backend
	cfg.OpenAI = OpenAIConfig{
		APIKey: getEnv("OPENAI_API_KEY", ""),
		Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}

	// AssemblyAI transcription backend
	cfg.AssemblyAI = AssemblyAIConfig{
		APIKey: getEnv("ASSEMBLYAI_API_KEY", ""),
	}

	// Analysis pipeline
	cfg.Analysis = AnalysisConfig{
		Version:      getEnv("ANALYSIS_VERSION", "1.1.0"),
		Backend:      getEnv("ANALYSIS_BACKEND", "simulated"),
		CacheBackend: getEnv("ANALYSIS_CACHE_BACKEND", "memory"),
	}

	// Workers (durations)
	var err error
	if cfg.Analysis.CacheTTL, err = parseDurationEnv("ANALYSIS_CACHE_TTL", "0s"); err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_CACHE_TTL: %w", err)
	}
	if cfg.Worker.AnalysisInterval, err = parseDurationEnv("ANALYSIS_INTERVAL", "5s"); err != nil {
		return nil, fmt.Errorf("invalid ANALYSIS_INTERVAL: %w", err)
	}
	if cfg.Worker.CleanupInterval, err = parseDurationEnv("CLEANUP_INTERVAL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_INTERVAL: %w", err)
	}
	if cfg.Worker.ProcessingMaxAge, err = parseDurationEnv("PROCESSING_MAX_AGE", "15m"); err != nil {
		return nil, fmt.Errorf("invalid PROCESSING_MAX_AGE: %w", err)
	}

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	switch cfg.Analysis.Backend {
	case "simulated", "openai", "assemblyai":
	default:
		return nil, fmt.Errorf("unknown ANALYSIS_BACKEND %q", cfg.Analysis.Backend)
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
