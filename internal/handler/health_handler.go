package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/gazemetrics/gazemetrics-api/internal/cache"
	"github.com/gazemetrics/gazemetrics-api/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db              *sqlx.DB
	redis           *cache.RedisClient
	analysisVersion string
	backend         string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB, redis *cache.RedisClient, analysisVersion, backend string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, analysisVersion: analysisVersion, backend: backend}
}

// GetHealth responds with service, database, and cache status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	dbStatus := "connected"
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		dbStatus = "disconnected"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "connected"
		if _, err := h.redis.Exists(c.Request.Context(), "health"); err != nil {
			redisStatus = "disconnected"
		}
	}

	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":          "healthy",
		"analysisVersion": h.analysisVersion,
		"backend":         h.backend,
		"uptime":          int(time.Since(startTime).Seconds()),
		"database":        gin.H{"status": dbStatus},
		"redis":           gin.H{"status": redisStatus},
	})
}
