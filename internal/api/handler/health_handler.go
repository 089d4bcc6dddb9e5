package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthPingTimeout = 2 * time.Second

// Pinger store connectivity check, satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CachePinger optional cache connectivity check, satisfied by *redis.Client
type CachePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler liveness endpoint
type HealthHandler struct {
	db    Pinger
	cache CachePinger
}

// NewHealthHandler creates a HealthHandler. Either dependency may be nil.
func NewHealthHandler(db Pinger, cache CachePinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health reports 503 only when the database is unreachable; a cache outage
// shows up as "degraded" since the API keeps serving without it.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	body := gin.H{"status": "ok"}
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		body["database"] = "up"
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			_ = c.Error(err)
			body["status"] = "degraded"
			body["cache"] = "down"
		} else {
			body["cache"] = "up"
		}
	}
	c.JSON(http.StatusOK, body)
}
