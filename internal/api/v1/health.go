package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quizfunnel/leadsync/internal/logger"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger *logger.Logger
}

// NewHealthHandler builds the health handler. db may be nil, then only liveness is reported.
func NewHealthHandler(db Pinger, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger,
	}
}

// @Summary Health check
// @Description Reports liveness and whether the lead store is reachable
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warnw("health check failed to reach postgres", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "postgres": "ok"})
}
