package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/pix_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// readinessTimeout bounds the store ping done by /readyz.
const readinessTimeout = 2 * time.Second

// Pinger is the part of the store the readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsFunc reports the number of open protocol connections.
type StatsFunc func() int64

type healthHandler struct {
	store Pinger
	stats StatsFunc
}

func (h *healthHandler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *healthHandler) readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Readiness check failed", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *healthHandler) getStats(c *gin.Context) {
	var active int64
	if h.stats != nil {
		active = h.stats()
	}
	c.JSON(http.StatusOK, gin.H{"active_connections": active})
}
