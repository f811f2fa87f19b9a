package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
	"github.com/SscSPs/pix_backend/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// RegisterOperations wires every protocol operation into d.
func RegisterOperations(d *Dispatcher, services *portssvc.ServiceContainer) {
	registerUserOperations(d, services)
	registerTransactionOperations(d, services)
}

// AdminDeps holds what the admin HTTP surface reads from.
type AdminDeps struct {
	Logger         *slog.Logger
	Store          Pinger
	Stats          StatsFunc
	Metrics        http.Handler
	AllowedOrigins []string
	Limiter        *limiter.Limiter // nil disables rate limiting
}

// RegisterRoutes sets up the admin routes on r.
func RegisterRoutes(r *gin.Engine, deps AdminDeps) {
	r.Use(
		middleware.StructuredLoggingMiddleware(deps.Logger),
		gin.Recovery(),
		cors.New(corsConfig(deps.AllowedOrigins)),
		middleware.RateLimit(deps.Limiter),
	)

	h := &healthHandler{store: deps.Store, stats: deps.Stats}
	r.GET("/healthz", h.healthz)
	r.GET("/readyz", h.readyz)
	r.GET("/stats", h.getStats)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
