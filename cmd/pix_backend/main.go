package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	portsrepo "github.com/SscSPs/pix_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/pix_backend/internal/core/ports/services"
	"github.com/SscSPs/pix_backend/internal/core/services"
	"github.com/SscSPs/pix_backend/internal/handlers"
	"github.com/SscSPs/pix_backend/internal/metrics"
	"github.com/SscSPs/pix_backend/internal/middleware"
	"github.com/SscSPs/pix_backend/internal/platform/config"
	"github.com/SscSPs/pix_backend/internal/platform/otel"
	"github.com/SscSPs/pix_backend/internal/repositories/database/pgsql"
	"github.com/SscSPs/pix_backend/internal/repositories/database/sqlite"
	"github.com/SscSPs/pix_backend/internal/repositories/memory"
	"github.com/SscSPs/pix_backend/internal/repositories/session"
	"github.com/SscSPs/pix_backend/internal/server"
	"github.com/SscSPs/pix_backend/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	serviceName     = "pix_backend"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = middleware.WithLogger(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to flush traces", slog.String("error", err.Error()))
		}
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Error closing store", slog.String("error", err.Error()))
		}
	}()

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	container := services.NewServiceContainer(
		portsrepo.NewRepositoryProvider(store, sessions),
		services.WithSessionTTL(cfg.SessionTTL),
		services.WithSecretMode(cfg.PasswordHashing),
	)

	dispatcher := handlers.NewDispatcher(handlers.WithMetrics(collector))
	handlers.RegisterOperations(dispatcher, container)

	acceptLimiter, err := middleware.NewMemoryLimiter(cfg.ConnRateLimit)
	if err != nil {
		return err
	}
	srv := server.New(server.Config{
		Addr:           cfg.ListenAddr,
		MaxLineBytes:   cfg.MaxLineBytes,
		MaxConnections: cfg.MaxConnections,
		IdleTimeout:    cfg.IdleTimeout,
		RequestRate:    cfg.RequestRate,
		RequestBurst:   cfg.RequestBurst,
	}, dispatcher,
		server.WithLogger(logger),
		server.WithMetrics(collector),
		server.WithAcceptLimiter(acceptLimiter),
	)

	adminServer := newAdminServer(cfg, logger, store, srv, registry)
	if adminServer != nil {
		go func() {
			logger.Info("Admin server starting", slog.String("addr", cfg.AdminAddr))
			if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Admin server failed", slog.String("error", err.Error()))
			}
		}()
	}

	go sweepSessions(ctx, container.Session, cfg.SessionSweepInterval, logger)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe(ctx) }()

	select {
	case err := <-serveErr:
		if !errors.Is(err, server.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if adminServer != nil {
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Admin server shutdown failed", slog.String("error", err.Error()))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Protocol server did not drain in time", slog.String("error", err.Error()))
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.LedgerStore, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Info("Using in-memory store")
		return memory.NewStore(), nil
	case config.StorePostgres:
		logger.Info("Running database migrations...")
		applied, err := pgsql.RunMigrations(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if applied {
			logger.Info("Database migrations applied successfully.")
		} else {
			logger.Info("No new migrations to apply.")
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.WithMaxConns(int32(cfg.PGMaxConns)))
		if err != nil {
			return nil, err
		}
		return pgsql.NewStore(pool), nil
	default:
		logger.Info("Using SQLite store", slog.String("path", cfg.SQLitePath))
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func openSessions(ctx context.Context, cfg *config.Config) (portsrepo.SessionRepository, func(), error) {
	if cfg.SessionBackend != config.SessionRedis {
		return session.NewMemoryRepository(), func() {}, nil
	}
	client, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisRepository(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
}

func newAdminServer(cfg *config.Config, logger *slog.Logger, store handlers.Pinger, srv *server.Server, registry *prometheus.Registry) *http.Server {
	if cfg.AdminAddr == "" {
		return nil
	}
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter, err := middleware.NewMemoryLimiter("60-M")
	if err != nil {
		logger.Error("Failed to create admin rate limiter", slog.String("error", err.Error()))
	}

	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
	}
	handlers.RegisterRoutes(r, handlers.AdminDeps{
		Logger:         logger,
		Store:          store,
		Stats:          srv.ActiveConnections,
		Metrics:        metrics.Handler(registry),
		AllowedOrigins: cfg.AdminAllowedOrigins,
		Limiter:        limiter,
	})

	return &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// sweepSessions evicts expired sessions until ctx is cancelled.
func sweepSessions(ctx context.Context, sessions portssvc.SessionSvcFacade, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.Sweep(ctx)
			if err != nil {
				logger.Error("Session sweep failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				logger.Info("Expired sessions removed", slog.Int64("count", removed))
			}
		}
	}
}
