package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/pix_backend/internal/core/domain"
	"github.com/SscSPs/pix_backend/internal/middleware"
	"github.com/SscSPs/pix_backend/internal/utils"
)

// Clock returns the current time. Tests inject a fixed or advancing clock.
type Clock func() time.Time

// serviceOptions carries the knobs shared by the service constructors.
type serviceOptions struct {
	clock      Clock
	sessionTTL time.Duration
	secretMode string
}

// ServiceOption is a functional option for configuring the services
type ServiceOption func(*serviceOptions)

// WithClock replaces time.Now.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSessionTTL sets the session window. Non-positive values keep the default.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		if ttl > 0 {
			o.sessionTTL = ttl
		}
	}
}

// WithSecretMode selects how new secrets are stored (utils.SecretModePlain or utils.SecretModeBcrypt).
func WithSecretMode(mode string) ServiceOption {
	return func(o *serviceOptions) {
		o.secretMode = mode
	}
}

func buildOptions(opts []ServiceOption) serviceOptions {
	o := serviceOptions{
		clock:      time.Now,
		sessionTTL: domain.DefaultSessionTTL,
		secretMode: utils.SecretModePlain,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// BaseService provides common functionality for all services
type BaseService struct {
	clock Clock
}

// Now returns the current time in UTC from the service clock.
func (s *BaseService) Now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.ErrorContext(ctx, msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).InfoContext(ctx, msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).DebugContext(ctx, msg, keyvals...)
}
