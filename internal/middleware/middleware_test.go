package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/pix_backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Nome string `json:"nome" validate:"required,min=6"`
	CPF  string `json:"cpf" validate:"required,cpf"`
}

func TestValidateRequest(t *testing.T) {
	assert.Empty(t, middleware.ValidateRequest(sample{Nome: "Maria Silva", CPF: "11111111111"}))

	errs := middleware.ValidateRequest(sample{Nome: "Ana", CPF: "123"})
	require.Len(t, errs, 2)
	assert.Equal(t, "nome", errs[0].Field)
	assert.Equal(t, "min", errs[0].Tag)
	assert.Equal(t, "cpf", errs[1].Field)
	assert.Equal(t, "cpf", errs[1].Tag)

	errs = middleware.ValidateRequest(sample{CPF: "1111111111a"})
	assert.True(t, middleware.HasTag(errs, "required"))
	assert.True(t, middleware.HasTag(errs, "cpf"))

	for _, cpf := range []string{"-1234567890", "+1234567890", "123456789.0", "1234567890e", "１2345678901"} {
		errs = middleware.ValidateRequest(sample{Nome: "Maria Silva", CPF: cpf})
		require.Len(t, errs, 1, cpf)
		assert.Equal(t, "cpf", errs[0].Tag, cpf)
	}
}

func TestLoggerContext(t *testing.T) {
	assert.Equal(t, slog.Default(), middleware.GetLoggerFromCtx(context.Background()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := middleware.WithLogger(context.Background(), logger)
	assert.Same(t, logger, middleware.GetLoggerFromCtx(ctx))
}

func TestCPFContext(t *testing.T) {
	_, ok := middleware.GetCPFFromCtx(context.Background())
	assert.False(t, ok)

	cpf, ok := middleware.GetCPFFromCtx(middleware.WithCPF(context.Background(), "11111111111"))
	assert.True(t, ok)
	assert.Equal(t, "11111111111", cpf)
}

func TestAllow(t *testing.T) {
	assert.True(t, middleware.Allow(context.Background(), nil, "1.2.3.4"))

	limiter, err := middleware.NewMemoryLimiter("2-M")
	require.NoError(t, err)
	assert.True(t, middleware.Allow(context.Background(), limiter, "1.2.3.4"))
	assert.True(t, middleware.Allow(context.Background(), limiter, "1.2.3.4"))
	assert.False(t, middleware.Allow(context.Background(), limiter, "1.2.3.4"))
	assert.True(t, middleware.Allow(context.Background(), limiter, "5.6.7.8"))

	_, err = middleware.NewMemoryLimiter("lots")
	assert.Error(t, err)

	none, err := middleware.NewMemoryLimiter("")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRateLimitAndLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, err := middleware.NewMemoryLimiter("1-M")
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(slog.Default()), middleware.RateLimit(limiter))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
