package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SscSPs/pix_backend/internal/handlers"
	"github.com/SscSPs/pix_backend/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

func newAdminRouter(store handlers.Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	collector.ConnectionOpened()

	r := gin.New()
	handlers.RegisterRoutes(r, handlers.AdminDeps{
		Logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Store:   store,
		Stats:   func() int64 { return 3 },
		Metrics: metrics.Handler(reg),
	})
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Origin", "https://dashboard.example")
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoutes(t *testing.T) {
	r := newAdminRouter(fakePinger{})

	w := get(r, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = get(r, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 3, stats["active_connections"])

	w = get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pix_active_connections 1")
}

func TestReadyzReportsStoreFailure(t *testing.T) {
	r := newAdminRouter(fakePinger{err: errors.New("connection refused")})

	w := get(r, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}
