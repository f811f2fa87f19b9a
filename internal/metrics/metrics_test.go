package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/pix_backend/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Operations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordOperation("usuario_login", true, 5*time.Millisecond)
	c.RecordOperation("usuario_login", true, 5*time.Millisecond)
	c.RecordOperation("usuario_login", false, time.Millisecond)

	expected := `
# HELP pix_operations_total Protocol requests handled, by operation and outcome
# TYPE pix_operations_total counter
pix_operations_total{operacao="usuario_login",status="false"} 1
pix_operations_total{operacao="usuario_login",status="true"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "pix_operations_total"))
}

func TestCollector_LedgerAndConnections(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.RecordTransfer(decimal.RequireFromString("300.00"))
	c.RecordTransfer(decimal.RequireFromString("0.50"))
	c.RecordDeposit(decimal.RequireFromString("1500.00"))
	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.RecordRejectedConnection("rate_limited")

	count, err := testutil.GatherAndCount(reg, "pix_transfers_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP pix_active_connections Client connections currently open
# TYPE pix_active_connections gauge
pix_active_connections 1
# HELP pix_transfer_volume_total Sum of committed transfer amounts
# TYPE pix_transfer_volume_total counter
pix_transfer_volume_total 300.5
# HELP pix_deposit_volume_total Sum of deposited amounts
# TYPE pix_deposit_volume_total counter
pix_deposit_volume_total 1500
# HELP pix_rejected_connections_total Connections refused at accept time, by reason
# TYPE pix_rejected_connections_total counter
pix_rejected_connections_total{reason="rate_limited"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"pix_active_connections", "pix_transfer_volume_total", "pix_deposit_volume_total", "pix_rejected_connections_total"))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)
	c.RecordDeposit(decimal.RequireFromString("10"))

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "pix_deposits_total 1")
}
