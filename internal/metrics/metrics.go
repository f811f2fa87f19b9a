// Package metrics collects protocol and ledger metrics and exposes them to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// MetricsCollector is what the server and the dispatcher report to.
type MetricsCollector interface {
	RecordOperation(operacao string, success bool, duration time.Duration)
	RecordTransfer(amount decimal.Decimal)
	RecordDeposit(amount decimal.Decimal)
	ConnectionOpened()
	ConnectionClosed()
	RecordRejectedConnection(reason string)
}

// Collector is the Prometheus implementation of MetricsCollector.
type Collector struct {
	operations          *prometheus.CounterVec
	operationLatency    *prometheus.HistogramVec
	activeConnections   prometheus.Gauge
	rejectedConnections *prometheus.CounterVec
	transfers           prometheus.Counter
	transferVolume      prometheus.Counter
	deposits            prometheus.Counter
	depositVolume       prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pix_operations_total",
			Help: "Protocol requests handled, by operation and outcome",
		}, []string{"operacao", "status"}),
		operationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pix_operation_duration_seconds",
			Help:    "Time spent handling one protocol request",
			Buckets: prometheus.DefBuckets,
		}, []string{"operacao"}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pix_active_connections",
			Help: "Client connections currently open",
		}),
		rejectedConnections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pix_rejected_connections_total",
			Help: "Connections refused at accept time, by reason",
		}, []string{"reason"}),
		transfers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pix_transfers_total",
			Help: "Transfers committed",
		}),
		transferVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pix_transfer_volume_total",
			Help: "Sum of committed transfer amounts",
		}),
		deposits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pix_deposits_total",
			Help: "Deposits applied",
		}),
		depositVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pix_deposit_volume_total",
			Help: "Sum of deposited amounts",
		}),
	}

	reg.MustRegister(
		c.operations,
		c.operationLatency,
		c.activeConnections,
		c.rejectedConnections,
		c.transfers,
		c.transferVolume,
		c.deposits,
		c.depositVolume,
	)
	return c
}

func (c *Collector) RecordOperation(operacao string, success bool, duration time.Duration) {
	c.operations.WithLabelValues(operacao, strconv.FormatBool(success)).Inc()
	c.operationLatency.WithLabelValues(operacao).Observe(duration.Seconds())
}

func (c *Collector) RecordTransfer(amount decimal.Decimal) {
	c.transfers.Inc()
	c.transferVolume.Add(amount.InexactFloat64())
}

func (c *Collector) RecordDeposit(amount decimal.Decimal) {
	c.deposits.Inc()
	c.depositVolume.Add(amount.InexactFloat64())
}

func (c *Collector) ConnectionOpened() { c.activeConnections.Inc() }

func (c *Collector) ConnectionClosed() { c.activeConnections.Dec() }

func (c *Collector) RecordRejectedConnection(reason string) {
	c.rejectedConnections.WithLabelValues(reason).Inc()
}

// Noop discards everything. It is the default when no collector is configured.
type Noop struct{}

var _ MetricsCollector = Noop{}

func (Noop) RecordOperation(string, bool, time.Duration) {}
func (Noop) RecordTransfer(decimal.Decimal)               {}
func (Noop) RecordDeposit(decimal.Decimal)                {}
func (Noop) ConnectionOpened()                            {}
func (Noop) ConnectionClosed()                            {}
func (Noop) RecordRejectedConnection(string)              {}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
