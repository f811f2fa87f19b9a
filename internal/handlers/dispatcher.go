package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/pix_backend/internal/dto"
	"github.com/SscSPs/pix_backend/internal/metrics"
	"github.com/SscSPs/pix_backend/internal/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/SscSPs/pix_backend/internal/handlers"

// OperationFunc handles one decoded request and always produces a response.
type OperationFunc func(ctx context.Context, req *dto.Request) dto.Response

// Dispatcher routes request lines to operation handlers by their operacao code.
type Dispatcher struct {
	operations map[string]OperationFunc
	metrics    metrics.MetricsCollector
	tracer     trace.Tracer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMetrics reports every dispatched operation to collector.
func WithMetrics(collector metrics.MetricsCollector) DispatcherOption {
	return func(d *Dispatcher) {
		if collector != nil {
			d.metrics = collector
		}
	}
}

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) DispatcherOption {
	return func(d *Dispatcher) {
		if tp != nil {
			d.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewDispatcher creates a dispatcher with no operations registered.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		operations: make(map[string]OperationFunc),
		metrics:    metrics.Noop{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register binds fn to operacao, replacing any previous handler.
func (d *Dispatcher) Register(operacao string, fn OperationFunc) {
	d.operations[operacao] = fn
}

// Metrics returns the collector the dispatcher reports to.
func (d *Dispatcher) Metrics() metrics.MetricsCollector {
	return d.metrics
}

// Dispatch handles one request line. It never panics and never returns an error: every
// failure, including a handler panic, becomes a failure response.
func (d *Dispatcher) Dispatch(ctx context.Context, line []byte) (resp dto.Response) {
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("request_id", uuid.NewString()))
	ctx = middleware.WithLogger(ctx, logger)

	req, err := dto.ParseRequest(line)
	if err != nil {
		logger.Warn("Discarding unparsable request", slog.String("error", err.Error()))
		d.metrics.RecordOperation(dto.ErrorOperation, false, 0)
		return dto.Failure(dto.ErrorOperation, "Erro no processamento: requisição não é um JSON válido")
	}

	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "pix."+operationLabel(req.Operacao),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("pix.operacao", req.Operacao)))
	logger = logger.With(slog.String("operacao", req.Operacao))
	ctx = middleware.WithLogger(ctx, logger)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Operation panicked", slog.Any("panic", r))
			span.RecordError(fmt.Errorf("panic: %v", r))
			resp = dto.Failure(req.Operacao, msgInternal)
		}
		span.SetAttributes(attribute.Bool("pix.status", resp.Status))
		if !resp.Status {
			span.SetStatus(codes.Error, resp.Info)
		}
		span.End()
		d.metrics.RecordOperation(operationLabel(req.Operacao), resp.Status, time.Since(start))
		logger.Debug("Request handled",
			slog.Bool("status", resp.Status),
			slog.Duration("latency", time.Since(start)))
	}()

	fn, ok := d.operations[req.Operacao]
	if !ok {
		return dto.Failure(req.Operacao, msgUnknownOperation)
	}
	return fn(ctx, req)
}

// operationLabel bounds metric and span name cardinality to the registered codes.
func operationLabel(operacao string) string {
	if _, ok := knownOperations[operacao]; ok {
		return operacao
	}
	return "desconhecida"
}
