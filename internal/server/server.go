// Package server accepts protocol connections and feeds their lines to a dispatcher.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/pix_backend/internal/dto"
	"github.com/SscSPs/pix_backend/internal/metrics"
	"github.com/SscSPs/pix_backend/internal/middleware"
	"github.com/ulule/limiter/v3"
	"golang.org/x/time/rate"
)

// DefaultMaxLineBytes caps a request line when no limit is configured.
const DefaultMaxLineBytes = 64 * 1024

// ErrServerClosed is returned by Serve and ListenAndServe after Shutdown.
var ErrServerClosed = errors.New("server: closed")

// Client-facing texts for connections refused at accept time and for over-long lines.
const (
	msgTooManyConnections = "Muitas conexões, tente novamente mais tarde"
	msgServerFull         = "Servidor lotado, tente novamente mais tarde"
	msgLineTooLong        = "Erro no processamento: requisição excede o tamanho máximo"
)

// Dispatcher turns one request line into one response.
type Dispatcher interface {
	Dispatch(ctx context.Context, line []byte) dto.Response
}

// Config holds the server knobs. Zero values disable the corresponding limit.
type Config struct {
	Addr           string
	MaxLineBytes   int
	MaxConnections int
	IdleTimeout    time.Duration
	RequestRate    float64
	RequestBurst   int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the base logger. Connections derive theirs from it.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics reports connection counts and rejections to collector.
func WithMetrics(collector metrics.MetricsCollector) Option {
	return func(s *Server) {
		if collector != nil {
			s.metrics = collector
		}
	}
}

// WithAcceptLimiter limits accepted connections per remote IP.
func WithAcceptLimiter(l *limiter.Limiter) Option {
	return func(s *Server) {
		s.acceptLimiter = l
	}
}

// Server runs one goroutine per accepted connection.
type Server struct {
	cfg           Config
	dispatcher    Dispatcher
	logger        *slog.Logger
	metrics       metrics.MetricsCollector
	acceptLimiter *limiter.Limiter
	slots         chan struct{}

	active atomic.Int64
	wg     sync.WaitGroup

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	conns     map[*connection]struct{}
	closed    bool
}

// New creates a Server that answers requests with dispatcher.
func New(cfg Config, dispatcher Dispatcher, opts ...Option) *Server {
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		metrics:    metrics.Noop{},
		listeners:  make(map[net.Listener]struct{}),
		conns:      make(map[*connection]struct{}),
	}
	if cfg.MaxConnections > 0 {
		s.slots = make(chan struct{}, cfg.MaxConnections)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListenAndServe listens on the configured address and serves until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until Shutdown is called or ctx is cancelled. It always
// returns a non-nil error; after Shutdown that error is ErrServerClosed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if !s.trackListener(ln) {
		ln.Close()
		return ErrServerClosed
	}
	defer s.untrackListener(ln)

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.logger.Info("Protocol server listening", slog.String("addr", ln.Addr().String()))

	var tempDelay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() || ctx.Err() != nil {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				tempDelay = nextDelay(tempDelay)
				s.logger.Warn("Accept failed, retrying", slog.String("error", err.Error()), slog.Duration("delay", tempDelay))
				time.Sleep(tempDelay)
				continue
			}
			return err
		}
		tempDelay = 0
		// Cancelling ctx stops accepting; open connections drain through Shutdown.
		s.accept(context.WithoutCancel(ctx), conn)
	}
}

func nextDelay(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}

// accept admits or refuses conn. Refused connections get one failure line before closing.
func (s *Server) accept(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	logger := s.logger.With(slog.String("remote_addr", remote))

	if !middleware.Allow(middleware.WithLogger(ctx, logger), s.acceptLimiter, remoteIP(conn)) {
		s.metrics.RecordRejectedConnection("rate_limited")
		refuse(conn, msgTooManyConnections)
		return
	}
	if s.slots != nil {
		select {
		case s.slots <- struct{}{}:
		default:
			logger.Warn("Connection refused, server at capacity", slog.Int("max_connections", s.cfg.MaxConnections))
			s.metrics.RecordRejectedConnection("capacity")
			refuse(conn, msgServerFull)
			return
		}
	}

	c := newConnection(s, conn)
	if !s.trackConn(c) {
		s.releaseSlot()
		conn.Close()
		return
	}

	s.active.Add(1)
	s.metrics.ConnectionOpened()
	s.wg.Add(1)
	go func() {
		defer func() {
			s.releaseSlot()
			s.untrackConn(c)
			s.active.Add(-1)
			s.metrics.ConnectionClosed()
			s.wg.Done()
		}()
		c.serve(ctx)
	}()
}

func (s *Server) releaseSlot() {
	if s.slots != nil {
		<-s.slots
	}
}

func remoteIP(conn net.Conn) string {
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP.String()
	}
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

func refuse(conn net.Conn, info string) {
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = writeResponse(conn, dto.Failure(dto.ErrorOperation, info))
	conn.Close()
}

// ActiveConnections reports how many connections are being served.
func (s *Server) ActiveConnections() int64 {
	return s.active.Load()
}

// Shutdown stops accepting, lets every connection finish its in-flight request and then
// closes it. If ctx ends first the remaining connections are closed immediately and
// ctx's error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for ln := range s.listeners {
		ln.Close()
	}
	for c := range s.conns {
		c.stopReading()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Protocol server stopped")
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for c := range s.conns {
			c.close()
		}
		s.mu.Unlock()
		<-done
		return ctx.Err()
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) trackListener(ln net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.listeners[ln] = struct{}{}
	return true
}

func (s *Server) untrackListener(ln net.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, ln)
}

func (s *Server) trackConn(c *connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrackConn(c *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

// newRequestLimiter returns nil when throttling is disabled.
func (s *Server) newRequestLimiter() *rate.Limiter {
	if s.cfg.RequestRate <= 0 {
		return nil
	}
	burst := s.cfg.RequestBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(s.cfg.RequestRate), burst)
}
