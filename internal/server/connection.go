package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/SscSPs/pix_backend/internal/dto"
	"github.com/SscSPs/pix_backend/internal/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// connection serves one client: one request in flight, responses written in request order.
type connection struct {
	srv      *Server
	conn     net.Conn
	logger   *slog.Logger
	throttle *rate.Limiter
	stopping atomic.Bool
}

func newConnection(s *Server, conn net.Conn) *connection {
	return &connection{
		srv:  s,
		conn: conn,
		logger: s.logger.With(
			slog.String("conn_id", uuid.NewString()),
			slog.String("remote_addr", conn.RemoteAddr().String()),
		),
		throttle: s.newRequestLimiter(),
	}
}

// stopReading makes the pending or next read fail so the loop exits after the current request.
func (c *connection) stopReading() {
	c.stopping.Store(true)
	_ = c.conn.SetReadDeadline(time.Now())
}

func (c *connection) close() {
	c.conn.Close()
}

func (c *connection) serve(ctx context.Context) {
	defer c.close()
	ctx = middleware.WithLogger(ctx, c.logger)
	c.logger.Info("Connection opened")

	reader := bufio.NewReader(c.conn)
	writer := bufio.NewWriter(c.conn)
	for {
		if c.stopping.Load() {
			break
		}
		if c.srv.cfg.IdleTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.srv.cfg.IdleTimeout))
			if c.stopping.Load() {
				break
			}
		}

		line, tooLong, err := readLine(reader, c.srv.cfg.MaxLineBytes)
		if err != nil && !errors.Is(err, io.EOF) {
			// A partial line cut by a deadline or reset is not a request.
			c.logReadEnd(err)
			break
		}
		if tooLong {
			c.logger.Warn("Discarded over-long request line", slog.Int("max_line_bytes", c.srv.cfg.MaxLineBytes))
			if werr := c.reply(writer, dto.Failure(dto.ErrorOperation, msgLineTooLong)); werr != nil {
				break
			}
		} else if len(line) > 0 {
			if c.throttle != nil {
				if werr := c.throttle.Wait(ctx); werr != nil {
					break
				}
			}
			if werr := c.reply(writer, c.srv.dispatcher.Dispatch(ctx, line)); werr != nil {
				c.logger.Warn("Failed to write response", slog.String("error", werr.Error()))
				break
			}
		}

		if err != nil {
			c.logReadEnd(err)
			break
		}
	}
	c.logger.Info("Connection closed")
}

func (c *connection) logReadEnd(err error) {
	switch {
	case errors.Is(err, io.EOF), c.stopping.Load():
	case errors.Is(err, os.ErrDeadlineExceeded):
		c.logger.Info("Closing idle connection")
	default:
		c.logger.Debug("Connection read ended", slog.String("error", err.Error()))
	}
}

func (c *connection) reply(w *bufio.Writer, resp dto.Response) error {
	if err := writeResponse(w, resp); err != nil {
		return err
	}
	return w.Flush()
}

// writeResponse encodes resp as a single newline-terminated JSON line.
func writeResponse(w io.Writer, resp dto.Response) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}

// readLine returns the next line without its terminator. A line longer than max is
// consumed up to its newline and reported with tooLong set. A final line without a
// newline is returned together with the read error.
func readLine(r *bufio.Reader, max int) (line []byte, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(bytes.TrimRight(chunk, "\r\n")) > max {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return bytes.TrimSpace(buf), tooLong, err
	}
}
