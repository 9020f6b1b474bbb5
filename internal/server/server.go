// Package server accepts TCP connections, runs the WebSocket opening
// handshake on each one and then serves an echo session until the
// closing handshake completes.
package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"websocket-handshake/internal/domain"
	"websocket-handshake/internal/infrastructure"
	"websocket-handshake/internal/metrics"
	"websocket-handshake/pkg/protocol"
)

var (
	// ErrShutdownTimeout is returned when graceful shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")

	// ErrRateLimited is returned when a connection arrives faster than the handshake rate allows.
	ErrRateLimited = errors.New("handshake rate exceeded")

	// ErrHandshakeTooLarge is returned when the request header block exceeds MaxHandshakeSize.
	ErrHandshakeTooLarge = errors.New("handshake request too large")
)

// Config holds the server configuration.
type Config struct {
	// Address is the listen address (host:port)
	Address string

	// HandshakeTimeout bounds the time a client has to send the full request header block.
	HandshakeTimeout time.Duration

	// IdleTimeout closes an open session that sends nothing for this long. Zero disables it.
	IdleTimeout time.Duration

	// WriteTimeout bounds every write to the client.
	WriteTimeout time.Duration

	// MaxHandshakeSize caps the request header block in bytes.
	MaxHandshakeSize int

	// MaxPayloadSize caps the payload of a single received frame.
	MaxPayloadSize uint64

	// HandshakeRate is the number of handshakes accepted per second. Zero means unlimited.
	HandshakeRate float64

	// HandshakeBurst is the number of handshakes allowed at once above HandshakeRate.
	HandshakeBurst int

	// ShutdownTimeout is the maximum time to wait for open sessions to finish
	// during graceful shutdown. Remaining sessions are then closed forcefully.
	ShutdownTimeout time.Duration

	// Logger for server events
	Logger *slog.Logger

	// Metrics receives handshake, session and frame counts
	Metrics *metrics.Metrics
}

// Server accepts TCP connections and upgrades them to WebSocket sessions.
type Server struct {
	config    Config
	validator *infrastructure.HandshakeValidator
	codec     *infrastructure.FrameCodec
	limiter   *rate.Limiter
	wg        sync.WaitGroup
}

// New creates a new server with the given configuration.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New("", nil)
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.MaxHandshakeSize == 0 {
		cfg.MaxHandshakeSize = protocol.MaxHandshakeSize
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.HandshakeRate > 0 {
		limit = rate.Limit(cfg.HandshakeRate)
	}
	if cfg.HandshakeBurst < 1 {
		cfg.HandshakeBurst = 1
	}

	return &Server{
		config:    cfg,
		validator: infrastructure.NewHandshakeValidator(cfg.Logger),
		codec:     infrastructure.NewFrameCodec(cfg.MaxPayloadSize),
		limiter:   rate.NewLimiter(limit, cfg.HandshakeBurst),
	}
}

// Listen listens on the configured address and serves until ctx is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled, then
// drains open sessions for up to ShutdownTimeout. Serve closes listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	logger := s.config.Logger
	logger.Info("WebSocket server started", slog.String("address", listener.Addr().String()))

	// Sessions get their own context so shutdown can drain them before forcing them closed.
	connCtx, connCancel := context.WithCancel(context.Background())
	defer connCancel()

	acceptDone := make(chan struct{})
	go func() {
		defer close(acceptDone)
		var delay time.Duration
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				delay = acceptBackoff(delay)
				logger.Error("failed to accept connection",
					slog.String("error", err.Error()),
					slog.Duration("retry_in", delay))
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				continue
			}
			delay = 0

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if err := s.handleConn(connCtx, conn); err != nil && !errors.Is(err, io.EOF) {
					logger.Debug("connection handler error",
						slog.String("remote", conn.RemoteAddr().String()),
						slog.String("error", err.Error()))
				}
			}()
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, closing listener")
	case <-acceptDone:
	}

	if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Error("error closing listener", slog.String("error", err.Error()))
	}
	<-acceptDone

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all sessions closed gracefully")
		return nil
	case <-time.After(s.config.ShutdownTimeout):
		logger.Warn("shutdown timeout exceeded, forcing session closure")
		connCancel()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return ErrShutdownTimeout
	}
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// acceptBackoff doubles the wait after consecutive accept errors.
func acceptBackoff(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	return min(2*prev, maxAcceptDelay)
}

// handleConn runs the opening handshake and, if it succeeds, the session.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	sess := domain.NewSession(uuid.NewString(), conn.RemoteAddr().String())
	logger := s.config.Logger.With(
		slog.String("session", sess.ID),
		slog.String("remote", sess.RemoteAddr))

	if !s.limiter.Allow() {
		s.config.Metrics.Handshakes.WithLabelValues(metrics.ResultRateLimited).Inc()
		logger.Warn("handshake rate exceeded, dropping connection")
		return ErrRateLimited
	}

	if err := conn.SetReadDeadline(time.Now().Add(s.config.HandshakeTimeout)); err != nil {
		return fmt.Errorf("failed to set handshake deadline: %w", err)
	}
	br := bufio.NewReader(conn)
	head, err := readHeaderBlock(br, s.config.MaxHandshakeSize)
	if err != nil {
		return fmt.Errorf("failed to read handshake request: %w", err)
	}

	req, resp, err := s.validator.Handshake(sess.RemoteAddr, head)
	if err != nil {
		s.config.Metrics.ObserveHandshakeError(err)
		logger.Info("handshake rejected", slog.String("error", err.Error()))
		return err
	}
	s.config.Metrics.Handshakes.WithLabelValues(metrics.ResultAccepted).Inc()

	if err := s.write(conn, resp); err != nil {
		return fmt.Errorf("failed to write handshake response: %w", err)
	}
	if err := sess.Open(req); err != nil {
		return err
	}
	logger.Info("websocket session opened",
		slog.String("path", req.Path),
		slog.String("query", req.Query))

	return s.serveSession(conn, br, sess, logger)
}

// readHeaderBlock reads request lines up to and including the blank line
// that ends the header block. Bytes after it stay buffered in br.
func readHeaderBlock(br *bufio.Reader, limit int) ([]byte, error) {
	var head []byte
	partial := false
	for {
		line, err := br.ReadSlice('\n')
		if len(head)+len(line) > limit {
			return nil, ErrHandshakeTooLarge
		}
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			head = append(head, line...)
			partial = true
			continue
		case err != nil:
			return nil, err
		}

		blank := !partial && len(bytes.TrimRight(line, "\r\n")) == 0
		partial = false
		if blank && len(head) == 0 {
			// Tolerate CRLFs sent ahead of the request line.
			continue
		}
		head = append(head, line...)
		if blank {
			return head, nil
		}
	}
}

func (s *Server) write(conn net.Conn, b []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return err
	}
	_, err := conn.Write(b)
	return err
}
