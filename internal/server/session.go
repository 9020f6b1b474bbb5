package server

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"websocket-handshake/internal/domain"
	"websocket-handshake/internal/metrics"
	"websocket-handshake/pkg/protocol"
)

// serveSession echoes data frames, answers pings and completes the closing
// handshake. Out of order fragments and invalid text close the session.
// It returns nil once the session closed cleanly.
func (s *Server) serveSession(conn net.Conn, br *bufio.Reader, sess *domain.Session, logger *slog.Logger) error {
	s.config.Metrics.ActiveSessions.Inc()
	defer s.config.Metrics.ActiveSessions.Dec()

	var messages domain.MessageTracker

	for {
		var deadline time.Time
		if s.config.IdleTimeout > 0 {
			deadline = time.Now().Add(s.config.IdleTimeout)
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			return err
		}

		f, err := s.codec.ReadFrame(br)
		if err != nil {
			s.fail(conn, sess, logger, err)
			return err
		}
		sess.Touch()
		s.config.Metrics.ObserveFrame(f.Opcode, metrics.DirectionIn)

		switch f.Opcode {
		case domain.OpcodePing:
			err = s.writeFrame(conn, domain.NewFrame(domain.OpcodePong, f.Payload))
		case domain.OpcodePong:
		case domain.OpcodeClose:
			reply := domain.CloseFrame{}
			cf, perr := domain.ParseCloseFrame(f)
			switch {
			case perr != nil:
				reply = domain.NewCloseFrame(protocol.StatusProtocolError, perr.Error())
			case cf.Code != protocol.StatusNoStatusReceived:
				reply = domain.NewCloseFrame(cf.Code, "")
			}
			s.closeSession(conn, sess, reply)
			logger.Info("websocket session closed",
				slog.Int("code", int(cf.Code)),
				slog.String("reason", cf.Reason))
			return perr
		default:
			if merr := messages.Accept(f); merr != nil {
				s.fail(conn, sess, logger, merr)
				return merr
			}
			err = s.writeFrame(conn, &domain.Frame{FIN: f.FIN, Opcode: f.Opcode, Payload: f.Payload})
		}
		if err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
	}
}

// fail ends the session after err. Protocol violations are reported to the
// peer with a close frame; transport errors just close.
func (s *Server) fail(conn net.Conn, sess *domain.Session, logger *slog.Logger, err error) {
	code, ok := closeCodeFor(err)
	if !ok {
		_ = sess.TransitionTo(domain.StateClosed)
		return
	}
	logger.Info("closing session on protocol error",
		slog.Int("code", int(code)),
		slog.String("error", err.Error()))
	s.closeSession(conn, sess, domain.NewCloseFrame(code, err.Error()))
}

// closeSession sends cf and moves the session to Closed.
func (s *Server) closeSession(conn net.Conn, sess *domain.Session, cf domain.CloseFrame) {
	_ = sess.TransitionTo(domain.StateClosing)
	if err := s.writeFrame(conn, cf.Frame()); err != nil {
		s.config.Logger.Debug("failed to send close frame",
			slog.String("session", sess.ID),
			slog.String("error", err.Error()))
	}
	_ = sess.TransitionTo(domain.StateClosed)
}

func (s *Server) writeFrame(conn net.Conn, f *domain.Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return err
	}
	if err := s.codec.WriteFrame(conn, f); err != nil {
		return err
	}
	s.config.Metrics.ObserveFrame(f.Opcode, metrics.DirectionOut)
	return nil
}

// closeCodeFor maps a frame read error to the status code sent to the peer.
// Transport errors get no close frame.
func closeCodeFor(err error) (uint16, bool) {
	switch {
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return protocol.StatusMessageTooBig, true
	case errors.Is(err, domain.ErrInvalidTextPayload):
		return protocol.StatusInvalidFramePayloadData, true
	case errors.Is(err, domain.ErrInvalidOpcode),
		errors.Is(err, domain.ErrReservedBitsSet),
		errors.Is(err, domain.ErrUnmaskedClientFrame),
		errors.Is(err, domain.ErrUnexpectedContinuation),
		errors.Is(err, domain.ErrFragmentInterleaved),
		errors.Is(err, domain.ErrInvalidFrameStructure):
		return protocol.StatusProtocolError, true
	default:
		return 0, false
	}
}
