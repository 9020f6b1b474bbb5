package domain

import (
	"fmt"
	"time"
)

// SessionState represents the lifecycle state of a WebSocket session
type SessionState int

const (
	// StateConnecting indicates the opening handshake has not completed
	StateConnecting SessionState = iota
	// StateOpen indicates the handshake succeeded and frames may flow
	StateOpen
	// StateClosing indicates a close frame has been sent or received
	StateClosing
	// StateClosed indicates the session is over
	StateClosed
)

// String returns the string representation of the session state
func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateOpen:
		return "Open"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Session is one accepted TCP connection going through the WebSocket lifecycle.
// A session is owned by a single goroutine.
type Session struct {
	ID           string
	RemoteAddr   string
	State        SessionState
	Request      *HandshakeRequest // Set once the handshake succeeds
	LastActivity time.Time
}

// NewSession creates a session in the Connecting state
func NewSession(id, remoteAddr string) *Session {
	return &Session{
		ID:           id,
		RemoteAddr:   remoteAddr,
		State:        StateConnecting,
		LastActivity: time.Now(),
	}
}

// CanTransitionTo checks if the session can move to the given state
func (s *Session) CanTransitionTo(next SessionState) bool {
	switch s.State {
	case StateConnecting:
		return next == StateOpen || next == StateClosed
	case StateOpen:
		return next == StateClosing || next == StateClosed
	case StateClosing:
		return next == StateClosed
	default:
		return false
	}
}

// TransitionTo moves the session to the given state
func (s *Session) TransitionTo(next SessionState) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidState, s.State, next)
	}
	s.State = next
	return nil
}

// Open records the accepted handshake and opens the session.
func (s *Session) Open(req *HandshakeRequest) error {
	if err := s.TransitionTo(StateOpen); err != nil {
		return err
	}
	s.Request = req
	s.Touch()
	return nil
}

// Touch updates the last activity timestamp
func (s *Session) Touch() {
	s.LastActivity = time.Now()
}

// IsOpen returns true if the session is open
func (s *Session) IsOpen() bool {
	return s.State == StateOpen
}

// IsClosed returns true if the session is closed
func (s *Session) IsClosed() bool {
	return s.State == StateClosed
}
