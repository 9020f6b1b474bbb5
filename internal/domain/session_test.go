package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewSession(t *testing.T) {
	s := NewSession("session-1", "192.168.1.1:8080")

	if s.ID != "session-1" {
		t.Errorf("expected ID to be session-1, got %s", s.ID)
	}
	if s.RemoteAddr != "192.168.1.1:8080" {
		t.Errorf("expected RemoteAddr to be 192.168.1.1:8080, got %s", s.RemoteAddr)
	}
	if s.State != StateConnecting {
		t.Errorf("expected State to be Connecting, got %s", s.State)
	}
	if s.Request != nil {
		t.Error("expected no handshake request before Open")
	}
	if time.Since(s.LastActivity) > time.Second {
		t.Error("expected LastActivity to be recent")
	}
}

func TestSessionStateString(t *testing.T) {
	tests := []struct {
		state    SessionState
		expected string
	}{
		{StateConnecting, "Connecting"},
		{StateOpen, "Open"},
		{StateClosing, "Closing"},
		{StateClosed, "Closed"},
		{SessionState(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSessionTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    SessionState
		to      SessionState
		wantErr bool
	}{
		{"Connecting to Open", StateConnecting, StateOpen, false},
		{"Connecting to Closed", StateConnecting, StateClosed, false},
		{"Connecting to Closing", StateConnecting, StateClosing, true},
		{"Open to Closing", StateOpen, StateClosing, false},
		{"Open to Closed", StateOpen, StateClosed, false},
		{"Open to Connecting", StateOpen, StateConnecting, true},
		{"Closing to Closed", StateClosing, StateClosed, false},
		{"Closing to Open", StateClosing, StateOpen, true},
		{"Closed to Open", StateClosed, StateOpen, true},
		{"Closed to Closed", StateClosed, StateClosed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{State: tt.from}
			err := s.TransitionTo(tt.to)

			if tt.wantErr {
				if !errors.Is(err, ErrInvalidState) {
					t.Errorf("expected ErrInvalidState, got %v", err)
				}
				if s.State != tt.from {
					t.Errorf("state changed to %s on failed transition", s.State)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if s.State != tt.to {
				t.Errorf("expected state %s, got %s", tt.to, s.State)
			}
		})
	}
}

func TestSessionOpen(t *testing.T) {
	s := NewSession("session-1", "127.0.0.1:1")
	req := &HandshakeRequest{SecWebSocketKey: "dGhlIHNhbXBsZSBub25jZQ==", Path: "/chat"}

	if err := s.Open(req); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !s.IsOpen() {
		t.Errorf("expected session to be open, got %s", s.State)
	}
	if s.Request != req {
		t.Error("expected handshake request to be recorded")
	}

	if err := s.Open(req); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected second Open to fail with ErrInvalidState, got %v", err)
	}
}

func TestHandshakeError(t *testing.T) {
	err := NewHandshakeError("10.0.0.1:5000", ErrMissingHost)
	if got, want := err.Error(), "handshake with remote [10.0.0.1:5000] failed: lack of host authority"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrMissingHost) {
		t.Error("expected errors.Is to match the violated clause")
	}

	err = NewHandshakeError("10.0.0.1:5000", ErrInvalidUpgrade).WithValue("h2c")
	if got, want := err.Error(), "handshake with remote [10.0.0.1:5000] failed: invalid upgrade header item value [h2c]"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var herr *HandshakeError
	if !errors.As(error(err), &herr) || herr.RemoteAddr != "10.0.0.1:5000" {
		t.Errorf("expected errors.As to expose the remote address, got %+v", herr)
	}
}
