package domain

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"websocket-handshake/pkg/protocol"
)

func TestCloseFrameOpCode(t *testing.T) {
	var frames = []ControlFrame{
		CloseFrame{},
		NewCloseFrame(protocol.StatusGoingAway, "bye"),
		&CloseFrame{Code: protocol.StatusNormalClosure},
	}
	for _, f := range frames {
		if got := f.OpCode(); got != OpcodeClose {
			t.Errorf("OpCode() = %v, want Close", got)
		}
	}
}

func TestCloseFramePayload(t *testing.T) {
	tests := []struct {
		name  string
		frame CloseFrame
		want  []byte
	}{
		{"no code", CloseFrame{}, nil},
		{"code only", NewCloseFrame(protocol.StatusNormalClosure, ""), []byte{0x03, 0xE8}},
		{"code and reason", NewCloseFrame(protocol.StatusGoingAway, "bye"), []byte{0x03, 0xE9, 'b', 'y', 'e'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Payload(); !bytes.Equal(got, tt.want) {
				t.Errorf("Payload() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCloseFramePayloadFitsControlFrame(t *testing.T) {
	cf := NewCloseFrame(protocol.StatusPolicyViolation, strings.Repeat("x", 200))
	f := cf.Frame()

	if len(f.Payload) != protocol.MaxControlFramePayloadSize {
		t.Fatalf("expected payload of %d bytes, got %d", protocol.MaxControlFramePayloadSize, len(f.Payload))
	}
	if err := f.Validate(); err != nil {
		t.Errorf("close frame failed validation: %v", err)
	}
}

func TestCloseFramePayloadKeepsRunesWhole(t *testing.T) {
	// 100 two-byte runes do not fit; the cut must not leave half a rune.
	cf := NewCloseFrame(protocol.StatusGoingAway, strings.Repeat("é", 100))
	f := cf.Frame()

	if len(f.Payload) > protocol.MaxControlFramePayloadSize {
		t.Fatalf("payload of %d bytes exceeds control frame limit", len(f.Payload))
	}
	if !utf8.Valid(f.Payload[2:]) {
		t.Fatalf("truncated reason is not valid UTF-8: %q", f.Payload[2:])
	}
	if want := strings.Repeat("é", 61); string(f.Payload[2:]) != want {
		t.Errorf("reason = %q, want %q", f.Payload[2:], want)
	}

	parsed, err := ParseCloseFrame(f)
	if err != nil {
		t.Fatalf("ParseCloseFrame() error = %v", err)
	}
	if parsed.Code != protocol.StatusGoingAway {
		t.Errorf("Code = %d, want %d", parsed.Code, protocol.StatusGoingAway)
	}
}

func TestParseCloseFrame(t *testing.T) {
	tests := []struct {
		name    string
		frame   *Frame
		want    CloseFrame
		wantErr error
	}{
		{
			name:  "empty payload",
			frame: NewFrame(OpcodeClose, nil),
			want:  CloseFrame{Code: protocol.StatusNoStatusReceived},
		},
		{
			name:  "round trip",
			frame: NewCloseFrame(protocol.StatusGoingAway, "shutting down").Frame(),
			want:  CloseFrame{Code: protocol.StatusGoingAway, Reason: "shutting down"},
		},
		{
			name:  "application code",
			frame: NewCloseFrame(4000, "").Frame(),
			want:  CloseFrame{Code: 4000},
		},
		{
			name:    "not a close frame",
			frame:   NewFrame(OpcodePing, nil),
			wantErr: ErrInvalidOpcode,
		},
		{
			name:    "one byte payload",
			frame:   NewFrame(OpcodeClose, []byte{0x03}),
			wantErr: ErrInvalidFrameStructure,
		},
		{
			name:    "reserved code",
			frame:   NewCloseFrame(protocol.StatusAbnormalClosure, "").Frame(),
			wantErr: ErrInvalidCloseCode,
		},
		{
			name:    "code below range",
			frame:   NewCloseFrame(999, "").Frame(),
			wantErr: ErrInvalidCloseCode,
		},
		{
			name:    "invalid utf8 reason",
			frame:   NewFrame(OpcodeClose, []byte{0x03, 0xE8, 0xFF, 0xFE}),
			wantErr: ErrInvalidFrameStructure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCloseFrame(tt.frame)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseCloseFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCloseFrame() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
