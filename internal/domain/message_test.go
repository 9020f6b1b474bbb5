package domain

import (
	"errors"
	"testing"
)

func TestMessageTypeString(t *testing.T) {
	tests := []struct {
		msgType  MessageType
		expected string
	}{
		{MessageTypeText, "Text"},
		{MessageTypeBinary, "Binary"},
		{MessageType(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.msgType.String(); got != tt.expected {
				t.Errorf("String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func fragment(opcode Opcode, fin bool, payload string) *Frame {
	f := NewFrame(opcode, []byte(payload))
	f.FIN = fin
	return f
}

func TestMessageTracker(t *testing.T) {
	tests := []struct {
		name    string
		frames  []*Frame
		wantErr error // error for the last frame; earlier frames must pass
	}{
		{
			name:   "single text frame",
			frames: []*Frame{fragment(OpcodeText, true, "hello")},
		},
		{
			name: "fragmented binary",
			frames: []*Frame{
				fragment(OpcodeBinary, false, "\xff\xfe"),
				fragment(OpcodeContinuation, true, "\x00"),
			},
		},
		{
			name: "rune split across fragments",
			frames: []*Frame{
				fragment(OpcodeText, false, "caf\xc3"),
				fragment(OpcodeContinuation, false, "\xa9 "),
				fragment(OpcodeContinuation, true, "\xe2\x82"+"\xac"),
			},
		},
		{
			name: "four byte rune split three ways",
			frames: []*Frame{
				fragment(OpcodeText, false, "\xf0"),
				fragment(OpcodeContinuation, false, "\x9f\x98"),
				fragment(OpcodeContinuation, true, "\x80"),
			},
		},
		{
			name:    "continuation without start",
			frames:  []*Frame{fragment(OpcodeContinuation, true, "x")},
			wantErr: ErrUnexpectedContinuation,
		},
		{
			name: "continuation after finished message",
			frames: []*Frame{
				fragment(OpcodeText, true, "done"),
				fragment(OpcodeContinuation, true, "x"),
			},
			wantErr: ErrUnexpectedContinuation,
		},
		{
			name: "new message inside fragmented one",
			frames: []*Frame{
				fragment(OpcodeText, false, "part"),
				fragment(OpcodeBinary, true, "x"),
			},
			wantErr: ErrFragmentInterleaved,
		},
		{
			name:    "invalid UTF-8 in text",
			frames:  []*Frame{fragment(OpcodeText, true, "\xff")},
			wantErr: ErrInvalidTextPayload,
		},
		{
			name: "incomplete rune at end of message",
			frames: []*Frame{
				fragment(OpcodeText, false, "ok"),
				fragment(OpcodeContinuation, true, "\xc3"),
			},
			wantErr: ErrInvalidTextPayload,
		},
		{
			name: "invalid byte inside unfinished fragment",
			frames: []*Frame{
				fragment(OpcodeText, false, "\xffabc"),
			},
			wantErr: ErrInvalidTextPayload,
		},
		{
			name:    "control frame",
			frames:  []*Frame{fragment(OpcodePing, true, "")},
			wantErr: ErrInvalidOpcode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tracker MessageTracker
			last := len(tt.frames) - 1
			for i, f := range tt.frames {
				err := tracker.Accept(f)
				if i < last {
					if err != nil {
						t.Fatalf("frame %d: unexpected error %v", i, err)
					}
					continue
				}
				if tt.wantErr == nil && err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			}
			if tt.wantErr == nil && tracker.InProgress() {
				t.Error("message should be complete")
			}
		})
	}
}

func TestMessageTrackerInProgress(t *testing.T) {
	var tracker MessageTracker
	if err := tracker.Accept(fragment(OpcodeText, false, "a")); err != nil {
		t.Fatal(err)
	}
	if !tracker.InProgress() {
		t.Error("expected fragmented message in progress")
	}
	if err := tracker.Accept(fragment(OpcodeContinuation, true, "b")); err != nil {
		t.Fatal(err)
	}
	if tracker.InProgress() {
		t.Error("expected message to be finished")
	}
}
