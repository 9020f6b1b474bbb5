package domain

import (
	"fmt"
	"unicode/utf8"
)

// MessageType represents the type of WebSocket message
type MessageType int

const (
	// MessageTypeText represents a text message
	MessageTypeText MessageType = iota
	// MessageTypeBinary represents a binary message
	MessageTypeBinary
)

// String returns the string representation of the message type
func (m MessageType) String() string {
	switch m {
	case MessageTypeText:
		return "Text"
	case MessageTypeBinary:
		return "Binary"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// MessageTracker follows the data frames of one session and checks that
// fragments arrive in order and that text messages are valid UTF-8.
// Payloads are not buffered; only an incomplete trailing rune is kept
// between fragments.
type MessageTracker struct {
	inProgress bool
	typ        MessageType
	pending    []byte
}

// InProgress reports whether a fragmented message has started but not finished.
func (t *MessageTracker) InProgress() bool {
	return t.inProgress
}

// Accept checks the next data frame. Control frames must not be passed in.
func (t *MessageTracker) Accept(f *Frame) error {
	switch f.Opcode {
	case OpcodeContinuation:
		if !t.inProgress {
			return ErrUnexpectedContinuation
		}
	case OpcodeText, OpcodeBinary:
		if t.inProgress {
			return ErrFragmentInterleaved
		}
		t.typ = MessageTypeBinary
		if f.Opcode == OpcodeText {
			t.typ = MessageTypeText
		}
		t.pending = t.pending[:0]
	default:
		return ErrInvalidOpcode
	}

	if t.typ == MessageTypeText {
		if err := t.checkText(f.Payload, f.FIN); err != nil {
			t.inProgress = false
			return err
		}
	}
	t.inProgress = !f.FIN
	return nil
}

// checkText validates payload continuing any rune left over from the
// previous fragment. A rune may stay incomplete only if more fragments follow.
func (t *MessageTracker) checkText(payload []byte, fin bool) error {
	data := payload
	if len(t.pending) > 0 {
		data = append(t.pending, payload...)
	}

	cut := len(data)
	if !fin {
		for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax+1; i-- {
			if utf8.RuneStart(data[i]) {
				if !utf8.FullRune(data[i:]) {
					cut = i
				}
				break
			}
		}
	}

	if !utf8.Valid(data[:cut]) {
		return ErrInvalidTextPayload
	}
	t.pending = append(t.pending[:0], data[cut:]...)
	return nil
}
