package domain

import (
	"encoding/binary"
	"unicode/utf8"

	"websocket-handshake/pkg/protocol"
)

// ControlFrame is implemented by every control frame kind.
type ControlFrame interface {
	// OpCode returns the fixed opcode of the frame kind.
	OpCode() Opcode
}

// CloseFrame starts or answers the closing handshake.
// A zero Code sends an empty payload.
type CloseFrame struct {
	Code   uint16
	Reason string
}

var _ ControlFrame = CloseFrame{}

// NewCloseFrame creates a close frame with the given status code and reason
func NewCloseFrame(code uint16, reason string) CloseFrame {
	return CloseFrame{Code: code, Reason: reason}
}

// OpCode always returns OpcodeClose.
func (CloseFrame) OpCode() Opcode {
	return OpcodeClose
}

// Payload encodes the status code followed by the reason.
// The reason is cut on a rune boundary so the payload fits in a control frame.
func (c CloseFrame) Payload() []byte {
	if c.Code == 0 {
		return nil
	}
	reason := c.Reason
	if len(reason) > protocol.MaxControlFramePayloadSize-2 {
		reason = reason[:protocol.MaxControlFramePayloadSize-2]
		// Do not split a multi-byte rune.
		for len(reason) > 0 && !utf8.ValidString(reason) {
			reason = reason[:len(reason)-1]
		}
	}
	b := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(b, c.Code)
	copy(b[2:], reason)
	return b
}

// Frame converts the close frame into a wire frame
func (c CloseFrame) Frame() *Frame {
	return NewFrame(c.OpCode(), c.Payload())
}

// ParseCloseFrame decodes the payload of a received close frame.
// An empty payload yields StatusNoStatusReceived.
func ParseCloseFrame(f *Frame) (CloseFrame, error) {
	if f.Opcode != OpcodeClose {
		return CloseFrame{}, ErrInvalidOpcode
	}
	switch len(f.Payload) {
	case 0:
		return CloseFrame{Code: protocol.StatusNoStatusReceived}, nil
	case 1:
		return CloseFrame{}, ErrInvalidFrameStructure
	}

	code := binary.BigEndian.Uint16(f.Payload)
	if !validCloseCode(code) {
		return CloseFrame{}, ErrInvalidCloseCode
	}
	reason := f.Payload[2:]
	if !utf8.Valid(reason) {
		return CloseFrame{}, ErrInvalidFrameStructure
	}
	return CloseFrame{Code: code, Reason: string(reason)}, nil
}

// validCloseCode reports whether code may appear on the wire.
func validCloseCode(code uint16) bool {
	switch {
	case code >= 3000 && code <= 4999:
		return true
	case code < protocol.StatusNormalClosure || code > protocol.StatusTryAgainLater:
		return false
	}
	switch code {
	case protocol.StatusNoStatusReceived, protocol.StatusAbnormalClosure, 1004:
		return false
	}
	return true
}
