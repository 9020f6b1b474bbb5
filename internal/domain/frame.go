package domain

import "fmt"

// Opcode tags a WebSocket frame with its purpose
type Opcode byte

// WebSocket frame opcodes as defined in RFC 6455
const (
	OpcodeContinuation Opcode = 0x0
	OpcodeText         Opcode = 0x1
	OpcodeBinary       Opcode = 0x2
	// 0x3 - 0x7 are reserved for further data frames.
	OpcodeClose Opcode = 0x8
	OpcodePing  Opcode = 0x9
	OpcodePong  Opcode = 0xA
	// 0xB - 0xF are reserved for further control frames.
)

// IsValid reports whether the opcode is defined by RFC 6455
func (o Opcode) IsValid() bool {
	return o.IsData() || o.IsControl()
}

// IsControl returns true if the opcode is a defined control opcode
func (o Opcode) IsControl() bool {
	return o >= OpcodeClose && o <= OpcodePong
}

// IsData returns true if the opcode is a defined data opcode
func (o Opcode) IsData() bool {
	return o <= OpcodeBinary
}

// String returns the string representation of the opcode
func (o Opcode) String() string {
	switch o {
	case OpcodeContinuation:
		return "Continuation"
	case OpcodeText:
		return "Text"
	case OpcodeBinary:
		return "Binary"
	case OpcodeClose:
		return "Close"
	case OpcodePing:
		return "Ping"
	case OpcodePong:
		return "Pong"
	default:
		return fmt.Sprintf("Unknown(0x%X)", byte(o))
	}
}

// Frame is a single RFC 6455 frame with its payload already unmasked
type Frame struct {
	FIN        bool
	RSV1       bool
	RSV2       bool
	RSV3       bool
	Opcode     Opcode
	Masked     bool    // Whether the frame arrived masked
	MaskingKey [4]byte // Key the payload was masked with
	Payload    []byte
}

// NewFrame creates a final, unmasked frame as sent by a server
func NewFrame(opcode Opcode, payload []byte) *Frame {
	return &Frame{
		FIN:     true,
		Opcode:  opcode,
		Payload: payload,
	}
}

// Validate checks the frame against the RFC 6455 base framing rules
func (f *Frame) Validate() error {
	if !f.Opcode.IsValid() {
		return ErrInvalidOpcode
	}

	// No extension is ever negotiated, so reserved bits must stay clear.
	if f.RSV1 || f.RSV2 || f.RSV3 {
		return ErrReservedBitsSet
	}

	if f.Opcode.IsControl() {
		if !f.FIN || len(f.Payload) > 125 {
			return ErrInvalidFrameStructure
		}
	}

	return nil
}

// IsControlFrame returns true if this is a control frame
func (f *Frame) IsControlFrame() bool {
	return f.Opcode.IsControl()
}
