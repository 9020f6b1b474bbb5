package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Frame errors
	ErrInvalidFrameStructure = errors.New("invalid frame structure")
	ErrInvalidOpcode         = errors.New("invalid opcode")
	ErrReservedBitsSet       = errors.New("reserved bits incorrectly set")
	ErrPayloadTooLarge       = errors.New("payload exceeds maximum size")
	ErrUnmaskedClientFrame   = errors.New("client frame must be masked")
	ErrInvalidCloseCode      = errors.New("invalid close code")

	// Message errors
	ErrUnexpectedContinuation = errors.New("continuation frame without a fragmented message")
	ErrFragmentInterleaved    = errors.New("new data frame inside a fragmented message")
	ErrInvalidTextPayload     = errors.New("text payload is not valid UTF-8")

	// Connection errors
	ErrInvalidState = errors.New("invalid connection state")

	// Handshake clauses, in the order they are checked
	ErrMissingGetMethod           = errors.New("lack of get method")
	ErrMissingHost                = errors.New("lack of host authority")
	ErrInvalidResourceName        = errors.New("invalid requested resource name")
	ErrMissingConnection          = errors.New("lack of connection header item")
	ErrInvalidConnection          = errors.New("invalid connection header item value")
	ErrMissingUpgrade             = errors.New("lack of upgrade header item")
	ErrInvalidUpgrade             = errors.New("invalid upgrade header item value")
	ErrMissingSecWebSocketKey     = errors.New("lack of Sec-WebSocket-Key header item")
	ErrInvalidSecWebSocketKey     = errors.New("invalid Sec-WebSocket-Key header item value")
	ErrMissingSecWebSocketVersion = errors.New("lack of Sec-WebSocket-Version header item")
	ErrInvalidSecWebSocketVersion = errors.New("invalid Sec-WebSocket-Version header item value")
)

// HandshakeError reports a rejected opening handshake.
// Err is always one of the handshake clause errors above.
type HandshakeError struct {
	RemoteAddr string // Remote endpoint the request came from
	Value      string // Offending header value, empty for missing items
	Err        error  // Violated clause
}

// NewHandshakeError creates a handshake error for the given remote and clause.
func NewHandshakeError(remoteAddr string, clause error) *HandshakeError {
	return &HandshakeError{RemoteAddr: remoteAddr, Err: clause}
}

// WithValue records the header value that violated the clause.
func (e *HandshakeError) WithValue(value string) *HandshakeError {
	e.Value = value
	return e
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("handshake with remote [%s] failed: %v [%s]", e.RemoteAddr, e.Err, e.Value)
	}
	return fmt.Sprintf("handshake with remote [%s] failed: %v", e.RemoteAddr, e.Err)
}

// Unwrap returns the violated clause.
func (e *HandshakeError) Unwrap() error {
	return e.Err
}
