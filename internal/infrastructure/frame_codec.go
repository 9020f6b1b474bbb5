package infrastructure

import (
	"encoding/binary"
	"fmt"
	"io"

	"websocket-handshake/internal/domain"
	"websocket-handshake/pkg/protocol"
)

const maxHeaderSize = 2 + 8 + 4

// FrameCodec reads client frames and writes server frames on an open session.
type FrameCodec struct {
	maxPayloadSize uint64
}

// NewFrameCodec creates a codec that rejects payloads larger than
// maxPayloadSize. Zero selects protocol.MaxPayloadSize.
func NewFrameCodec(maxPayloadSize uint64) *FrameCodec {
	if maxPayloadSize == 0 {
		maxPayloadSize = protocol.MaxPayloadSize
	}
	return &FrameCodec{maxPayloadSize: maxPayloadSize}
}

// ReadFrame reads one client frame from r and unmasks its payload.
// Clients must mask every frame, see RFC 6455 section 5.1.
func (c *FrameCodec) ReadFrame(r io.Reader) (*domain.Frame, error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, err
	}

	f := &domain.Frame{
		FIN:    head[0]&0x80 != 0,
		RSV1:   head[0]&0x40 != 0,
		RSV2:   head[0]&0x20 != 0,
		RSV3:   head[0]&0x10 != 0,
		Opcode: domain.Opcode(head[0] & 0x0F),
		Masked: head[1]&0x80 != 0,
	}

	length, err := readPayloadLength(r, uint64(head[1]&0x7F))
	if err != nil {
		return nil, fmt.Errorf("failed to read payload length: %w", err)
	}
	if length > c.maxPayloadSize {
		return nil, domain.ErrPayloadTooLarge
	}
	if f.Opcode.IsControl() && length > protocol.MaxControlFramePayloadSize {
		return nil, domain.ErrInvalidFrameStructure
	}
	if !f.Masked {
		return nil, domain.ErrUnmaskedClientFrame
	}

	if _, err := io.ReadFull(r, f.MaskingKey[:]); err != nil {
		return nil, fmt.Errorf("failed to read masking key: %w", err)
	}

	f.Payload = make([]byte, length)
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	mask(f.Payload, f.MaskingKey)

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func readPayloadLength(r io.Reader, length uint64) (uint64, error) {
	switch length {
	case protocol.PayloadLen16Bit:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint64(binary.BigEndian.Uint16(b[:])), nil
	case protocol.PayloadLen64Bit:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		// The most significant bit must be 0.
		n := binary.BigEndian.Uint64(b[:])
		if n>>63 != 0 {
			return 0, domain.ErrInvalidFrameStructure
		}
		return n, nil
	default:
		return length, nil
	}
}

// WriteFrame writes f to w. Server frames go out unmasked unless the
// frame asks otherwise.
func (c *FrameCodec) WriteFrame(w io.Writer, f *domain.Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	var b [maxHeaderSize]byte
	b[0] = byte(f.Opcode)
	if f.FIN {
		b[0] |= 0x80
	}
	if f.RSV1 {
		b[0] |= 0x40
	}
	if f.RSV2 {
		b[0] |= 0x20
	}
	if f.RSV3 {
		b[0] |= 0x10
	}

	n := 2
	length := uint64(len(f.Payload))
	switch {
	case length <= 125:
		b[1] = byte(length)
	case length <= 0xFFFF:
		b[1] = protocol.PayloadLen16Bit
		binary.BigEndian.PutUint16(b[n:], uint16(length))
		n += 2
	default:
		b[1] = protocol.PayloadLen64Bit
		binary.BigEndian.PutUint64(b[n:], length)
		n += 8
	}

	payload := f.Payload
	if f.Masked {
		b[1] |= 0x80
		n += copy(b[n:], f.MaskingKey[:])
		payload = append([]byte(nil), f.Payload...)
		mask(payload, f.MaskingKey)
	}

	if _, err := w.Write(b[:n]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

// mask applies (and removes) the RFC 6455 payload mask in place.
func mask(b []byte, key [4]byte) {
	for i := range b {
		b[i] ^= key[i%4]
	}
}
