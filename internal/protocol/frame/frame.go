// Package frame implements the 10-byte binary header codec and the
// chunk-to-frame assembler for the client wire protocol.
//
// Header layout (10 bytes, big-endian):
//
//	[0]   version  uint8
//	[1-2] command  uint16
//	[3]   sequence uint8
//	[4-5] opcode   uint16
//	[6-9] packed   uint32 (top byte: compressed flag, low 24 bits: payload length)
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the fixed header length preceding every payload.
	HeaderSize = 10
	// MaxPayloadLen is the largest length the 24-bit field can carry.
	MaxPayloadLen = 0xFFFFFF
)

var (
	ErrShortHeader     = errors.New("frame: short header")
	ErrPayloadTooLarge = errors.New("frame: payload exceeds 24-bit length field")
	ErrLengthMismatch  = errors.New("frame: payload length mismatch")
)

// Header is the fixed wire header.
type Header struct {
	Version    uint8
	Command    uint16
	Sequence   uint8
	Opcode     uint16
	Compressed bool
	PayloadLen uint32
}

// Frame is one complete wire message.
type Frame struct {
	Header  Header
	Payload []byte
}

// Encode serializes h plus payload into a single wire buffer. The length half
// of the packed field always comes from len(payload); h.PayloadLen is
// ignored.
func Encode(h Header, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLarge
	}
	h.PayloadLen = uint32(len(payload))
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = h.Version
	binary.BigEndian.PutUint16(buf[1:3], h.Command)
	buf[3] = h.Sequence
	binary.BigEndian.PutUint16(buf[4:6], h.Opcode)
	packed := h.PayloadLen & MaxPayloadLen
	if h.Compressed {
		packed |= 1 << 24
	}
	binary.BigEndian.PutUint32(buf[6:10], packed)
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// DecodeHeader parses the fixed header from the front of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	packed := binary.BigEndian.Uint32(b[6:10])
	return Header{
		Version:    b[0],
		Command:    binary.BigEndian.Uint16(b[1:3]),
		Sequence:   b[3],
		Opcode:     binary.BigEndian.Uint16(b[4:6]),
		Compressed: packed>>24 != 0,
		PayloadLen: packed & MaxPayloadLen,
	}, nil
}

// Decode parses one fully buffered frame: exactly header plus payload bytes.
// The payload is copied out of b.
func Decode(b []byte) (Frame, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return Frame{}, err
	}
	if len(b) != HeaderSize+int(h.PayloadLen) {
		return Frame{}, fmt.Errorf("%w: have %d want %d", ErrLengthMismatch, len(b)-HeaderSize, h.PayloadLen)
	}
	payload := make([]byte, h.PayloadLen)
	copy(payload, b[HeaderSize:])
	return Frame{Header: h, Payload: payload}, nil
}
