package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, payload := range [][]byte{nil, {0xAB}, bytes.Repeat([]byte{0x5C}, 4096)} {
		in := Header{Version: 10, Command: 0, Sequence: 7, Opcode: 6, Compressed: true}
		wire, err := Encode(in, payload)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if len(wire) != HeaderSize+len(payload) {
			t.Fatalf("wire length %d want %d", len(wire), HeaderSize+len(payload))
		}
		out, err := Decode(wire)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		h := out.Header
		if h.Version != 10 || h.Command != 0 || h.Sequence != 7 || h.Opcode != 6 || !h.Compressed {
			t.Fatalf("header mismatch: %+v", h)
		}
		if h.PayloadLen != uint32(len(payload)) {
			t.Fatalf("payload length %d want %d", h.PayloadLen, len(payload))
		}
		if !bytes.Equal(out.Payload, payload) {
			t.Fatalf("payload mismatch for length %d", len(payload))
		}
	}
}

func TestEncodePayloadAt24BitBoundary(t *testing.T) {
	payload := make([]byte, MaxPayloadLen)
	wire, err := Encode(Header{Version: 10, Sequence: 1, Opcode: 2}, payload)
	if err != nil {
		t.Fatalf("encode at boundary: %v", err)
	}
	h, err := DecodeHeader(wire)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.PayloadLen != MaxPayloadLen {
		t.Fatalf("payload length %d want %d", h.PayloadLen, MaxPayloadLen)
	}
	if h.Compressed {
		t.Fatalf("length bits leaked into the flag byte")
	}

	if _, err := Encode(Header{}, make([]byte, MaxPayloadLen+1)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestPackedFieldFlagByte(t *testing.T) {
	wire, err := Encode(Header{Version: 10, Sequence: 3, Opcode: 9, Compressed: true}, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	packed := binary.BigEndian.Uint32(wire[6:10])
	if packed != 1<<24|3 {
		t.Fatalf("packed field 0x%08x want 0x01000003", packed)
	}
}

func TestDecodeHeaderShortInput(t *testing.T) {
	if _, err := DecodeHeader([]byte{1, 2, 3}); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	wire, err := Encode(Header{Version: 10, Sequence: 1, Opcode: 1}, []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(wire[:len(wire)-1]); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}
