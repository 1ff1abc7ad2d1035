package lz4block

import (
	"bytes"
	"errors"
	"testing"
)

// literalBlock encodes data as a single literal-only run with no match
// section, the simplest legal block.
func literalBlock(data []byte) []byte {
	var out []byte
	n := len(data)
	if n < 15 {
		out = append(out, byte(n)<<4)
	} else {
		out = append(out, 0xF0)
		rem := n - 15
		for rem >= 255 {
			out = append(out, 255)
			rem -= 255
		}
		out = append(out, byte(rem))
	}
	return append(out, data...)
}

func TestLiteralOnlyBlock(t *testing.T) {
	want := []byte("hello")
	got, err := Decompress(literalBlock(want), 1024)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestLiteralLengthExtension(t *testing.T) {
	want := bytes.Repeat([]byte{0x7A}, 15+255+3)
	got, err := Decompress(literalBlock(want), 4096)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("length %d want %d", len(got), len(want))
	}
}

func TestOverlappingMatchRepeatsPattern(t *testing.T) {
	// 3 literals "abc", then a 9-byte match at offset 3: the match is longer
	// than the offset, so the window wraps and the pattern repeats.
	src := []byte{0x35, 'a', 'b', 'c', 0x03, 0x00}
	got, err := Decompress(src, 1024)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	want := []byte("abcabcabcabc")
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMatchLengthExtension(t *testing.T) {
	// 1 literal, offset 1, match nibble 15 + extension byte 2: 15+2+4 = 21
	// match bytes on top of the single literal.
	src := []byte{0x1F, 'x', 0x01, 0x00, 0x02}
	got, err := Decompress(src, 1024)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	want := bytes.Repeat([]byte{'x'}, 22)
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestZeroOffsetIsCorrupt(t *testing.T) {
	src := []byte{0x10, 'a', 0x00, 0x00}
	if _, err := Decompress(src, 1024); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestOffsetBeyondOutputIsCorrupt(t *testing.T) {
	src := []byte{0x10, 'a', 0x05, 0x00}
	if _, err := Decompress(src, 1024); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestTruncatedLiteralsAreCorrupt(t *testing.T) {
	src := []byte{0x50, 'h', 'e'}
	if _, err := Decompress(src, 1024); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestTruncatedOffsetIsCorrupt(t *testing.T) {
	src := []byte{0x10, 'a', 0x01}
	if _, err := Decompress(src, 1024); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestTruncatedLengthExtensionIsCorrupt(t *testing.T) {
	src := []byte{0xF0, 255}
	if _, err := Decompress(src, 1<<20); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestEmptyInputIsCorrupt(t *testing.T) {
	if _, err := Decompress(nil, 1024); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestOutputLimitOnLiterals(t *testing.T) {
	if _, err := Decompress(literalBlock([]byte("hello")), 3); !errors.Is(err, ErrOutputTooLarge) {
		t.Fatalf("expected ErrOutputTooLarge, got %v", err)
	}
}

func TestOutputLimitOnMatch(t *testing.T) {
	// "abc" literals then a 9-byte overlapping match: 12 bytes total.
	src := []byte{0x35, 'a', 'b', 'c', 0x03, 0x00}
	if _, err := Decompress(src, 10); !errors.Is(err, ErrOutputTooLarge) {
		t.Fatalf("expected ErrOutputTooLarge, got %v", err)
	}
}
