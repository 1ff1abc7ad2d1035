// Package lz4block decodes the raw LZ4 block format: token bytes, literal
// runs and back-reference matches, with no frame header, magic or checksum.
// The server only ever compresses single self-contained blocks, so encoding
// and the LZ4 frame format are out of scope.
package lz4block

import (
	"encoding/binary"
	"errors"
)

var (
	ErrCorrupt        = errors.New("lz4block: corrupt stream")
	ErrOutputTooLarge = errors.New("lz4block: output exceeds limit")
)

// Decompress decodes one LZ4 block from src. maxOutputSize bounds the
// decoded length; exceeding it fails with ErrOutputTooLarge, any structural
// problem fails with ErrCorrupt.
func Decompress(src []byte, maxOutputSize int) ([]byte, error) {
	if len(src) == 0 {
		return nil, ErrCorrupt
	}
	dst := make([]byte, 0, len(src))
	i := 0
	for i < len(src) {
		token := src[i]
		i++

		litLen := int(token >> 4)
		if litLen == 15 {
			n, next, err := extendLength(src, i, litLen)
			if err != nil {
				return nil, err
			}
			litLen, i = n, next
		}
		if litLen > len(src)-i {
			return nil, ErrCorrupt
		}
		dst = append(dst, src[i:i+litLen]...)
		i += litLen
		if len(dst) > maxOutputSize {
			return nil, ErrOutputTooLarge
		}

		// A block may legitimately end on a literal-only token.
		if i == len(src) {
			break
		}

		if len(src)-i < 2 {
			return nil, ErrCorrupt
		}
		offset := int(binary.LittleEndian.Uint16(src[i : i+2]))
		i += 2
		if offset == 0 {
			return nil, ErrCorrupt
		}
		if offset > len(dst) {
			return nil, ErrCorrupt
		}

		matchLen := int(token & 0x0F)
		if matchLen == 15 {
			n, next, err := extendLength(src, i, matchLen)
			if err != nil {
				return nil, err
			}
			matchLen, i = n, next
		}
		matchLen += 4

		// Matches may overlap their own output: byte j of the match reads
		// from the offset-sized window, which repeats the pattern when
		// matchLen exceeds offset.
		start := len(dst) - offset
		for j := 0; j < matchLen; j++ {
			dst = append(dst, dst[start+j%offset])
			if len(dst) > maxOutputSize {
				return nil, ErrOutputTooLarge
			}
		}
	}
	return dst, nil
}

// extendLength accumulates length-extension bytes starting at src[i]: each
// byte adds 0-255, and any value other than 255 terminates the run.
func extendLength(src []byte, i, n int) (int, int, error) {
	for {
		if i >= len(src) {
			return 0, 0, ErrCorrupt
		}
		b := src[i]
		i++
		n += int(b)
		if b != 255 {
			return n, i, nil
		}
	}
}
