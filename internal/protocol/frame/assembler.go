package frame

// Assembler accumulates raw transport chunks and cuts them into complete
// frames, independent of how the stream was chunked. Not safe for concurrent
// use; the session feeds it from a single read loop.
type Assembler struct {
	buf []byte
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Push appends chunk to the internal buffer and returns every frame that is
// now complete, in arrival order. Surplus bytes stay buffered for the next
// call. A decode failure poisons the stream position and is returned after
// any frames completed by this chunk.
func (a *Assembler) Push(chunk []byte) ([]Frame, error) {
	a.buf = append(a.buf, chunk...)
	var frames []Frame
	for {
		if len(a.buf) < HeaderSize {
			return frames, nil
		}
		h, err := DecodeHeader(a.buf)
		if err != nil {
			return frames, err
		}
		total := HeaderSize + int(h.PayloadLen)
		if len(a.buf) < total {
			return frames, nil
		}
		fr, err := Decode(a.buf[:total])
		if err != nil {
			return frames, err
		}
		a.buf = a.buf[total:]
		frames = append(frames, fr)
	}
}

// Buffered reports bytes held that do not yet form a complete frame.
func (a *Assembler) Buffered() int {
	return len(a.buf)
}
