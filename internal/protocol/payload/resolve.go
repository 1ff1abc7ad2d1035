package payload

import "github.com/minisock/onemectl/internal/protocol/lz4block"

// MaxBlockSize caps the uncompressed-size hint a block token may carry.
const MaxBlockSize = 10 << 20

// sizeHintKeys in probe order; the server is not consistent about which one
// it sends.
var sizeHintKeys = []string{"uncompressed_size", "uncompressedSize", "size"}

// Resolve walks v and replaces every block token, a mapping of the shape
// {type: "block", data: <bytes>, uncompressed_size: N}, with its
// decompressed, re-decoded content. Nested tokens inside resolved content are
// resolved in turn. A token with an invalid size hint or undecompressable
// data resolves to nil rather than failing the payload; decompressed bytes
// that are not themselves a serialized value stay raw.
func Resolve(v Value) Value {
	switch v.kind {
	case KindMap:
		if data, size, ok := blockToken(v.m); ok {
			return resolveBlock(data, size)
		}
		out := NewMap()
		for _, p := range v.m.pairs {
			out.Set(p.Key, Resolve(p.Value))
		}
		return MapValue(out)
	case KindArray:
		elems := make([]Value, len(v.arr))
		for i, e := range v.arr {
			elems[i] = Resolve(e)
		}
		return Array(elems...)
	default:
		return v
	}
}

func blockToken(m *Map) (data []byte, size int64, ok bool) {
	if m == nil {
		return nil, 0, false
	}
	tv, found := m.GetString("type")
	if !found {
		return nil, 0, false
	}
	if t, _ := tv.AsString(); t != "block" {
		return nil, 0, false
	}
	dv, found := m.GetString("data")
	if !found {
		return nil, 0, false
	}
	data, isBytes := dv.AsBytes()
	if !isBytes {
		return nil, 0, false
	}
	for _, key := range sizeHintKeys {
		hv, found := m.GetString(key)
		if !found {
			continue
		}
		if n, isInt := hv.AsInt(); isInt {
			return data, n, true
		}
	}
	// Token without a usable hint; size 0 is rejected downstream.
	return data, 0, true
}

func resolveBlock(data []byte, size int64) Value {
	if size <= 0 || size > MaxBlockSize {
		return Nil()
	}
	raw, err := lz4block.Decompress(data, int(size))
	if err != nil {
		return Nil()
	}
	inner, err := Decode(raw)
	if err != nil {
		return Bytes(raw)
	}
	return Resolve(inner)
}
