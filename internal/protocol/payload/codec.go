package payload

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

var ErrSerialization = errors.New("payload: serialization error")

// Encode serializes v to its msgpack wire form. Map entries are written in
// insertion order.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeValue(enc, v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

func encodeValue(enc *msgpack.Encoder, v Value) error {
	switch v.kind {
	case KindNil:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(v.b)
	case KindInt:
		return enc.EncodeInt(v.i)
	case KindFloat:
		return enc.EncodeFloat64(v.f)
	case KindString:
		return enc.EncodeString(v.s)
	case KindBytes:
		return enc.EncodeBytes(v.raw)
	case KindArray:
		if err := enc.EncodeArrayLen(len(v.arr)); err != nil {
			return err
		}
		for _, e := range v.arr {
			if err := encodeValue(enc, e); err != nil {
				return err
			}
		}
		return nil
	case KindMap:
		m := v.m
		if m == nil {
			m = NewMap()
		}
		if err := enc.EncodeMapLen(m.Len()); err != nil {
			return err
		}
		for _, p := range m.pairs {
			if err := encodeValue(enc, p.Key); err != nil {
				return err
			}
			if err := encodeValue(enc, p.Value); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown kind %d", v.kind)
}

// Decode parses one msgpack value from b.
//
// The server prefixes some payloads with a stray marker byte that itself
// decodes as a negative fixint. When the first value comes out as an integer
// in [-32,-1] with bytes still unread, decoding restarts at offsets 1 through
// 4 and the first offset that parses cleanly wins. If none does, the bare
// integer stands; callers must tolerate a scalar payload.
func Decode(b []byte) (Value, error) {
	v, trailing, err := decodeBuffer(b)
	if err != nil {
		return Value{}, err
	}
	if n, ok := v.AsInt(); ok && n >= -32 && n <= -1 && trailing {
		for off := 1; off <= 4 && off < len(b); off++ {
			rv, _, rerr := decodeBuffer(b[off:])
			if rerr == nil {
				return rv, nil
			}
		}
	}
	return v, nil
}

// decodeBuffer parses one value from the front of b and reports whether any
// bytes remain after it.
func decodeBuffer(b []byte) (Value, bool, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, false, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	_, peekErr := dec.PeekCode()
	return v, peekErr == nil, nil
}

func decodeValue(dec *msgpack.Decoder) (Value, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return Value{}, err
	}
	switch {
	case code == msgpcode.Nil:
		return Nil(), dec.DecodeNil()
	case code == msgpcode.False, code == msgpcode.True:
		b, err := dec.DecodeBool()
		return Bool(b), err
	case msgpcode.IsFixedNum(code),
		code == msgpcode.Int8, code == msgpcode.Int16,
		code == msgpcode.Int32, code == msgpcode.Int64:
		n, err := dec.DecodeInt64()
		return Int(n), err
	case code == msgpcode.Uint8, code == msgpcode.Uint16,
		code == msgpcode.Uint32, code == msgpcode.Uint64:
		u, err := dec.DecodeUint64()
		return Int(int64(u)), err
	case code == msgpcode.Float:
		f, err := dec.DecodeFloat32()
		return Float(float64(f)), err
	case code == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		return Float(f), err
	case msgpcode.IsFixedString(code), code == msgpcode.Str8,
		code == msgpcode.Str16, code == msgpcode.Str32:
		s, err := dec.DecodeString()
		return String(s), err
	case msgpcode.IsBin(code):
		b, err := dec.DecodeBytes()
		return Bytes(b), err
	case msgpcode.IsFixedArray(code), code == msgpcode.Array16, code == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return Value{}, err
		}
		var elems []Value
		for i := 0; i < n; i++ {
			e, err := decodeValue(dec)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, e)
		}
		return Array(elems...), nil
	case msgpcode.IsFixedMap(code), code == msgpcode.Map16, code == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return Value{}, err
		}
		m := NewMap()
		for i := 0; i < n; i++ {
			k, err := decodeValue(dec)
			if err != nil {
				return Value{}, err
			}
			v, err := decodeValue(dec)
			if err != nil {
				return Value{}, err
			}
			m.Set(k, v)
		}
		return MapValue(m), nil
	}
	return Value{}, fmt.Errorf("unsupported code 0x%02x", code)
}
