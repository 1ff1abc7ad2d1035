// Package payload owns the structured payload model: the Value tree, its
// msgpack wire codec with the stray-marker-byte recovery path, and block
// token resolution.
package payload

import "bytes"

// Kind enumerates the shapes a decoded wire value can take.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
)

// Value is the universal decoded payload shape: a finite tree of scalars,
// arrays and insertion-ordered maps. The zero Value is nil.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
	arr  []Value
	m    *Map
}

func Nil() Value             { return Value{kind: KindNil} }
func Bool(v bool) Value      { return Value{kind: KindBool, b: v} }
func Int(v int64) Value      { return Value{kind: KindInt, i: v} }
func Float(v float64) Value  { return Value{kind: KindFloat, f: v} }
func String(v string) Value  { return Value{kind: KindString, s: v} }
func Bytes(v []byte) Value   { return Value{kind: KindBytes, raw: v} }
func Array(v ...Value) Value { return Value{kind: KindArray, arr: v} }
func MapValue(m *Map) Value  { return Value{kind: KindMap, m: m} }

func (v Value) Kind() Kind  { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsBytes() ([]byte, bool) {
	return v.raw, v.kind == KindBytes
}

func (v Value) AsArray() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

func (v Value) AsMap() (*Map, bool) {
	if v.kind != KindMap || v.m == nil {
		return nil, false
	}
	return v.m, true
}

// Pair is one map entry.
type Pair struct {
	Key   Value
	Value Value
}

// Map is an insertion-ordered mapping of Value to Value. The server keys
// responses by strings but the wire permits any scalar key, so generic keys
// are stored and string lookups are the common path. Lookups are linear;
// server maps are small.
type Map struct {
	pairs []Pair
}

func NewMap() *Map {
	return &Map{}
}

func (m *Map) Len() int {
	return len(m.pairs)
}

// Pairs returns the entries in insertion order. The slice is shared, not
// copied.
func (m *Map) Pairs() []Pair {
	return m.pairs
}

// Set appends the entry, or replaces the value if an equal key exists.
// Returns m for chaining.
func (m *Map) Set(k, v Value) *Map {
	for i := range m.pairs {
		if scalarEqual(m.pairs[i].Key, k) {
			m.pairs[i].Value = v
			return m
		}
	}
	m.pairs = append(m.pairs, Pair{Key: k, Value: v})
	return m
}

// SetString is Set with a string key.
func (m *Map) SetString(key string, v Value) *Map {
	return m.Set(String(key), v)
}

func (m *Map) Get(k Value) (Value, bool) {
	for _, p := range m.pairs {
		if scalarEqual(p.Key, k) {
			return p.Value, true
		}
	}
	return Nil(), false
}

// GetString looks up a string key.
func (m *Map) GetString(key string) (Value, bool) {
	return m.Get(String(key))
}

// scalarEqual compares scalar keys. Composite kinds never compare equal;
// the server does not key maps by them.
func scalarEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindBytes:
		return bytes.Equal(a.raw, b.raw)
	default:
		return false
	}
}
