package payload

import (
	"errors"
	"testing"
)

func mustEncode(t *testing.T, v Value) []byte {
	t.Helper()
	b, err := Encode(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func mustDecode(t *testing.T, b []byte) Value {
	t.Helper()
	v, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestScalarRoundTrips(t *testing.T) {
	cases := []Value{
		Nil(),
		Bool(true),
		Bool(false),
		Int(0),
		Int(127),
		Int(12345),
		Int(-12345),
		Float(3.5),
		String("привет"),
		Bytes([]byte{0x00, 0xFF, 0x10}),
	}
	for _, in := range cases {
		out := mustDecode(t, mustEncode(t, in))
		if out.Kind() != in.Kind() {
			t.Fatalf("kind %v want %v", out.Kind(), in.Kind())
		}
		switch in.Kind() {
		case KindInt:
			a, _ := in.AsInt()
			b, _ := out.AsInt()
			if a != b {
				t.Fatalf("int %d want %d", b, a)
			}
		case KindString:
			a, _ := in.AsString()
			b, _ := out.AsString()
			if a != b {
				t.Fatalf("string %q want %q", b, a)
			}
		case KindFloat:
			a, _ := in.AsFloat()
			b, _ := out.AsFloat()
			if a != b {
				t.Fatalf("float %v want %v", b, a)
			}
		}
	}
}

func TestMapKeyOrderPreserved(t *testing.T) {
	in := NewMap().
		SetString("zulu", Int(1)).
		SetString("alpha", Int(2)).
		SetString("mike", Int(3))
	out := mustDecode(t, mustEncode(t, MapValue(in)))
	m, ok := out.AsMap()
	if !ok {
		t.Fatalf("expected map, got kind %v", out.Kind())
	}
	wantKeys := []string{"zulu", "alpha", "mike"}
	pairs := m.Pairs()
	if len(pairs) != len(wantKeys) {
		t.Fatalf("pair count %d want %d", len(pairs), len(wantKeys))
	}
	for i, p := range pairs {
		k, _ := p.Key.AsString()
		if k != wantKeys[i] {
			t.Fatalf("key[%d] = %q want %q", i, k, wantKeys[i])
		}
	}
}

func TestNonStringMapKeys(t *testing.T) {
	in := NewMap().Set(Int(42), String("answer"))
	out := mustDecode(t, mustEncode(t, MapValue(in)))
	m, ok := out.AsMap()
	if !ok {
		t.Fatalf("expected map")
	}
	v, found := m.Get(Int(42))
	if !found {
		t.Fatalf("integer key lost")
	}
	if s, _ := v.AsString(); s != "answer" {
		t.Fatalf("value %q want %q", s, "answer")
	}
}

func TestNestedStructures(t *testing.T) {
	in := MapValue(NewMap().
		SetString("items", Array(Int(1), String("two"), Nil())).
		SetString("inner", MapValue(NewMap().SetString("deep", Bool(true)))))
	out := mustDecode(t, mustEncode(t, in))
	m, _ := out.AsMap()
	items, _ := m.GetString("items")
	arr, ok := items.AsArray()
	if !ok || len(arr) != 3 {
		t.Fatalf("items arity wrong: %+v", items)
	}
	inner, _ := m.GetString("inner")
	im, ok := inner.AsMap()
	if !ok {
		t.Fatalf("inner not a map")
	}
	deep, _ := im.GetString("deep")
	if b, _ := deep.AsBool(); !b {
		t.Fatalf("deep flag lost")
	}
}

func TestRecoverySkipsMarkerByteAtOffsetOne(t *testing.T) {
	enc := mustEncode(t, MapValue(NewMap().SetString("token", String("abc"))))
	buf := append([]byte{0xFF}, enc...) // 0xFF decodes as fixint -1
	out := mustDecode(t, buf)
	m, ok := out.AsMap()
	if !ok {
		t.Fatalf("recovery did not produce the map, kind %v", out.Kind())
	}
	tok, _ := m.GetString("token")
	if s, _ := tok.AsString(); s != "abc" {
		t.Fatalf("token %q want %q", s, "abc")
	}
}

func TestRecoveryTriesDeeperOffsets(t *testing.T) {
	enc := mustEncode(t, MapValue(NewMap().SetString("ok", Bool(true))))
	// 0xC1 is the one reserved msgpack code, so offsets 1-3 cannot decode.
	buf := append([]byte{0xFF, 0xC1, 0xC1, 0xC1}, enc...)
	out := mustDecode(t, buf)
	m, ok := out.AsMap()
	if !ok {
		t.Fatalf("recovery at offset 4 failed, kind %v", out.Kind())
	}
	if v, _ := m.GetString("ok"); v.Kind() != KindBool {
		t.Fatalf("unexpected recovered map: %+v", m)
	}
}

func TestRecoveryExhaustedReturnsBareInteger(t *testing.T) {
	buf := []byte{0xFE, 0xC1, 0xC1, 0xC1, 0xC1}
	out := mustDecode(t, buf)
	n, ok := out.AsInt()
	if !ok || n != -2 {
		t.Fatalf("expected bare -2, got %+v", out)
	}
}

func TestLoneNegativeIntIsNotRecovered(t *testing.T) {
	out := mustDecode(t, mustEncode(t, Int(-5)))
	if n, ok := out.AsInt(); !ok || n != -5 {
		t.Fatalf("expected -5, got %+v", out)
	}
}

func TestTruncatedInputFails(t *testing.T) {
	enc := mustEncode(t, MapValue(NewMap().SetString("token", String("abcdef"))))
	if _, err := Decode(enc[:len(enc)-3]); !errors.Is(err, ErrSerialization) {
		t.Fatalf("expected ErrSerialization, got %v", err)
	}
}

func TestReservedCodeFails(t *testing.T) {
	if _, err := Decode([]byte{0xC1}); !errors.Is(err, ErrSerialization) {
		t.Fatalf("expected ErrSerialization, got %v", err)
	}
}

func TestEmptyInputFails(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, ErrSerialization) {
		t.Fatalf("expected ErrSerialization, got %v", err)
	}
}
