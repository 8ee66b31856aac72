package atom

import (
	"bytes"
	"testing"
)

func TestCompare_VariantPrecedence(t *testing.T) {
	// Boolean < Integer < Float < String < Symbol < ID
	vals := []Atom{
		Boolean(true),
		Integer(0),
		Float(0),
		String("a"),
		MustSymbol(":a"),
		ID("a"),
	}
	for i := 0; i < len(vals)-1; i++ {
		if vals[i].Compare(vals[i+1]) >= 0 {
			t.Errorf("expected %v < %v", vals[i], vals[i+1])
		}
	}
}

func TestCompare_BooleanOrder(t *testing.T) {
	if Boolean(false).Compare(Boolean(true)) >= 0 {
		t.Error("expected false < true")
	}
}

func TestCompare_IntegerNatural(t *testing.T) {
	if Integer(-5).Compare(Integer(3)) >= 0 {
		t.Error("expected -5 < 3")
	}
	if Integer(3).Compare(Integer(-5)) <= 0 {
		t.Error("expected 3 > -5")
	}
}

func TestBytes_IntegerOrderPreserving(t *testing.T) {
	// byte-lex(Bytes(a), Bytes(b)) must agree with Compare(a, b) for fixed-width atoms
	vals := []int32{-2147483648, -100, -1, 0, 1, 100, 2147483647}
	for i := 0; i < len(vals)-1; i++ {
		a, b := Integer(vals[i]), Integer(vals[i+1])
		if bytes.Compare(a.Bytes(), b.Bytes()) >= 0 {
			t.Errorf("Bytes(%d) should byte-lex precede Bytes(%d)", vals[i], vals[i+1])
		}
		if a.Compare(b) >= 0 {
			t.Errorf("Compare(%d, %d) should be negative", vals[i], vals[i+1])
		}
	}
}

func TestBytes_FloatOrderPreserving(t *testing.T) {
	vals := []float64{-1e300, -1.5, -0.0001, 0, 0.0001, 1.5, 1e300}
	for i := 0; i < len(vals)-1; i++ {
		a, b := Float(vals[i]), Float(vals[i+1])
		if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
			t.Errorf("Bytes(%v) should byte-lex precede or equal Bytes(%v)", vals[i], vals[i+1])
		}
	}
}

func TestBytes_TagAssignment(t *testing.T) {
	cases := []struct {
		a    Atom
		want byte
	}{
		{Boolean(true), 0x01},
		{Integer(1), 0x02},
		{Float(1), 0x03},
		{String("x"), 0x04},
		{MustSymbol(":x"), 0x05},
		{ID("x"), 0x06},
	}
	for _, c := range cases {
		if got := c.a.Bytes()[0]; got != c.want {
			t.Errorf("%v: tag = 0x%02x, want 0x%02x", c.a.Kind(), got, c.want)
		}
	}
}

func TestSymbol_RequiresColonPrefix(t *testing.T) {
	if _, err := Symbol("notasymbol"); err == nil {
		t.Error("expected error for symbol without leading ':'")
	}
	if _, err := Symbol(":ok"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestString_NFCNormalization(t *testing.T) {
	// "é" as precomposed (U+00E9) vs "e" + combining acute (U+0065 U+0301)
	// must normalize to the same Atom.
	precomposed := String("café")
	decomposed := String("café")
	if !precomposed.Equal(decomposed) {
		t.Error("expected NFC-equivalent strings to compare equal")
	}
}

func TestEqual_StructuralAcrossVariants(t *testing.T) {
	if Integer(1).Equal(Float(1)) {
		t.Error("Integer(1) must not equal Float(1) — different variants")
	}
}

func TestAsAccessors(t *testing.T) {
	if v, ok := Integer(42).AsInt32(); !ok || v != 42 {
		t.Errorf("AsInt32() = %d, %v", v, ok)
	}
	if _, ok := Integer(42).AsBool(); ok {
		t.Error("AsBool() should fail on an Integer atom")
	}
	if v, ok := ID("abc").AsString(); !ok || v != "abc" {
		t.Errorf("AsString() = %q, %v", v, ok)
	}
}
