package uxsdrt

import "testing"

func TestBitsetAllWithMask(t *testing.T) {
	b := NewBitset(3)
	b.Set(0)
	if b.All() {
		t.Fatal("expected All() false before mask applied")
	}
	// position 1 and 2 are "optional" and so always considered satisfied
	b.SetMask([]int{1, 2})
	if !b.All() {
		t.Fatal("expected All() true once optional mask folded in")
	}
}

func TestAllErrorListsMissing(t *testing.T) {
	b := NewBitset(3)
	b.Set(0)
	lookup := []string{"a", "b", "c"}
	err := AllError(b, lookup)
	want := `didn't find required elements b, c`
	if err.Error() != want {
		t.Errorf("AllError() = %q, want %q", err.Error(), want)
	}
}

func TestDFAErrorEndOfInput(t *testing.T) {
	err := DFAError("end of input", nil)
	if err == nil {
		t.Fatal("expected non-nil error")
	}
}
