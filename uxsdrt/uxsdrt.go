// Package uxsdrt is the small runtime that generated uxsdc code links
// against: the three error helpers named in spec.md section 6
// (DFAError, AllError, AttrError), the fixed-width bitset idiom they
// are built on, and the other runtime error constructors the generated
// code calls (DuplicateError, UnrecognizedError, UnexpectedError,
// UnionError, EnumError). This mirrors uxsdcxx's builtin_fn_declarations /
// dfa_error / all_error / attr_error functions, translated into Go's
// (value, error) idiom in place of C++ exceptions.
package uxsdrt

import (
	"fmt"
	"strings"
)

// A Bitset tracks which of a fixed number of positions (attributes or
// child elements of one complex type, known at code-generation time)
// have been seen. It is the Go stand-in for std::bitset<N>.
type Bitset struct {
	n    int
	bits []uint64
}

// NewBitset allocates a Bitset large enough to hold n positions.
func NewBitset(n int) *Bitset {
	return &Bitset{n: n, bits: make([]uint64, (n+63)/64)}
}

// Set marks position i as seen.
func (b *Bitset) Set(i int) {
	b.bits[i/64] |= 1 << uint(i%64)
}

// Get reports whether position i has been seen.
func (b *Bitset) Get(i int) bool {
	return b.bits[i/64]&(1<<uint(i%64)) != 0
}

// SetMask ORs the bits at the given positions into the Bitset. Used to
// fold in the compile-time "optional" or "default" mask before checking
// All, exactly as uxsdcxx ORs in a constant std::bitset mask.
func (b *Bitset) SetMask(positions []int) {
	for _, i := range positions {
		b.Set(i)
	}
}

// All reports whether every one of the n tracked positions is set.
func (b *Bitset) All() bool {
	for i := 0; i < b.n; i++ {
		if !b.Get(i) {
			return false
		}
	}
	return true
}

// DFAError reports that found was encountered while the <xs:choice> or
// <xs:sequence> DFA was in a state with the given legal next tokens. An
// empty expected list means no element may follow in the DFA's current
// state. For uxsdcxx's "end of input" case the generated count functions
// pass "end of input" as found, with the out-edges of the non-accepting
// state they stopped in as expected.
func DFAError(found string, expected []string) error {
	if len(expected) == 0 {
		return fmt.Errorf("unexpected %s: no further elements expected here", found)
	}
	return fmt.Errorf("expected %s, found %s", strings.Join(expected, " or "), found)
}

// AllError reports that an <xs:all> group is missing one or more of its
// required children after folding in the optional-elements mask.
func AllError(state *Bitset, lookup []string) error {
	return fmt.Errorf("didn't find required elements %s", strings.Join(missing(state, lookup), ", "))
}

// AttrError reports that a complex type is missing one or more of its
// required attributes after folding in the optional-attributes mask.
func AttrError(state *Bitset, lookup []string) error {
	return fmt.Errorf("didn't find required attributes %s", strings.Join(missing(state, lookup), ", "))
}

func missing(state *Bitset, lookup []string) []string {
	var out []string
	for i, name := range lookup {
		if !state.Get(i) {
			out = append(out, name)
		}
	}
	return out
}

// DuplicateError reports a repeated element or attribute inside an
// <xs:all> group or attribute list, which permits each member at most
// once.
func DuplicateError(kind, name, parent string) error {
	return fmt.Errorf("duplicate %s %q in <%s>", kind, name, parent)
}

// UnrecognizedError reports a child element or attribute name that does
// not appear in a complex type's token lexer at all.
func UnrecognizedError(kind, name, parent string) error {
	return fmt.Errorf("found unrecognized %s %q of <%s>", kind, name, parent)
}

// UnexpectedError reports an attribute or child element where the type
// declares none at all.
func UnexpectedError(kind, parent string) error {
	return fmt.Errorf("unexpected %s in <%s>", kind, parent)
}

// UnionError reports that no member of a union's declared member types
// could parse a value.
func UnionError(typeName, value string) error {
	return fmt.Errorf("couldn't load a suitable value into union %s from %q", typeName, value)
}

// EnumError reports a string that did not match any member of an
// enumeration.
func EnumError(typeName, value string) error {
	return fmt.Errorf("found unrecognized enum value %q of %s", value, typeName)
}
