package goFlags

import (
	"fmt"
	"math/big"

	"github.com/cespare/xxhash/v2"
)

// Set is an immutable flag set of arbitrary width bound to a [Registry].
//
// Every operation returns a new Set. Sets from the same registry compare
// equal with == exactly when their bits are equal, so a Set can be used as a
// map key. The zero Set{} is the empty set of any registry; it combines with
// sets of any registry and adopts theirs.
type Set struct {
	reg  *Registry
	bits string
}

// Zero returns the empty set, which prints as the sentinel's name.
func (r *Registry) Zero() Set {
	return Set{reg: r}
}

// Flag returns the set holding only the named primitive. It fails with
// [ErrUnknownFlagName] when the name is not declared or names an alias; use
// [Registry.Resolve] to accept both.
func (r *Registry) Flag(name string) (Set, error) {
	i, ok := r.index(name)
	if !ok || r.decls[i].Kind != KindPrimitive {
		return r.Zero(), fmt.Errorf("%w: %q", ErrUnknownFlagName, name)
	}
	return Set{reg: r, bits: singleBit(r.bits[i])}, nil
}

// MustFlag is like [Registry.Flag] but panics on error.
func (r *Registry) MustFlag(name string) Set {
	s, err := r.Flag(name)
	if err != nil {
		panic(err)
	}
	return s
}

// Resolve returns the value of a primitive or alias name.
func (r *Registry) Resolve(name string) (Set, error) {
	i, ok := r.index(name)
	if !ok {
		return r.Zero(), fmt.Errorf("%w: %q", ErrUnknownFlagName, name)
	}
	return r.valueAt(i, nil)
}

// Of returns the union of the named primitives and aliases.
func (r *Registry) Of(names ...string) (Set, error) {
	acc := r.Zero()
	for _, name := range names {
		s, err := r.Resolve(name)
		if err != nil {
			return r.Zero(), err
		}
		acc.bits = orBits(acc.bits, s.bits)
	}
	return acc, nil
}

// MustOf is like [Registry.Of] but panics on error.
func (r *Registry) MustOf(names ...string) Set {
	s, err := r.Of(names...)
	if err != nil {
		panic(err)
	}
	return s
}

// All returns the set of every declared primitive.
func (r *Registry) All() Set {
	return Set{reg: r, bits: r.domain}
}

func (r *Registry) valueAt(i int, chain []int) (Set, error) {
	if r.decls[i].Kind == KindAlias {
		return r.evalAlias(i, chain)
	}
	return Set{reg: r, bits: singleBit(r.bits[i])}, nil
}

func pick(a, b Set) *Registry {
	switch {
	case a.reg == nil:
		return b.reg
	case b.reg == nil, a.reg == b.reg:
		return a.reg
	}
	panic(ErrRegistryMismatch)
}

// Or returns the union of s and o.
func (s Set) Or(o Set) Set {
	return Set{reg: pick(s, o), bits: orBits(s.bits, o.bits)}
}

// And returns the intersection of s and o.
func (s Set) And(o Set) Set {
	return Set{reg: pick(s, o), bits: andBits(s.bits, o.bits)}
}

// Xor returns the flags set in exactly one of s and o.
func (s Set) Xor(o Set) Set {
	return Set{reg: pick(s, o), bits: xorBits(s.bits, o.bits)}
}

// AndNot returns s with the flags of o cleared.
func (s Set) AndNot(o Set) Set {
	return Set{reg: pick(s, o), bits: andNotBits(s.bits, o.bits)}
}

// Complement returns the declared primitives not in s. Bits outside the
// registry are never produced.
func (s Set) Complement() Set {
	if s.reg == nil {
		return s
	}
	return Set{reg: s.reg, bits: andNotBits(s.reg.domain, s.bits)}
}

// Has reports whether every flag in required is also in s. Every set has the
// zero set.
func (s Set) Has(required Set) bool {
	pick(s, required)
	return containsBits(s.bits, required.bits)
}

// HasAny reports whether s and o share at least one flag.
func (s Set) HasAny(o Set) bool {
	pick(s, o)
	return intersects(s.bits, o.bits)
}

// Equal reports whether s and o hold the same flags.
func (s Set) Equal(o Set) bool {
	pick(s, o)
	return s.bits == o.bits
}

// Compare orders sets by the numeric value of their bits and returns -1, 0
// or +1. This is a total order; it is not set inclusion.
func (s Set) Compare(o Set) int {
	pick(s, o)
	return compareBits(s.bits, o.bits)
}

// Hash returns a hash of the flags in s. Equal sets hash equally.
func (s Set) Hash() uint64 {
	return xxhash.Sum64String(s.bits)
}

// IsZero reports whether no flag is set.
func (s Set) IsZero() bool {
	return s.bits == ""
}

// Count returns the number of primitives in s.
func (s Set) Count() int {
	return countBits(s.bits)
}

// Flags returns the names of the primitives in s in declaration order. The
// empty set yields no names.
func (s Set) Flags() []string {
	if s.reg == nil || s.bits == "" {
		return nil
	}
	out := make([]string, 0, countBits(s.bits))
	for i, d := range s.reg.decls {
		if testBit(s.bits, s.reg.bits[i]) {
			out = append(out, d.Name)
		}
	}
	return out
}

// Bits returns the underlying integer. Bit positions depend on declaration
// order, so the integer is for inspection only; persist [Set.String] instead.
func (s Set) Bits() *big.Int {
	return new(big.Int).SetBytes([]byte(s.bits))
}

// Registry returns the registry s is bound to, or nil for Set{}.
func (s Set) Registry() *Registry {
	return s.reg
}
