package goFlags

import (
	"reflect"
	"sync"
)

// Schema declares the flags of a typed flag set. Implementations are usually
// empty struct types:
//
//	type Perm struct{}
//
//	func (Perm) Declare() []goFlags.Declaration {
//		return []goFlags.Declaration{
//			goFlags.Primitive("None"),
//			goFlags.Primitive("Read"),
//			goFlags.Primitive("Write"),
//		}
//	}
//
// Declare is called once per process, on first use of the type.
type Schema interface {
	Declare() []Declaration
}

var schemas sync.Map // reflect.Type -> *Lazy

// RegistryOf returns the registry of schema S, building it on first use.
func RegistryOf[S Schema]() (*Registry, error) {
	t := reflect.TypeFor[S]()
	if v, ok := schemas.Load(t); ok {
		return v.(*Lazy).Registry()
	}
	v, _ := schemas.LoadOrStore(t, defineFunc(func() []Declaration {
		var s S
		return s.Declare()
	}))
	return v.(*Lazy).Registry()
}

func mustRegistryOf[S Schema]() *Registry {
	r, err := RegistryOf[S]()
	if err != nil {
		panic(err)
	}
	return r
}

// Flags is a flag set whose registry is carried by the type parameter. Its
// zero value is the empty set. Flags values are comparable with == and are
// valid map keys.
//
// Operations that need the registry panic if schema S fails to build; call
// [RegistryOf] at startup to surface that error instead.
type Flags[S Schema] struct {
	bits string
}

func typed[S Schema](s Set) Flags[S] {
	return Flags[S]{bits: s.bits}
}

// FlagOf returns the typed set holding only the named primitive.
func FlagOf[S Schema](name string) (Flags[S], error) {
	s, err := mustRegistryOf[S]().Flag(name)
	return typed[S](s), err
}

// MustFlagOf is like [FlagOf] but panics on error.
func MustFlagOf[S Schema](name string) Flags[S] {
	return typed[S](mustRegistryOf[S]().MustFlag(name))
}

// FlagsOf returns the union of the named primitives and aliases.
func FlagsOf[S Schema](names ...string) (Flags[S], error) {
	s, err := mustRegistryOf[S]().Of(names...)
	return typed[S](s), err
}

// ParseFlags parses a name list with the rules of [Registry.TryParse].
func ParseFlags[S Schema](text string) (Flags[S], error) {
	s, err := mustRegistryOf[S]().TryParse(text)
	return typed[S](s), err
}

// Set returns f as an untyped Set bound to the schema's registry.
func (f Flags[S]) Set() Set {
	return Set{reg: mustRegistryOf[S](), bits: f.bits}
}

// Or returns the union of f and o.
func (f Flags[S]) Or(o Flags[S]) Flags[S] {
	return Flags[S]{bits: orBits(f.bits, o.bits)}
}

// And returns the intersection of f and o.
func (f Flags[S]) And(o Flags[S]) Flags[S] {
	return Flags[S]{bits: andBits(f.bits, o.bits)}
}

// Xor returns the flags set in exactly one of f and o.
func (f Flags[S]) Xor(o Flags[S]) Flags[S] {
	return Flags[S]{bits: xorBits(f.bits, o.bits)}
}

// AndNot returns f with the flags of o cleared.
func (f Flags[S]) AndNot(o Flags[S]) Flags[S] {
	return Flags[S]{bits: andNotBits(f.bits, o.bits)}
}

// Complement returns the declared primitives not in f.
func (f Flags[S]) Complement() Flags[S] {
	return typed[S](f.Set().Complement())
}

// Has reports whether every flag in required is also in f.
func (f Flags[S]) Has(required Flags[S]) bool {
	return containsBits(f.bits, required.bits)
}

// HasAny reports whether f and o share at least one flag.
func (f Flags[S]) HasAny(o Flags[S]) bool {
	return intersects(f.bits, o.bits)
}

// Equal reports whether f and o hold the same flags.
func (f Flags[S]) Equal(o Flags[S]) bool {
	return f.bits == o.bits
}

// Compare orders by numeric value; see [Set.Compare].
func (f Flags[S]) Compare(o Flags[S]) int {
	return compareBits(f.bits, o.bits)
}

// Hash returns a hash consistent with Equal.
func (f Flags[S]) Hash() uint64 {
	return Set{bits: f.bits}.Hash()
}

// IsZero reports whether no flag is set.
func (f Flags[S]) IsZero() bool {
	return f.bits == ""
}

// Names returns the primitive names in f in declaration order.
func (f Flags[S]) Names() []string {
	return f.Set().Flags()
}

// String formats f; see [Set.String].
func (f Flags[S]) String() string {
	return f.Set().String()
}

// MarshalText implements encoding.TextMarshaler.
func (f Flags[S]) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flags[S]) UnmarshalText(text []byte) error {
	parsed, err := ParseFlags[S](string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
