package goFlags

import "strings"

// Kind tags a declaration as a primitive flag or an alias.
type Kind uint8

const (
	// KindPrimitive declarations own a bit position (or, for the first one,
	// the zero value).
	KindPrimitive Kind = iota
	// KindAlias declarations are the OR of earlier declarations.
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Declaration describes one named flag. Of lists the names an alias combines
// and is ignored for primitives.
type Declaration struct {
	Name string
	Kind Kind
	Of   []string
}

// Primitive declares a flag that owns a bit position. The first primitive of
// a registry is the sentinel and stands for "no flags set".
func Primitive(name string) Declaration {
	return Declaration{Name: name, Kind: KindPrimitive}
}

// Primitives declares several primitive flags in order.
func Primitives(names ...string) []Declaration {
	out := make([]Declaration, 0, len(names))
	for _, name := range names {
		out = append(out, Primitive(name))
	}
	return out
}

// Alias declares a flag defined as the bitwise OR of the named flags, which
// must be declared earlier.
func Alias(name string, of ...string) Declaration {
	return Declaration{Name: name, Kind: KindAlias, Of: append([]string(nil), of...)}
}

// IsAlias reports whether d is an alias declaration.
func (d Declaration) IsAlias() bool {
	return d.Kind == KindAlias
}

// String renders d as "Name" or "Name = A | B".
func (d Declaration) String() string {
	if d.Kind != KindAlias {
		return d.Name
	}
	return d.Name + " = " + strings.Join(d.Of, " | ")
}

func (d Declaration) clone() Declaration {
	if d.Of != nil {
		d.Of = append([]string(nil), d.Of...)
	}
	return d
}
