// Package goFlags provides flag enumerations of unbounded width: named flags
// that combine bitwise like a native integer flags enum but are not limited
// to 32 or 64 positions.
//
// A [Registry] is built once from an ordered list of declarations. The first
// primitive is the sentinel for "no flags set"; each later primitive owns the
// next bit. Aliases name a combination of earlier flags and own no bit.
//
//	reg, err := goFlags.New().
//		Primitive("None", "Read", "Write", "Delete").
//		Alias("ReadWrite", "Read", "Write").
//		Build()
//
// Values are immutable [Set]s. They print as the comma separated names of
// their primitives and parse back from the same form, case-insensitively:
//
//	s := reg.MustParse("readwrite")
//	s.String()                        // "Read, Write"
//	s.Has(reg.MustFlag("Write"))      // true
//
// # Typed sets
//
// [Flags] carries its registry in a type parameter, so values need no
// registry pointer and decode directly from JSON or YAML text.
//
// # Architecture boundaries
//
// The name list produced by [Set.String] is the only stable external form.
// Bit positions depend on declaration order and must not be persisted.
// Collaborators (decl, store, claims) use only String and TryParse.
//
// # What this package must NOT do
//
//   - Perform I/O or log.
//   - Mutate a Registry after Build.
//   - Produce bits outside the declared primitives.
package goFlags
