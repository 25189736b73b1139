package goFlags

import (
	"fmt"
	"strings"

	"github.com/MrEthical07/goFlags/internal/fold"
	"github.com/google/uuid"
)

// SentinelBit is the position BitPosition reports for the sentinel primitive,
// which maps to the zero value rather than to a bit.
const SentinelBit = -1

const aliasBit = -2

// fingerprintNamespace scopes the name-based UUIDs returned by
// [Registry.Fingerprint].
var fingerprintNamespace = uuid.MustParse("6f1d2c8e-4b7a-5e39-9c02-d5a8f3b1e640")

// Registry maps flag names to bit positions. A Registry is immutable once
// built and safe for concurrent use.
//
// Bit positions follow declaration order: the first primitive is the
// sentinel (value zero), the next primitive owns bit 0, the one after bit 1,
// and so on. Aliases occupy a declaration slot but no bit.
type Registry struct {
	decls []Declaration
	bits  []int

	exact  map[string]int
	folded map[string]int

	sentinel    int
	width       int
	domain      string
	fingerprint uuid.UUID
	metrics     *Metrics
}

// Build creates a Registry from an ordered declaration list using
// [DefaultConfig]. See [Builder] for the fluent form.
func Build(decls ...Declaration) (*Registry, error) {
	return build(defaultConfig(), decls, nil)
}

// MustBuild is like [Build] but panics on error. It is intended for
// package-level registries whose declarations are fixed at compile time.
func MustBuild(decls ...Declaration) *Registry {
	r, err := Build(decls...)
	if err != nil {
		panic(err)
	}
	return r
}

func build(cfg Config, decls []Declaration, metrics *Metrics) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &DeclarationError{Index: -1, Err: fmt.Errorf("%w: %v", ErrInvalidConfig, err)}
	}

	r := &Registry{
		decls:    make([]Declaration, 0, len(decls)),
		bits:     make([]int, 0, len(decls)),
		exact:    make(map[string]int, len(decls)),
		folded:   make(map[string]int, len(decls)),
		sentinel: -1,
		metrics:  metrics,
	}

	primitives := 0
	for i, d := range decls {
		d = d.clone()

		if err := validateName(d.Name); err != nil {
			return nil, &DeclarationError{Index: i, Name: d.Name, Err: err}
		}

		key := fold.String(d.Name)
		if prev, exists := r.folded[key]; exists {
			return nil, &DeclarationError{
				Index: i,
				Name:  d.Name,
				Err:   fmt.Errorf("%w: collides with %q", ErrDuplicateName, r.decls[prev].Name),
			}
		}

		var bit int
		switch d.Kind {
		case KindPrimitive:
			bit = primitives - 1
			if cfg.Registry.MaxFlags > 0 && bit >= cfg.Registry.MaxFlags {
				return nil, &DeclarationError{
					Index: i,
					Name:  d.Name,
					Err:   fmt.Errorf("%w: max %d", ErrTooManyFlags, cfg.Registry.MaxFlags),
				}
			}
			if bit == SentinelBit {
				r.sentinel = i
			}
			primitives++
		case KindAlias:
			if len(d.Of) == 0 {
				return nil, &DeclarationError{
					Index: i,
					Name:  d.Name,
					Err:   fmt.Errorf("%w: alias combines no flags", ErrAliasUndeclared),
				}
			}
			// Only earlier declarations are visible, which rules out forward
			// and self references.
			for j, ref := range d.Of {
				idx, ok := r.folded[fold.String(strings.TrimSpace(ref))]
				if !ok {
					return nil, &DeclarationError{
						Index: i,
						Name:  d.Name,
						Err:   fmt.Errorf("%w: %q", ErrAliasUndeclared, ref),
					}
				}
				d.Of[j] = r.decls[idx].Name
			}
			bit = aliasBit
		default:
			return nil, &DeclarationError{
				Index: i,
				Name:  d.Name,
				Err:   fmt.Errorf("%w: %d", ErrInvalidKind, d.Kind),
			}
		}

		r.decls = append(r.decls, d)
		r.bits = append(r.bits, bit)
		r.exact[d.Name] = i
		r.folded[key] = i
	}

	if primitives == 0 {
		return nil, &DeclarationError{Index: -1, Err: ErrNoSentinel}
	}

	r.width = primitives - 1
	r.domain = fillBits(r.width)
	r.fingerprint = fingerprintOf(r.decls)

	return r, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: surrounding whitespace", ErrInvalidName)
	}
	if strings.ContainsRune(name, ',') {
		return fmt.Errorf("%w: contains ','", ErrInvalidName)
	}
	return nil
}

func fingerprintOf(decls []Declaration) uuid.UUID {
	var b strings.Builder
	for _, d := range decls {
		b.WriteString(d.Kind.String())
		b.WriteByte(':')
		b.WriteString(d.Name)
		if d.Kind == KindAlias {
			b.WriteByte('=')
			b.WriteString(strings.Join(d.Of, "|"))
		}
		b.WriteByte('\n')
	}
	return uuid.NewSHA1(fingerprintNamespace, []byte(b.String()))
}

func (r *Registry) index(name string) (int, bool) {
	if i, ok := r.exact[name]; ok {
		return i, true
	}
	i, ok := r.folded[fold.String(name)]
	return i, ok
}

// Lookup returns the declaration for name, matched case-insensitively.
func (r *Registry) Lookup(name string) (Declaration, bool) {
	i, ok := r.index(name)
	if !ok {
		return Declaration{}, false
	}
	return r.decls[i].clone(), true
}

// BitPosition returns the bit offset of the named primitive. The sentinel
// reports [SentinelBit]. Aliases and unknown names report false.
func (r *Registry) BitPosition(name string) (int, bool) {
	i, ok := r.index(name)
	if !ok || r.bits[i] == aliasBit {
		return 0, false
	}
	return r.bits[i], true
}

// Names returns every declared name, primitives and aliases, in declaration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.decls))
	for i, d := range r.decls {
		out[i] = d.Name
	}
	return out
}

// Declarations returns a copy of the declaration list.
func (r *Registry) Declarations() []Declaration {
	out := make([]Declaration, len(r.decls))
	for i, d := range r.decls {
		out[i] = d.clone()
	}
	return out
}

// Sentinel returns the name of the primitive that stands for "no flags set".
func (r *Registry) Sentinel() string {
	return r.decls[r.sentinel].Name
}

// Len returns the number of declarations.
func (r *Registry) Len() int {
	return len(r.decls)
}

// Width returns the number of bit positions, that is the number of primitives
// excluding the sentinel.
func (r *Registry) Width() int {
	return r.width
}

// Fingerprint identifies the declaration list. Registries built from the same
// declarations in the same order share a fingerprint.
func (r *Registry) Fingerprint() uuid.UUID {
	return r.fingerprint
}

// Metrics returns the registry's counters. Registries created with [Build]
// have none; [Metrics] methods accept a nil receiver.
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}
