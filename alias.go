package goFlags

import (
	"fmt"
	"strings"
)

// ResolveAlias evaluates the named alias to the union of its constituents,
// resolving nested aliases recursively. The value is recomputed on every call.
//
// It fails with [ErrUnknownFlagName] when name is not an alias and with
// [ErrCyclicAlias] when evaluation revisits an alias already on the chain.
func (r *Registry) ResolveAlias(name string) (Set, error) {
	i, ok := r.index(name)
	if !ok || r.decls[i].Kind != KindAlias {
		return r.Zero(), fmt.Errorf("%w: %q is not an alias", ErrUnknownFlagName, name)
	}
	return r.evalAlias(i, nil)
}

func (r *Registry) evalAlias(i int, chain []int) (Set, error) {
	for _, c := range chain {
		if c == i {
			return r.Zero(), fmt.Errorf("%w: %s", ErrCyclicAlias, r.chainString(chain, i))
		}
	}
	chain = append(chain, i)

	acc := r.Zero()
	for _, ref := range r.decls[i].Of {
		j, ok := r.index(ref)
		if !ok {
			return r.Zero(), fmt.Errorf("%w: %q in %q", ErrAliasUndeclared, ref, r.decls[i].Name)
		}
		s, err := r.valueAt(j, chain)
		if err != nil {
			return r.Zero(), err
		}
		acc.bits = orBits(acc.bits, s.bits)
	}
	return acc, nil
}

func (r *Registry) chainString(chain []int, next int) string {
	names := make([]string, 0, len(chain)+1)
	for _, c := range chain {
		names = append(names, r.decls[c].Name)
	}
	names = append(names, r.decls[next].Name)
	return strings.Join(names, " -> ")
}
