// Package fold produces the case-folded keys used for case-insensitive flag
// name lookup.
package fold

import (
	"sync"

	"golang.org/x/text/cases"
)

// cases.Caser keeps transformation state and must not be shared between
// goroutines, so callers borrow one from the pool.
var casers = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// String returns the Unicode case-folded form of s. Two names collide
// case-insensitively iff their folded forms are equal.
func String(s string) string {
	c := casers.Get().(*cases.Caser)
	out := c.String(s)
	casers.Put(c)
	return out
}

// Equal reports whether a and b are equal under Unicode case folding.
func Equal(a, b string) bool {
	if a == b {
		return true
	}
	return String(a) == String(b)
}
