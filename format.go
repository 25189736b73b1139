package goFlags

import (
	"strings"
	"time"
)

const listSeparator = ", "

// String returns the comma-and-space separated names of the primitives in s,
// in declaration order, or the sentinel's name when s is empty. Aliases are
// never emitted. A Set{} with no registry prints as "".
func (s Set) String() string {
	if s.reg == nil {
		return ""
	}
	s.reg.metrics.Inc(MetricFormat)
	if s.bits == "" {
		return s.reg.Sentinel()
	}

	var b strings.Builder
	for i, d := range s.reg.decls {
		if !testBit(s.bits, s.reg.bits[i]) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(listSeparator)
		}
		b.WriteString(d.Name)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler using [Set.String].
func (s Set) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The receiver must already
// be bound to a registry, for example through [Registry.Zero].
func (s *Set) UnmarshalText(text []byte) error {
	if s.reg == nil {
		return ErrNoRegistry
	}
	parsed, err := s.reg.TryParse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TryParse parses a comma separated list of flag names. Segments are trimmed
// and matched case-insensitively against primitives and aliases. Empty or
// blank input yields the zero set.
//
// If any segment is empty or unknown the whole parse fails: the zero set is
// returned together with a *[ParseError]. TryParse never panics.
func (r *Registry) TryParse(text string) (Set, error) {
	var start time.Time
	if r.metrics.LatencyEnabled() {
		start = time.Now()
		defer func() { r.metrics.Observe(MetricParseLatency, time.Since(start)) }()
	}

	if strings.TrimSpace(text) == "" {
		r.metrics.Inc(MetricParseSuccess)
		return r.Zero(), nil
	}

	acc := r.Zero()
	index := 0
	for rest := text; ; index++ {
		seg, tail, more := strings.Cut(rest, ",")
		token := strings.TrimSpace(seg)
		if token == "" {
			r.metrics.Inc(MetricParseFailure)
			return r.Zero(), &ParseError{Input: text, Index: index}
		}

		s, err := r.Resolve(token)
		if err != nil {
			r.metrics.Inc(MetricParseFailure)
			return r.Zero(), &ParseError{Input: text, Token: token, Index: index, Err: err}
		}
		acc.bits = orBits(acc.bits, s.bits)

		if !more {
			break
		}
		rest = tail
	}

	r.metrics.Inc(MetricParseSuccess)
	return acc, nil
}

// MustParse is like [Registry.TryParse] but panics on error.
func (r *Registry) MustParse(text string) Set {
	s, err := r.TryParse(text)
	if err != nil {
		panic(err)
	}
	return s
}
