package goFlags

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateName is returned by Build when two declarations share a name
	// under case-insensitive comparison.
	ErrDuplicateName = errors.New("duplicate flag name")
	// ErrAliasUndeclared is returned by Build when an alias references a flag
	// that is not declared before it.
	ErrAliasUndeclared = errors.New("alias references undeclared flag")
	// ErrCyclicAlias is returned when alias evaluation revisits a name already
	// being evaluated.
	ErrCyclicAlias = errors.New("cyclic alias")
	// ErrInvalidName is returned by Build for names that cannot round-trip
	// through the name-list form.
	ErrInvalidName = errors.New("invalid flag name")
	// ErrInvalidKind is returned by Build for a declaration with an unknown kind.
	ErrInvalidKind = errors.New("invalid declaration kind")
	// ErrNoSentinel is returned by Build when no primitive flag is declared.
	ErrNoSentinel = errors.New("no primitive flag declared")
	// ErrInvalidConfig is returned by Build when Config.Validate fails.
	ErrInvalidConfig = errors.New("invalid registry config")
	// ErrTooManyFlags is returned by Build when the primitive count exceeds
	// RegistryConfig.MaxFlags.
	ErrTooManyFlags = errors.New("flag limit exceeded")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")

	// ErrUnknownFlagName is returned when code references a flag that does not
	// exist, or references an alias where a primitive is required.
	ErrUnknownFlagName = errors.New("unknown flag name")
	// ErrRegistryMismatch is the panic value when sets from two different
	// registries are combined.
	ErrRegistryMismatch = errors.New("flag sets belong to different registries")
	// ErrNoRegistry is returned when text is unmarshaled into a Set that is not
	// bound to a registry.
	ErrNoRegistry = errors.New("flag set has no registry")

	// ErrParse is wrapped by every *ParseError.
	ErrParse = errors.New("flag parse error")
)

// DeclarationError reports the declaration that aborted a registry build.
// Index is -1 when the failure concerns the list as a whole.
type DeclarationError struct {
	Index int
	Name  string
	Err   error
}

func (e *DeclarationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("flag declarations: %v", e.Err)
	}
	return fmt.Sprintf("flag declaration %d (%q): %v", e.Index, e.Name, e.Err)
}

func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// ParseError reports the first segment of a name list that did not match a
// declared flag. Index is the zero-based segment position.
type ParseError struct {
	Input string
	Token string
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse flags %q: empty segment %d", e.Input, e.Index)
	}
	return fmt.Sprintf("parse flags %q: unknown flag %q at segment %d", e.Input, e.Token, e.Index)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}
