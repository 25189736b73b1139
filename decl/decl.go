package decl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	goFlags "github.com/MrEthical07/goFlags"
)

var (
	// ErrNoFlags is returned when a document declares no flags.
	ErrNoFlags = errors.New("decl: no flags declared")
	// ErrInvalidEntry is returned for a flag entry that is neither a name nor
	// a {name, alias} mapping.
	ErrInvalidEntry = errors.New("decl: invalid flag entry")
)

// File is the YAML document layout.
type File struct {
	Flags []Entry `yaml:"flags"`
}

// Entry is one item of the flags list.
type Entry struct {
	Name  string
	Alias []string

	isAlias bool
	line    int
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	e.line = node.Line

	switch node.Kind {
	case yaml.ScalarNode:
		e.Name = node.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("%w at line %d", ErrInvalidEntry, node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "name":
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w at line %d: name must be a string", ErrInvalidEntry, val.Line)
			}
			e.Name = val.Value
		case "alias":
			e.isAlias = true
			if err := val.Decode(&e.Alias); err != nil {
				return fmt.Errorf("%w at line %d: alias: %v", ErrInvalidEntry, val.Line, err)
			}
		default:
			return fmt.Errorf("%w at line %d: unknown key %q", ErrInvalidEntry, key.Line, key.Value)
		}
	}
	if e.Name == "" {
		return fmt.Errorf("%w at line %d: missing name", ErrInvalidEntry, node.Line)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (e Entry) MarshalYAML() (any, error) {
	if !e.isAlias {
		return e.Name, nil
	}
	return struct {
		Name  string   `yaml:"name"`
		Alias []string `yaml:"alias,flow"`
	}{e.Name, e.Alias}, nil
}

// Declaration converts e to a registry declaration.
func (e Entry) Declaration() goFlags.Declaration {
	if e.isAlias {
		return goFlags.Alias(e.Name, e.Alias...)
	}
	return goFlags.Primitive(e.Name)
}

// FromDeclaration converts d to a file entry.
func FromDeclaration(d goFlags.Declaration) Entry {
	if d.IsAlias() {
		return Entry{Name: d.Name, Alias: append([]string(nil), d.Of...), isAlias: true}
	}
	return Entry{Name: d.Name}
}

// Load decodes a declaration document from r. It checks the document shape
// only; registry rules such as duplicate names are enforced when the result
// is built.
func Load(r io.Reader) ([]goFlags.Declaration, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoFlags
		}
		return nil, fmt.Errorf("decl: parse: %w", err)
	}
	if len(f.Flags) == 0 {
		return nil, ErrNoFlags
	}

	decls := make([]goFlags.Declaration, len(f.Flags))
	for i, e := range f.Flags {
		decls[i] = e.Declaration()
	}
	return decls, nil
}

// LoadFile is like [Load] for the file at path.
func LoadFile(path string) ([]goFlags.Declaration, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decl: open: %w", err)
	}
	defer fh.Close()

	decls, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return decls, nil
}

// Registry loads the file at path and builds a registry with cfg.
func Registry(path string, cfg goFlags.Config) (*goFlags.Registry, error) {
	decls, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := goFlags.New().WithConfig(cfg).Declare(decls...).Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Marshal renders the declarations of r as a YAML document that [Load]
// reads back into an equivalent registry.
func Marshal(r *goFlags.Registry) ([]byte, error) {
	var f File
	for _, d := range r.Declarations() {
		f.Flags = append(f.Flags, FromDeclaration(d))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("decl: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("decl: encode: %w", err)
	}
	return buf.Bytes(), nil
}
