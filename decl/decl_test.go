package decl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	goFlags "github.com/MrEthical07/goFlags"
)

func handBuilt(t *testing.T) *goFlags.Registry {
	t.Helper()
	r, err := goFlags.New().
		Primitive("None", "Read", "Write").
		Alias("ReadWrite", "Read", "Write").
		Primitive("Delete").
		Alias("Admin", "ReadWrite", "Delete").
		Build()
	require.NoError(t, err)
	return r
}

func TestLoadFileMatchesHandBuiltRegistry(t *testing.T) {
	r, err := Registry(filepath.Join("testdata", "perms.yaml"), goFlags.DefaultConfig())
	require.NoError(t, err)

	want := handBuilt(t)
	require.Equal(t, want.Fingerprint(), r.Fingerprint())
	require.Equal(t, want.Names(), r.Names())

	admin, err := r.TryParse("admin")
	require.NoError(t, err)
	require.Equal(t, "Read, Write, Delete", admin.String())
}

func TestLoadScalarAndMappingPrimitives(t *testing.T) {
	decls, err := Load(strings.NewReader(`
flags:
  - None
  - name: One
  - name: Both
    alias: []
`))
	require.NoError(t, err)

	want := []goFlags.Declaration{
		goFlags.Primitive("None"),
		goFlags.Primitive("One"),
		{Name: "Both", Kind: goFlags.KindAlias},
	}
	if diff := cmp.Diff(want, decls, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("declarations mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want error
	}{
		"empty":        {doc: "", want: ErrNoFlags},
		"no flags":     {doc: "flags: []\n", want: ErrNoFlags},
		"nested list":  {doc: "flags:\n  - [A, B]\n", want: ErrInvalidEntry},
		"unknown key":  {doc: "flags:\n  - name: A\n    bits: 3\n", want: ErrInvalidEntry},
		"missing name": {doc: "flags:\n  - alias: [A]\n", want: ErrInvalidEntry},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.doc))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadRejectsUnknownTopLevelKey(t *testing.T) {
	_, err := Load(strings.NewReader("flags: [None]\nwidth: 8\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "width")
}

func TestRegistryReportsBuildErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("flags: [None, Read, READ]\n"), 0o600))

	_, err := Registry(path, goFlags.DefaultConfig())
	require.ErrorIs(t, err, goFlags.ErrDuplicateName)
	require.Contains(t, err.Error(), path)
}

func TestRegistryRejectsEmptyAlias(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hollow.yaml")
	doc := "flags:\n  - None\n  - Read\n  - name: Both\n    alias: []\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := Registry(path, goFlags.DefaultConfig())
	require.ErrorIs(t, err, goFlags.ErrAliasUndeclared)
	var declErr *goFlags.DeclarationError
	require.ErrorAs(t, err, &declErr)
	require.Equal(t, 2, declErr.Index)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}

func TestMarshalRoundTrip(t *testing.T) {
	want := handBuilt(t)

	raw, err := Marshal(want)
	require.NoError(t, err)
	require.Contains(t, string(raw), "alias: [Read, Write]")

	decls, err := Load(strings.NewReader(string(raw)))
	require.NoError(t, err)
	got, err := goFlags.Build(decls...)
	require.NoError(t, err)
	require.Equal(t, want.Fingerprint(), got.Fingerprint())
}

type perm struct{}

func (perm) Declare() []goFlags.Declaration {
	decls, err := LoadFile(filepath.Join("testdata", "perms.yaml"))
	if err != nil {
		panic(err)
	}
	return decls
}

func TestTypedFlagsInYAMLDocuments(t *testing.T) {
	type grant struct {
		User  string              `yaml:"user"`
		Perms goFlags.Flags[perm] `yaml:"perms"`
	}

	in := grant{User: "alice", Perms: goFlags.MustFlagOf[perm]("Delete").Or(goFlags.MustFlagOf[perm]("Read"))}
	raw, err := yaml.Marshal(in)
	require.NoError(t, err)
	require.Contains(t, string(raw), "Read, Delete")

	var out grant
	require.NoError(t, yaml.Unmarshal(raw, &out))
	require.Equal(t, in, out)

	require.NoError(t, yaml.Unmarshal([]byte("user: bob\nperms: readwrite\n"), &out))
	require.Equal(t, "Read, Write", out.Perms.String())

	err = yaml.Unmarshal([]byte("user: eve\nperms: Root\n"), &out)
	require.ErrorIs(t, err, goFlags.ErrParse)
}
