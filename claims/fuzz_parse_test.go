package claims

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	goFlags "github.com/MrEthical07/goFlags"
)

// FuzzParse feeds arbitrary token strings to Manager.Parse.
// Goal: no panics; every rejection wraps ErrInvalidToken or ErrFlagsClaim.
func FuzzParse(f *testing.F) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		f.Fatal(err)
	}
	reg := goFlags.MustBuild(goFlags.Primitives("None", "Read", "Write")...)
	m, err := NewManager(reg, Config{
		TTL:             5 * time.Minute,
		SigningMethod:   MethodEd25519,
		PrivateKey:      priv,
		PublicKey:       pub,
		Issuer:          "fuzz-test",
		RequireIAT:      true,
		BindFingerprint: true,
	})
	if err != nil {
		f.Fatal(err)
	}

	valid, err := m.Issue("uid1", reg.MustOf("Read", "Write"))
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid)
	f.Add("")
	f.Add("a.b.c")
	f.Add("eyJhbGciOiJub25lIn0.eyJmbGFncyI6IlJlYWQifQ.")
	f.Add(valid[:len(valid)/2])

	f.Fuzz(func(t *testing.T, token string) {
		got, err := m.Parse(token)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) && !errors.Is(err, ErrFlagsClaim) {
				t.Fatalf("unexpected error class: %v", err)
			}
			return
		}
		if got.Flags.Registry() != reg {
			t.Fatal("accepted token decoded against another registry")
		}
	})
}
