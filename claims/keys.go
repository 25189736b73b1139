package claims

import (
	"errors"

	"golang.org/x/crypto/argon2"

	goFlags "github.com/MrEthical07/goFlags"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minPassBytes          = 10
	hs256KeyLength uint32 = 32
)

// KeyParams are the argon2id costs used by [DeriveHS256Key].
type KeyParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
}

// DefaultKeyParams returns argon2id costs suitable for deriving a key once at
// startup.
func DefaultKeyParams() KeyParams {
	return KeyParams{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
	}
}

// DeriveHS256Key stretches an operator passphrase into an HS256 secret. The
// salt is the registry fingerprint, so the same passphrase yields different
// keys for different declarations.
func DeriveHS256Key(passphrase string, reg *goFlags.Registry, p KeyParams) ([]byte, error) {
	if reg == nil {
		return nil, goFlags.ErrNoRegistry
	}
	if len(passphrase) < minPassBytes {
		return nil, errors.New("passphrase must be at least 10 bytes")
	}
	if p.Memory < minMemoryKB {
		return nil, errors.New("argon2 memory must be at least 8192 KB")
	}
	if p.Time < minTimeCost {
		return nil, errors.New("argon2 time must be at least 1")
	}
	if p.Parallelism < minParallelism {
		return nil, errors.New("argon2 parallelism must be at least 1")
	}

	fp := reg.Fingerprint()
	salt := append([]byte("goflags-hs256:"), fp[:]...)

	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Parallelism, hs256KeyLength), nil
}
