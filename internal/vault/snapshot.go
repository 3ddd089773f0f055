package vault

import (
	"fmt"
	"time"

	"github.com/Hussein-Mazeh/PasswordTrainer/krypto"
)

// SnapshotVersion is the current persisted layout.
const SnapshotVersion = 1

// KDFConfig describes the key-derivation parameters stored with the vault.
type KDFConfig struct {
	Name       string `json:"name"`
	Iterations uint32 `json:"iterations"`
	SaltLen    int    `json:"saltLen"`
	KeyLen     int    `json:"keyLen"`
}

// EntryRecord is the persisted form of a Credential.
type EntryRecord struct {
	Key  []byte `json:"key"`
	Salt []byte `json:"salt"`
}

// Snapshot captures the persisted fields of a vault. It never carries the
// master password.
type Snapshot struct {
	Version   int                    `json:"version"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Salt      []byte                 `json:"salt"`
	KDF       KDFConfig              `json:"kdf"`
	Entries   map[string]EntryRecord `json:"entries"`
}

// Snapshot returns a deep copy of the persisted state.
func (v *Vault) Snapshot() Snapshot {
	s := Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: v.createdAt,
		UpdatedAt: time.Now().UTC(),
		Salt:      append([]byte(nil), v.salt[:]...),
		KDF: KDFConfig{
			Name:       krypto.KDFName,
			Iterations: v.iterations,
			SaltLen:    krypto.SaltLengthBytes,
			KeyLen:     krypto.KeyLengthBytes,
		},
		Entries: make(map[string]EntryRecord, len(v.entries)),
	}
	for account, cred := range v.entries {
		s.Entries[account] = EntryRecord{
			Key:  append([]byte(nil), cred.Key[:]...),
			Salt: append([]byte(nil), cred.Salt[:]...),
		}
	}
	return s
}

// FromSnapshot rebuilds a vault from persisted state.
func FromSnapshot(s Snapshot, opts ...Option) (*Vault, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, s.Version)
	}
	if s.KDF.Name != krypto.KDFName {
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrCorrupt, s.KDF.Name)
	}
	if s.KDF.Iterations == 0 {
		return nil, fmt.Errorf("%w: iterations must be positive", ErrCorrupt)
	}
	if len(s.Salt) != krypto.SaltLengthBytes {
		return nil, fmt.Errorf("%w: vault salt has length %d", ErrCorrupt, len(s.Salt))
	}

	v := newVault(opts)
	v.iterations = s.KDF.Iterations
	v.createdAt = s.CreatedAt
	copy(v.salt[:], s.Salt)

	for account, rec := range s.Entries {
		if len(rec.Key) != krypto.KeyLengthBytes {
			return nil, fmt.Errorf("%w: credential for %q has key length %d", ErrCorrupt, account, len(rec.Key))
		}
		if len(rec.Salt) != krypto.SaltLengthBytes {
			return nil, fmt.Errorf("%w: credential for %q has salt length %d", ErrCorrupt, account, len(rec.Salt))
		}
		var cred Credential
		copy(cred.Key[:], rec.Key)
		copy(cred.Salt[:], rec.Salt)
		v.entries[account] = cred
	}
	return v, nil
}
