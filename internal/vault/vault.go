// Package vault holds salted, key-derived account credentials bound to a
// vault salt and a session master password.
package vault

import (
	"crypto/rand"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"sort"
	"time"

	"github.com/Hussein-Mazeh/PasswordTrainer/krypto"
)

// Credential is the only form in which an account password is kept.
type Credential struct {
	Key  [krypto.KeyLengthBytes]byte
	Salt [krypto.SaltLengthBytes]byte
}

// Vault is the persisted aggregate. It never holds the master password;
// see Bind.
type Vault struct {
	iterations uint32
	salt       [krypto.SaltLengthBytes]byte
	entries    map[string]Credential

	createdAt time.Time

	random io.Reader
	pick   func(n int) int
}

// Option customises the randomness sources of a Vault.
type Option func(*Vault)

// WithRandom sets the reader used for vault and account salts.
func WithRandom(r io.Reader) Option {
	return func(v *Vault) {
		if r != nil {
			v.random = r
		}
	}
}

// WithPicker sets the function used by SampleAccount. pick(n) must return a
// value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(v *Vault) {
		if pick != nil {
			v.pick = pick
		}
	}
}

func newVault(opts []Option) *Vault {
	v := &Vault{
		entries: make(map[string]Credential),
		random:  rand.Reader,
		pick:    mrand.IntN,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// New creates an empty vault with a fresh random vault salt.
func New(iterations uint32, opts ...Option) (*Vault, error) {
	if iterations == 0 {
		return nil, fmt.Errorf("%w: iterations must be positive", ErrInvalidConfig)
	}

	v := newVault(opts)
	salt, err := krypto.NewRandomSalt(v.random)
	if err != nil {
		return nil, fmt.Errorf("vault salt: %w", err)
	}
	copy(v.salt[:], salt)
	v.iterations = iterations
	v.createdAt = time.Now().UTC()
	return v, nil
}

// Iterations returns the PBKDF2 cost factor fixed at creation.
func (v *Vault) Iterations() uint32 { return v.iterations }

// Count returns the number of stored accounts.
func (v *Vault) Count() int { return len(v.entries) }

// Contains reports whether account has a stored credential.
func (v *Vault) Contains(account string) bool {
	_, ok := v.entries[account]
	return ok
}

// RemovePassword deletes the credential for account. Removing an unknown
// account is a no-op.
func (v *Vault) RemovePassword(account string) {
	delete(v.entries, account)
}

// Accounts returns the stored account identifiers in sorted order.
func (v *Vault) Accounts() []string {
	out := make([]string, 0, len(v.entries))
	for account := range v.entries {
		out = append(out, account)
	}
	sort.Strings(out)
	return out
}

// SampleAccount picks a stored account uniformly at random. It reports false
// when the vault is empty.
func (v *Vault) SampleAccount() (string, bool) {
	accounts := v.Accounts()
	if len(accounts) == 0 {
		return "", false
	}
	i := v.pick(len(accounts))
	if i < 0 || i >= len(accounts) {
		i = 0
	}
	return accounts[i], true
}

// combinedSalt concatenates vault salt, account salt and master password, in that
// order.
func (v *Vault) combinedSalt(accountSalt []byte, master []byte) []byte {
	out := make([]byte, 0, len(v.salt)+len(accountSalt)+len(master))
	out = append(out, v.salt[:]...)
	out = append(out, accountSalt...)
	out = append(out, master...)
	return out
}

func (v *Vault) derive(password string, salt []byte) ([]byte, error) {
	return krypto.DeriveKeyPBKDF2([]byte(password), salt, v.iterations)
}
