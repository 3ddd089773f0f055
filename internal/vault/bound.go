package vault

import (
	"encoding/hex"
	"fmt"

	"github.com/Hussein-Mazeh/PasswordTrainer/krypto"
)

// fingerprintBytes is the number of derived bytes shown to the user.
// Three bytes give 2^24 possible tags, so two different master passwords
// collide with probability about 6e-8; only a mismatch is a strong signal.
const fingerprintBytes = 3

// Bound is a vault together with the master password of the current session.
// Storing, verifying and fingerprinting all need it.
type Bound struct {
	v      *Vault
	master []byte
}

// Bind returns a session handle for master. The master password is not
// validated here and is never part of a Snapshot. Binding again with another
// value yields an independent handle.
func (v *Vault) Bind(master string) *Bound {
	return &Bound{v: v, master: []byte(master)}
}

// Vault returns the underlying vault.
func (b *Bound) Vault() *Vault { return b.v }

// StorePassword derives and stores a credential for account, replacing any
// previous one along with its salt.
func (b *Bound) StorePassword(account, password string) error {
	accountSalt, err := krypto.NewRandomSalt(b.v.random)
	if err != nil {
		return fmt.Errorf("account salt: %w", err)
	}

	key, err := b.v.derive(password, b.v.combinedSalt(accountSalt, b.master))
	if err != nil {
		return fmt.Errorf("derive credential: %w", err)
	}
	defer krypto.Zero(key)

	var cred Credential
	copy(cred.Key[:], key)
	copy(cred.Salt[:], accountSalt)
	b.v.entries[account] = cred
	return nil
}

// VerifyPassword checks attempted against the stored credential for account.
// A wrong master password yields ErrWrongPassword just like a wrong account
// password.
func (b *Bound) VerifyPassword(account, attempted string) error {
	cred, ok := b.v.entries[account]
	if !ok {
		return ErrAccountNotFound
	}

	key, err := b.v.derive(attempted, b.v.combinedSalt(cred.Salt[:], b.master))
	if err != nil {
		return fmt.Errorf("derive credential: %w", err)
	}
	defer krypto.Zero(key)

	if !krypto.ConstantTimeEqual(key, cred.Key[:]) {
		return ErrWrongPassword
	}
	return nil
}

// Fingerprint derives a key from the master password with the vault salt
// alone and returns its first bytes as lower-case hex.
func (b *Bound) Fingerprint() string {
	key, err := krypto.DeriveKeyPBKDF2(b.master, b.v.salt[:], b.v.iterations)
	if err != nil {
		return ""
	}
	defer krypto.Zero(key)
	return hex.EncodeToString(key[:fingerprintBytes])
}

// Clear overwrites the in-memory master password. The handle must not be
// used afterwards.
func (b *Bound) Clear() {
	krypto.Zero(b.master)
	b.master = nil
}
