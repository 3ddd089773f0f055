package krypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLengthBytes is the length of both the vault salt and every account salt.
	SaltLengthBytes = 16
	// KeyLengthBytes matches the SHA-256 digest size.
	KeyLengthBytes = sha256.Size
	// DefaultIterations is the PBKDF2 cost used for new vaults.
	DefaultIterations = 10_000
	// KDFName identifies the derivation in persisted vaults.
	KDFName = "pbkdf2-sha256"
)

// DeriveKeyPBKDF2 derives a KeyLengthBytes key from password and salt with
// PBKDF2-HMAC-SHA256. The password may be empty; the salt may not.
func DeriveKeyPBKDF2(password, salt []byte, iterations uint32) ([]byte, error) {
	if len(salt) == 0 {
		return nil, errors.New("salt is required")
	}
	if iterations == 0 {
		return nil, errors.New("iterations must be positive")
	}

	key := pbkdf2.Key(password, salt, int(iterations), KeyLengthBytes, sha256.New)
	if len(key) != KeyLengthBytes {
		return nil, fmt.Errorf("derived key has unexpected length %d", len(key))
	}
	return key, nil
}

// NewRandomSalt reads SaltLengthBytes from r. A nil r means crypto/rand.
func NewRandomSalt(r io.Reader) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	salt := make([]byte, SaltLengthBytes)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// ConstantTimeEqual compares two secrets without leaking where they differ.
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Zero overwrites buf in place.
func Zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
