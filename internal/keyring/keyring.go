// Package keyring remembers the master-password fingerprint of a vault
// directory in the OS credential store, so the unlock prompt can point out a
// mismatch. Only the short fingerprint is stored, never the password.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupported signals that no credential store is available on this platform.
	ErrUnsupported = errors.New("fingerprint memory not supported on this platform")
	// ErrNotFound is returned by Recall when nothing was remembered for the vault.
	ErrNotFound = errors.New("no remembered fingerprint")
)

// accountForDirectory canonicalises a vault directory into the key used for
// the credential store item.
func accountForDirectory(directory string) (string, error) {
	directory = strings.TrimSpace(directory)
	if directory == "" {
		return "", errors.New("vault directory is required")
	}

	absolutePath, err := filepath.Abs(directory)
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}

	info, err := os.Stat(absolutePath)
	if err != nil {
		return "", fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", absolutePath)
	}

	if resolved, err := filepath.EvalSymlinks(absolutePath); err == nil && resolved != "" {
		absolutePath = resolved
	}

	return absolutePath, nil
}

func validFingerprint(fp string) error {
	if len(fp) != 6 {
		return fmt.Errorf("fingerprint must be 6 hex characters, got %d", len(fp))
	}
	for _, r := range fp {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return fmt.Errorf("fingerprint %q is not lower-case hex", fp)
		}
	}
	return nil
}
