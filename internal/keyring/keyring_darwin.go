//go:build darwin

package keyring

import (
	"fmt"

	keychain "github.com/keybase/go-keychain"
)

const (
	keychainService = "com.pwtrainer.fingerprint"
	keychainLabel   = "Password trainer master fingerprint"
)

// Remember stores fp for the vault directory, replacing any previous value.
// The item is device-local and only readable while the device is unlocked.
func Remember(dir, fp string) error {
	if err := validFingerprint(fp); err != nil {
		return err
	}
	account, err := accountForDirectory(dir)
	if err != nil {
		return err
	}

	item := keychain.NewGenericPassword(keychainService, account, keychainLabel, []byte(fp), "")
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlockedThisDeviceOnly)

	if err := keychain.AddItem(item); err != nil {
		if err == keychain.ErrorDuplicateItem {
			query := keychain.NewGenericPassword(keychainService, account, "", nil, "")
			update := keychain.NewItem()
			update.SetData([]byte(fp))
			if err := keychain.UpdateItem(query, update); err != nil {
				return fmt.Errorf("update remembered fingerprint: %w", err)
			}
			return nil
		}
		return fmt.Errorf("add fingerprint to keychain: %w", err)
	}
	return nil
}

// Recall returns the remembered fingerprint for the vault directory.
func Recall(dir string) (string, error) {
	account, err := accountForDirectory(dir)
	if err != nil {
		return "", err
	}
	data, err := keychain.GetGenericPassword(keychainService, account, "", "")
	if err != nil {
		if err == keychain.ErrorItemNotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read remembered fingerprint: %w", err)
	}
	if len(data) == 0 {
		return "", ErrNotFound
	}
	return string(data), nil
}

// Forget removes the remembered fingerprint. Forgetting an unknown vault is
// not an error.
func Forget(dir string) error {
	account, err := accountForDirectory(dir)
	if err != nil {
		return err
	}
	query := keychain.NewGenericPassword(keychainService, account, "", nil, "")
	if err := keychain.DeleteItem(query); err != nil && err != keychain.ErrorItemNotFound {
		return fmt.Errorf("remove fingerprint from keychain: %w", err)
	}
	return nil
}
