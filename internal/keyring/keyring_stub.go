//go:build !darwin

package keyring

// Remember is unavailable on non-macOS platforms.
func Remember(dir, fp string) error {
	if err := validFingerprint(fp); err != nil {
		return err
	}
	return ErrUnsupported
}

// Recall is unavailable on non-macOS platforms.
func Recall(dir string) (string, error) {
	return "", ErrUnsupported
}

// Forget is unavailable on non-macOS platforms.
func Forget(dir string) error {
	return ErrUnsupported
}
