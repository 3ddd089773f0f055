package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Hussein-Mazeh/PasswordTrainer/internal/vault"
)

const (
	vaultFilename  = "vault.json"
	sqliteFilename = "vault.db"
)

// Paths locates vault artifacts on disk.
type Paths struct {
	Dir string
}

// VaultPath resolves the JSON vault file path.
func (p Paths) VaultPath() string {
	return filepath.Join(p.Dir, vaultFilename)
}

// DatabasePath resolves the SQLite vault path.
func (p Paths) DatabasePath() string {
	return filepath.Join(p.Dir, sqliteFilename)
}

func (p Paths) ensureDir() error {
	if p.Dir == "" {
		return errors.New("vault directory not specified")
	}
	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}
	return nil
}

// File stores the snapshot as a single JSON document.
type File struct {
	paths Paths
}

// NewFile returns a JSON file backend.
func NewFile(p Paths) *File {
	return &File{paths: p}
}

// Location returns the vault file path.
func (f *File) Location() string { return f.paths.VaultPath() }

// Load reads vault.json from disk.
func (f *File) Load(ctx context.Context) (vault.Snapshot, error) {
	var snap vault.Snapshot
	if err := ctx.Err(); err != nil {
		return snap, err
	}

	data, err := os.ReadFile(f.paths.VaultPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snap, ErrNotFound
		}
		return snap, fmt.Errorf("read vault: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode vault: %w", err)
	}
	return snap, nil
}

// Save persists vault.json atomically with restrictive permissions.
func (f *File) Save(ctx context.Context, snap vault.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.paths.ensureDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}

	tmp, err := os.CreateTemp(f.paths.Dir, "vault-*.json")
	if err != nil {
		return fmt.Errorf("create temp vault: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp vault: %w", err)
	}

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp vault: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp vault: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp vault: %w", err)
	}

	if err := os.Rename(tmpPath, f.paths.VaultPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace vault: %w", err)
	}

	return nil
}
