package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	dbpkg "github.com/Hussein-Mazeh/PasswordTrainer/internal/db"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/vault"
	"github.com/Hussein-Mazeh/PasswordTrainer/krypto"
)

// SQLite stores the snapshot in vault.db, one row per credential.
type SQLite struct {
	paths Paths
}

// NewSQLite returns a SQLite backend.
func NewSQLite(p Paths) *SQLite {
	return &SQLite{paths: p}
}

// Location returns the database path.
func (s *SQLite) Location() string { return s.paths.DatabasePath() }

func (s *SQLite) open() (*dbpkg.DB, error) {
	database, err := dbpkg.Open(s.paths.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open vault database: %w", err)
	}
	if err := dbpkg.Migrate(database); err != nil {
		dbpkg.Close(database)
		return nil, fmt.Errorf("initialise vault database: %w", err)
	}
	return database, nil
}

// Load reads the vault rows. A missing file or empty database is ErrNotFound.
func (s *SQLite) Load(ctx context.Context) (vault.Snapshot, error) {
	var snap vault.Snapshot

	if _, err := os.Stat(s.paths.DatabasePath()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snap, ErrNotFound
		}
		return snap, fmt.Errorf("stat vault database: %w", err)
	}

	database, err := s.open()
	if err != nil {
		return snap, err
	}
	defer dbpkg.Close(database)

	meta, err := dbpkg.LoadMeta(ctx, database)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return snap, ErrNotFound
		}
		return snap, fmt.Errorf("load vault meta: %w", err)
	}

	rows, err := dbpkg.ListCredentials(ctx, database)
	if err != nil {
		return snap, fmt.Errorf("load credentials: %w", err)
	}

	snap = vault.Snapshot{
		Version:   meta.Version,
		CreatedAt: meta.CreatedAt.UTC(),
		UpdatedAt: meta.UpdatedAt.UTC(),
		Salt:      meta.Salt,
		KDF: vault.KDFConfig{
			Name:       meta.KDF,
			Iterations: meta.Iterations,
			SaltLen:    krypto.SaltLengthBytes,
			KeyLen:     krypto.KeyLengthBytes,
		},
		Entries: make(map[string]vault.EntryRecord, len(rows)),
	}
	for _, r := range rows {
		snap.Entries[r.Account] = vault.EntryRecord{Key: r.DerivedKey, Salt: r.Salt}
	}
	return snap, nil
}

// Save replaces the stored vault with snap in one transaction.
func (s *SQLite) Save(ctx context.Context, snap vault.Snapshot) error {
	if err := s.paths.ensureDir(); err != nil {
		return err
	}

	database, err := s.open()
	if err != nil {
		return err
	}
	defer dbpkg.Close(database)

	meta := dbpkg.MetaRow{
		Version:    snap.Version,
		KDF:        snap.KDF.Name,
		Iterations: snap.KDF.Iterations,
		Salt:       snap.Salt,
		CreatedAt:  snap.CreatedAt,
		UpdatedAt:  snap.UpdatedAt,
	}
	rows := make([]dbpkg.CredentialRow, 0, len(snap.Entries))
	for account, rec := range snap.Entries {
		rows = append(rows, dbpkg.CredentialRow{
			Account:    account,
			DerivedKey: rec.Key,
			Salt:       rec.Salt,
		})
	}

	if err := dbpkg.ReplaceAll(ctx, database, meta, rows); err != nil {
		return fmt.Errorf("save vault: %w", err)
	}
	return nil
}
