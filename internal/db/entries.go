package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MetaRow is the single row describing the vault.
type MetaRow struct {
	Version    int
	KDF        string
	Iterations uint32
	Salt       []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CredentialRow is one stored account credential.
type CredentialRow struct {
	Account    string
	DerivedKey []byte
	Salt       []byte
}

// LoadMeta returns the vault metadata. It returns sql.ErrNoRows when the
// database holds no vault yet.
func LoadMeta(ctx context.Context, d *DB) (MetaRow, error) {
	var m MetaRow
	if d == nil || d.sql == nil {
		return m, fmt.Errorf("database handle is nil")
	}

	err := d.sql.QueryRowContext(ctx,
		`SELECT version, kdf, iterations, salt, created_at, updated_at
		   FROM vault_meta
		  WHERE id = 1`,
	).Scan(&m.Version, &m.KDF, &m.Iterations, &m.Salt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return m, err
		}
		return m, fmt.Errorf("select vault meta: %w", err)
	}
	return m, nil
}

// ListCredentials returns all credential rows ordered by account.
func ListCredentials(ctx context.Context, d *DB) ([]CredentialRow, error) {
	if d == nil || d.sql == nil {
		return nil, fmt.Errorf("database handle is nil")
	}

	rows, err := d.sql.QueryContext(ctx,
		`SELECT account, derived_key, salt FROM credentials ORDER BY account`,
	)
	if err != nil {
		return nil, fmt.Errorf("select credentials: %w", err)
	}
	defer rows.Close()

	var results []CredentialRow
	for rows.Next() {
		var r CredentialRow
		if err := rows.Scan(&r.Account, &r.DerivedKey, &r.Salt); err != nil {
			return nil, fmt.Errorf("scan credential row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential rows: %w", err)
	}

	return results, nil
}

// ReplaceAll overwrites the vault metadata and every credential in a single
// transaction.
func ReplaceAll(ctx context.Context, d *DB, meta MetaRow, creds []CredentialRow) (err error) {
	if d == nil || d.sql == nil {
		return fmt.Errorf("database handle is nil")
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO vault_meta (id, version, kdf, iterations, salt, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     version = excluded.version,
		     kdf = excluded.kdf,
		     iterations = excluded.iterations,
		     salt = excluded.salt,
		     updated_at = excluded.updated_at`,
		meta.Version, meta.KDF, meta.Iterations, meta.Salt, meta.CreatedAt, meta.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert vault meta: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO credentials (account, derived_key, salt) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare credential insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range creds {
		if _, err = stmt.ExecContext(ctx, c.Account, c.DerivedKey, c.Salt); err != nil {
			return fmt.Errorf("insert credential: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
