// Package store persists vault snapshots. A snapshot is loaded once when a
// session starts and saved once when it ends.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Hussein-Mazeh/PasswordTrainer/internal/vault"
)

// ErrNotFound is returned by Load when no vault has been saved yet.
var ErrNotFound = errors.New("vault not found")

// Backend loads and saves vault snapshots.
type Backend interface {
	Load(ctx context.Context) (vault.Snapshot, error)
	Save(ctx context.Context, snap vault.Snapshot) error
	Location() string
}

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the backend named kind rooted at dir.
func Open(kind, dir string) (Backend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("vault directory not specified")
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindFile:
		return NewFile(Paths{Dir: dir}), nil
	case KindSQLite:
		return NewSQLite(Paths{Dir: dir}), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
