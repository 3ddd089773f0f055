// Package service exposes the session-level vault operations used by the CLI:
// load or create a vault, bind the master password, manage accounts, drive
// training and save once at the end.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Hussein-Mazeh/PasswordTrainer/internal/logging"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/vault"
	"github.com/Hussein-Mazeh/PasswordTrainer/krypto"
	"github.com/Hussein-Mazeh/PasswordTrainer/store"
)

var (
	// ErrNotOpen is returned before Open succeeded.
	ErrNotOpen = errors.New("vault not open")
	// ErrLocked is returned by operations that need the master password.
	ErrLocked = errors.New("vault locked")
	// ErrAlreadySaved is returned when a save is attempted after the session
	// was already persisted.
	ErrAlreadySaved = errors.New("vault already saved for this session")
)

// Options configures a Service.
type Options struct {
	// Iterations is the PBKDF2 cost for a newly created vault.
	Iterations uint32
	Logger     *slog.Logger
	// VaultOptions are passed to vault.New and vault.FromSnapshot.
	VaultOptions []vault.Option
}

// Service owns one vault for the duration of a session.
type Service struct {
	backend store.Backend
	opts    Options
	log     *slog.Logger

	vault   *vault.Vault
	session *vault.Bound
	saved   bool
}

// New returns a service persisting through backend.
func New(backend store.Backend, opts Options) *Service {
	if opts.Iterations == 0 {
		opts.Iterations = krypto.DefaultIterations
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Service{backend: backend, opts: opts, log: log}
}

// Open loads the stored vault or, when none exists, creates a new one in
// memory. created reports which happened. The new vault is only written by
// Save.
func (s *Service) Open(ctx context.Context) (created bool, err error) {
	snap, err := s.backend.Load(ctx)
	switch {
	case err == nil:
		v, err := vault.FromSnapshot(snap, s.opts.VaultOptions...)
		if err != nil {
			return false, fmt.Errorf("decode vault %s: %w", s.backend.Location(), err)
		}
		s.vault = v
		s.log.Info("vault loaded", "location", s.backend.Location(), "accounts", v.Count(), "iterations", v.Iterations())
		return false, nil
	case errors.Is(err, store.ErrNotFound):
		v, err := vault.New(s.opts.Iterations, s.opts.VaultOptions...)
		if err != nil {
			return false, fmt.Errorf("create vault: %w", err)
		}
		s.vault = v
		s.log.Info("vault created", "location", s.backend.Location(), "iterations", v.Iterations())
		return true, nil
	default:
		return false, fmt.Errorf("load vault: %w", err)
	}
}

// Location describes where the vault is persisted.
func (s *Service) Location() string { return s.backend.Location() }

// Unlock binds master as the session master password, replacing any earlier
// one, and returns its fingerprint. It cannot tell whether master is the
// right one; the caller shows the fingerprint to the user for that.
func (s *Service) Unlock(master string) (string, error) {
	if s.vault == nil {
		return "", ErrNotOpen
	}
	if s.session != nil {
		s.session.Clear()
	}
	s.session = s.vault.Bind(master)
	return s.session.Fingerprint(), nil
}

// Lock forgets the master password.
func (s *Service) Lock() {
	if s.session != nil {
		s.session.Clear()
		s.session = nil
	}
}

// Unlocked reports whether a master password is bound.
func (s *Service) Unlocked() bool { return s.session != nil }

// Fingerprint returns the fingerprint of the bound master password.
func (s *Service) Fingerprint() (string, error) {
	if s.session == nil {
		return "", ErrLocked
	}
	return s.session.Fingerprint(), nil
}

// Count returns the number of stored accounts.
func (s *Service) Count() int {
	if s.vault == nil {
		return 0
	}
	return s.vault.Count()
}

// Contains reports whether account is stored.
func (s *Service) Contains(account string) bool {
	return s.vault != nil && s.vault.Contains(account)
}

// Accounts lists stored accounts in sorted order.
func (s *Service) Accounts() []string {
	if s.vault == nil {
		return nil
	}
	return s.vault.Accounts()
}

// Add stores password for account, overwriting any existing credential.
func (s *Service) Add(account, password string) error {
	if s.session == nil {
		return ErrLocked
	}
	if err := s.session.StorePassword(account, password); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	s.log.Info("password stored", "account", account)
	return nil
}

// Edit replaces the password of an existing account.
func (s *Service) Edit(account, password string) error {
	if s.session == nil {
		return ErrLocked
	}
	if !s.vault.Contains(account) {
		return vault.ErrAccountNotFound
	}
	if err := s.session.StorePassword(account, password); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	s.log.Info("password replaced", "account", account)
	return nil
}

// Remove deletes account. Removing an unknown account succeeds.
func (s *Service) Remove(account string) error {
	if s.vault == nil {
		return ErrNotOpen
	}
	existed := s.vault.Contains(account)
	s.vault.RemovePassword(account)
	s.log.Info("account removed", "account", account, "existed", existed)
	return nil
}

// NextDrill picks the next account to train on. It reports false when the
// vault is empty.
func (s *Service) NextDrill() (string, bool) {
	if s.vault == nil {
		return "", false
	}
	return s.vault.SampleAccount()
}

// Check verifies attempt for account. It returns vault.ErrWrongPassword for
// both a wrong account password and a wrong master password.
func (s *Service) Check(account, attempt string) error {
	if s.session == nil {
		return ErrLocked
	}
	err := s.session.VerifyPassword(account, attempt)
	s.log.Debug("password checked", "account", account, "ok", err == nil)
	return err
}

// Save persists the vault. A session is saved at most once; later calls
// return ErrAlreadySaved.
func (s *Service) Save(ctx context.Context) error {
	if s.vault == nil {
		return ErrNotOpen
	}
	if s.saved {
		return ErrAlreadySaved
	}
	if err := s.backend.Save(ctx, s.vault.Snapshot()); err != nil {
		return fmt.Errorf("save vault %s: %w", s.backend.Location(), err)
	}
	s.saved = true
	s.log.Info("vault saved", "location", s.backend.Location(), "accounts", s.vault.Count())
	return nil
}

// Close forgets the master password. It does not save.
func (s *Service) Close() {
	s.Lock()
}
