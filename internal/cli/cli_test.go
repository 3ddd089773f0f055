package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Hussein-Mazeh/PasswordTrainer/auth"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/cli"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/keyring"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/service"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/vault"
	"github.com/Hussein-Mazeh/PasswordTrainer/store"
)

type memBackend struct {
	snap  *vault.Snapshot
	saves int
}

func (m *memBackend) Load(ctx context.Context) (vault.Snapshot, error) {
	if m.snap == nil {
		return vault.Snapshot{}, store.ErrNotFound
	}
	return *m.snap, nil
}

func (m *memBackend) Save(ctx context.Context, snap vault.Snapshot) error {
	m.saves++
	m.snap = &snap
	return nil
}

func (m *memBackend) Location() string { return "memory" }

// script answers prompts from per-kind queues and returns io.EOF once a
// queue runs dry.
type script struct {
	lines     []string
	passwords []string
	confirms  []bool
	selects   []int

	// beforeSelect runs before every menu answer.
	beforeSelect func()

	passwordPrompts []string
	selectDefaults  []int
	selectItems     [][]string
}

func (s *script) Line(prompt string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	v := s.lines[0]
	s.lines = s.lines[1:]
	return v, nil
}

func (s *script) Password(prompt string) (string, error) {
	s.passwordPrompts = append(s.passwordPrompts, prompt)
	if len(s.passwords) == 0 {
		return "", io.EOF
	}
	v := s.passwords[0]
	s.passwords = s.passwords[1:]
	return v, nil
}

func (s *script) Confirm(prompt string, def bool) (bool, error) {
	if len(s.confirms) == 0 {
		return false, io.EOF
	}
	v := s.confirms[0]
	s.confirms = s.confirms[1:]
	return v, nil
}

func (s *script) Select(prompt string, items []string, def int) (int, error) {
	if s.beforeSelect != nil {
		s.beforeSelect()
	}
	s.selectDefaults = append(s.selectDefaults, def)
	s.selectItems = append(s.selectItems, items)
	if len(s.selects) == 0 {
		return 0, io.EOF
	}
	v := s.selects[0]
	s.selects = s.selects[1:]
	return v, nil
}

type fakeMemory struct {
	fp         string
	remembered []string
}

func (f *fakeMemory) Recall() (string, error) {
	if f.fp == "" {
		return "", keyring.ErrNotFound
	}
	return f.fp, nil
}

func (f *fakeMemory) Remember(fp string) error {
	f.remembered = append(f.remembered, fp)
	f.fp = fp
	return nil
}

func run(t *testing.T, b store.Backend, p cli.Prompter, opts cli.Options) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Prompter = p
	opts.Out = &out
	svc := service.New(b, service.Options{Iterations: 100})
	err := cli.New(svc, opts).Run(context.Background())
	return out.String(), err
}

const (
	selAdd   = 0
	selEdit  = 1
	selTrain = 3
	selList  = 4
	selExit  = 5
)

func TestNewVaultThenTrain(t *testing.T) {
	b := &memBackend{}

	first := &script{
		passwords: []string{"master-pw", "master-pw", "hunter2"},
		lines:     []string{"mail"},
		selects:   []int{selAdd, selExit},
	}
	out, err := run(t, b, first, cli.Options{})
	if err != nil {
		t.Fatalf("first session returned error: %v", err)
	}
	for _, want := range []string{"Creating a storage file for you", "is your check", "Registered passwords: 0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if first.selectDefaults[0] != 0 || len(first.selectItems[0]) != 2 {
		t.Fatalf("empty vault menu: default %d items %v", first.selectDefaults[0], first.selectItems[0])
	}
	if first.selectDefaults[1] != selExit {
		t.Fatalf("expected Exit as later default, got %d", first.selectDefaults[1])
	}
	if b.saves != 1 {
		t.Fatalf("expected one save, got %d", b.saves)
	}

	second := &script{
		passwords: []string{"master-pw", "wrong", "hunter2", ""},
		confirms:  []bool{true},
		selects:   []int{selTrain, selExit},
	}
	out, err = run(t, b, second, cli.Options{})
	if err != nil {
		t.Fatalf("second session returned error: %v", err)
	}
	if second.selectDefaults[0] != selTrain {
		t.Fatalf("expected Train as first default, got %d", second.selectDefaults[0])
	}
	for _, want := range []string{"Registered passwords: 1", "Incorrect, please try again", "Good!", "Empty password, abort training"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if second.passwordPrompts[1] != "Password for mail (leave empty to abort)" {
		t.Fatalf("unexpected training prompt %q", second.passwordPrompts[1])
	}
	if b.saves != 2 {
		t.Fatalf("expected two saves, got %d", b.saves)
	}
}

func seeded(t *testing.T, master string, accounts map[string]string) *memBackend {
	t.Helper()
	v, err := vault.New(100)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	bound := v.Bind(master)
	for account, pw := range accounts {
		if err := bound.StorePassword(account, pw); err != nil {
			t.Fatalf("StorePassword returned error: %v", err)
		}
	}
	snap := v.Snapshot()
	return &memBackend{snap: &snap}
}

func TestEmptyMasterAborts(t *testing.T) {
	b := seeded(t, "m", map[string]string{"mail": "pw"})
	_, err := run(t, b, &script{passwords: []string{""}}, cli.Options{})
	if !errors.Is(err, cli.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if b.saves != 0 {
		t.Fatalf("aborted session must not save, got %d saves", b.saves)
	}
}

func TestUnfamiliarFingerprintAsksAgain(t *testing.T) {
	b := seeded(t, "right", nil)
	p := &script{
		passwords: []string{"wrong", "right", "pw"},
		confirms:  []bool{false, true},
		lines:     []string{"bank"},
		selects:   []int{selAdd, selExit},
	}
	if _, err := run(t, b, p, cli.Options{}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	v, err := vault.FromSnapshot(*b.snap)
	if err != nil {
		t.Fatalf("FromSnapshot returned error: %v", err)
	}
	if err := v.Bind("right").VerifyPassword("bank", "pw"); err != nil {
		t.Fatalf("account should be bound to the accepted master: %v", err)
	}
}

func TestEditUnknownAccount(t *testing.T) {
	b := seeded(t, "m", map[string]string{"mail": "pw"})
	p := &script{
		passwords: []string{"m"},
		confirms:  []bool{true},
		lines:     []string{"ghost"},
		selects:   []int{selEdit, selExit},
	}
	out, err := run(t, b, p, cli.Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(out, "This account does not exist") {
		t.Fatalf("output %q missing unknown account message", out)
	}
}

func TestListAndRemove(t *testing.T) {
	b := seeded(t, "m", map[string]string{"mail": "pw", "bank": "pw2"})
	p := &script{
		passwords: []string{"m"},
		confirms:  []bool{true},
		lines:     []string{"mail"},
		selects:   []int{selList, 2, selExit},
	}
	out, err := run(t, b, p, cli.Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(out, "  bank\n  mail\n") {
		t.Fatalf("output %q missing sorted listing", out)
	}
	// After removing mail one account remains, so Exit is still the last item.
	if len(p.selectItems[2]) != 6 {
		t.Fatalf("unexpected menu %v", p.selectItems[2])
	}
	if _, ok := b.snap.Entries["mail"]; ok {
		t.Fatal("removed account was saved")
	}
}

func TestRemovingLastAccountShrinksMenu(t *testing.T) {
	b := seeded(t, "m", map[string]string{"mail": "pw"})
	p := &script{
		passwords: []string{"m"},
		confirms:  []bool{true},
		lines:     []string{"mail"},
		selects:   []int{2, 1},
	}
	if _, err := run(t, b, p, cli.Options{}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(p.selectItems[1]) != 2 {
		t.Fatalf("expected Add and Exit only, got %v", p.selectItems[1])
	}
	if len(b.snap.Entries) != 0 {
		t.Fatalf("expected empty vault, got %v", b.snap.Entries)
	}
}

func TestInputErrorSkipsSave(t *testing.T) {
	b := seeded(t, "m", nil)
	p := &script{passwords: []string{"m"}, confirms: []bool{true}}
	if _, err := run(t, b, p, cli.Options{}); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if b.saves != 0 {
		t.Fatalf("expected no save, got %d", b.saves)
	}
}

func TestNewMasterMismatchAndEmpty(t *testing.T) {
	b := &memBackend{}
	p := &script{
		passwords: []string{"", "one", "two", "final", "final"},
		selects:   []int{1},
	}
	out, err := run(t, b, p, cli.Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(out, "Master password cannot be empty") || !strings.Contains(out, "Passwords do not match") {
		t.Fatalf("unexpected output %q", out)
	}
	if b.saves != 1 {
		t.Fatalf("expected the new vault to be saved, got %d saves", b.saves)
	}
}

func TestAdvisories(t *testing.T) {
	b := &memBackend{}
	breached := func(ctx context.Context, pw string) (auth.HIBPResult, error) {
		if pw == "password" {
			return auth.HIBPResult{Found: true, Count: 42}, nil
		}
		return auth.HIBPResult{}, nil
	}
	p := &script{
		passwords: []string{"password", "password", "w9#Tq!vR2$mLz7@pXe", "w9#Tq!vR2$mLz7@pXe"},
		confirms:  []bool{false},
		selects:   []int{1},
	}
	out, err := run(t, b, p, cli.Options{Strength: true, Breached: breached})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, want := range []string{"Warning: weak master password", "appeared in 42 known breaches", "is your check"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestBreachCheckFailureIsNotFatal(t *testing.T) {
	failing := func(ctx context.Context, pw string) (auth.HIBPResult, error) {
		return auth.HIBPResult{}, errors.New("offline")
	}
	p := &script{passwords: []string{"m", "m"}, selects: []int{1}}
	out, err := run(t, &memBackend{}, p, cli.Options{Breached: failing})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(out, "Breach check unavailable") {
		t.Fatalf("output %q missing breach notice", out)
	}
}

func TestFingerprintMemory(t *testing.T) {
	b := &memBackend{}
	mem := &fakeMemory{}
	p := &script{passwords: []string{"m", "m"}, selects: []int{1}}
	if _, err := run(t, b, p, cli.Options{Memory: mem}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(mem.remembered) != 1 || len(mem.remembered[0]) != 6 {
		t.Fatalf("expected the new fingerprint to be remembered, got %v", mem.remembered)
	}

	p = &script{passwords: []string{"other"}, confirms: []bool{true}, selects: []int{1}}
	out, err := run(t, b, p, cli.Options{Memory: mem})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(out, "Warning: this vault usually shows "+mem.remembered[0]) {
		t.Fatalf("output %q missing mismatch warning", out)
	}
	if len(mem.remembered) != 1 {
		t.Fatalf("a mismatching fingerprint must not be remembered, got %v", mem.remembered)
	}
}

func TestExitSavesAfterContextCancelled(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	b := store.NewFile(store.Paths{Dir: dir})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &script{
		passwords: []string{"m", "m", "pw"},
		lines:     []string{"alice"},
		selects:   []int{selAdd, selExit},
	}
	p.beforeSelect = func() {
		if len(p.selects) == 1 {
			cancel()
		}
	}

	svc := service.New(b, service.Options{Iterations: 100})
	if err := cli.New(svc, cli.Options{Prompter: p}).Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	snap, err := b.Load(context.Background())
	if err != nil {
		t.Fatalf("vault not saved after Exit: %v", err)
	}
	if _, ok := snap.Entries["alice"]; !ok {
		t.Fatalf("expected alice in saved vault, got %v", snap.Entries)
	}
}

// dirMemory behaves like the keychain: it refuses to remember a fingerprint
// for a directory that does not exist.
type dirMemory struct {
	dir        string
	remembered []string
}

func (d *dirMemory) Recall() (string, error) {
	if len(d.remembered) == 0 {
		return "", keyring.ErrNotFound
	}
	return d.remembered[len(d.remembered)-1], nil
}

func (d *dirMemory) Remember(fp string) error {
	if _, err := os.Stat(d.dir); err != nil {
		return err
	}
	d.remembered = append(d.remembered, fp)
	return nil
}

func TestNewVaultFingerprintRememberedAfterSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	b := store.NewFile(store.Paths{Dir: dir})
	mem := &dirMemory{dir: dir}

	p := &script{passwords: []string{"m", "m"}, selects: []int{1}}
	svc := service.New(b, service.Options{Iterations: 100})
	if err := cli.New(svc, cli.Options{Prompter: p, Memory: mem}).Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(mem.remembered) != 1 || len(mem.remembered[0]) != 6 {
		t.Fatalf("expected the new fingerprint to be remembered, got %v", mem.remembered)
	}
}

func TestAbortedNewVaultRemembersNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vault")
	mem := &dirMemory{dir: dir}
	p := &script{passwords: []string{"m", "m"}}
	svc := service.New(store.NewFile(store.Paths{Dir: dir}), service.Options{Iterations: 100})
	if err := cli.New(svc, cli.Options{Prompter: p, Memory: mem}).Run(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if len(mem.remembered) != 0 {
		t.Fatalf("nothing should be remembered without a saved vault, got %v", mem.remembered)
	}
}
