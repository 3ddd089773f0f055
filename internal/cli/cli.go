// Package cli runs the interactive training session on top of the vault
// service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Hussein-Mazeh/PasswordTrainer/auth"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/keyring"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/logging"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/service"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/vault"
)

// ErrAborted is returned when the user leaves the master password prompt
// empty.
var ErrAborted = errors.New("master password entry cancelled")

// Prompter reads answers from the user.
type Prompter interface {
	Line(prompt string) (string, error)
	// Password reads without echo. An empty answer is returned as is.
	Password(prompt string) (string, error)
	Confirm(prompt string, def bool) (bool, error)
	// Select returns the index of the chosen item.
	Select(prompt string, items []string, def int) (int, error)
}

// FingerprintMemory keeps the fingerprint of the master password between
// sessions.
type FingerprintMemory interface {
	Recall() (string, error)
	Remember(fp string) error
}

// BreachChecker looks a candidate master password up in a breach corpus.
type BreachChecker func(ctx context.Context, pw string) (auth.HIBPResult, error)

// Options configures an App.
type Options struct {
	Prompter Prompter
	Out      io.Writer
	Logger   *slog.Logger
	// Strength enables the advisory strength estimate for new master passwords.
	Strength bool
	// Breached is consulted for new master passwords when set.
	Breached BreachChecker
	// Memory is used to recall and remember the master fingerprint when set.
	Memory FingerprintMemory
}

// App is one interactive session.
type App struct {
	svc  *service.Service
	opts Options
	out  io.Writer
	log  *slog.Logger
}

// New returns an App driving svc.
func New(svc *service.Service, opts Options) *App {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &App{svc: svc, opts: opts, out: out, log: log}
}

// Run opens the vault, asks for the master password, runs the menu until the
// user exits and then saves the vault. Nothing is saved when Run fails
// before the user chose Exit; once they did, the vault is saved even if ctx
// was cancelled meanwhile.
func (a *App) Run(ctx context.Context) error {
	created, err := a.svc.Open(ctx)
	if err != nil {
		return err
	}
	defer a.svc.Close()

	var fresh string
	if created {
		fmt.Fprintln(a.out, "Creating a storage file for you")
		if fresh, err = a.setMaster(ctx); err != nil {
			return err
		}
	} else {
		if err := a.unlock(); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.out, "Registered passwords: %d\n", a.svc.Count())
	if err := a.menu(); err != nil {
		return err
	}
	if err := a.svc.Save(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	// The vault directory only exists once the first save went through.
	if fresh != "" {
		a.remember(fresh)
	}
	return nil
}

func (a *App) recall() string {
	if a.opts.Memory == nil {
		return ""
	}
	fp, err := a.opts.Memory.Recall()
	switch {
	case err == nil:
		return fp
	case errors.Is(err, keyring.ErrNotFound), errors.Is(err, keyring.ErrUnsupported):
		return ""
	default:
		a.log.Warn("recall fingerprint", "err", err)
		return ""
	}
}

func (a *App) remember(fp string) {
	if a.opts.Memory == nil {
		return
	}
	if err := a.opts.Memory.Remember(fp); err != nil && !errors.Is(err, keyring.ErrUnsupported) {
		a.log.Warn("remember fingerprint", "err", err)
	}
}

func (a *App) unlock() error {
	remembered := a.recall()
	for {
		master, err := a.opts.Prompter.Password("Master password (leave empty to abort)")
		if err != nil {
			return fmt.Errorf("read master password: %w", err)
		}
		if master == "" {
			return ErrAborted
		}

		fp, err := a.svc.Unlock(master)
		if err != nil {
			return err
		}
		if remembered != "" && remembered != fp {
			fmt.Fprintf(a.out, "Warning: this vault usually shows %s\n", remembered)
		}

		ok, err := a.opts.Prompter.Confirm(fmt.Sprintf("Does %s look familiar?", fp), true)
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if ok {
			if remembered == "" {
				a.remember(fp)
			}
			return nil
		}
	}
}

// setMaster binds a new master password and returns its fingerprint.
func (a *App) setMaster(ctx context.Context) (string, error) {
	for {
		master, err := a.opts.Prompter.Password("Set master password")
		if err != nil {
			return "", fmt.Errorf("read master password: %w", err)
		}
		if master == "" {
			fmt.Fprintln(a.out, "Master password cannot be empty")
			continue
		}
		confirm, err := a.opts.Prompter.Password("Confirm master password")
		if err != nil {
			return "", fmt.Errorf("read confirmation password: %w", err)
		}
		if confirm != master {
			fmt.Fprintln(a.out, "Passwords do not match")
			continue
		}

		if a.advise(ctx, master) {
			keep, err := a.opts.Prompter.Confirm("Keep this master password?", true)
			if err != nil {
				return "", fmt.Errorf("read confirmation: %w", err)
			}
			if !keep {
				continue
			}
		}

		fp, err := a.svc.Unlock(master)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(a.out, "%s is your check\n", fp)
		return fp, nil
	}
}

// advise prints the strength and breach advisories for master and reports
// whether any warning was shown.
func (a *App) advise(ctx context.Context, master string) bool {
	warned := false
	if a.opts.Strength {
		report := auth.Strength(master, nil)
		if report.Weak() {
			warned = true
			fmt.Fprintf(a.out, "Warning: weak master password (score %d/4, cracked in %s)\n", report.Score, report.CrackTime)
			if len(report.Hints) > 0 {
				fmt.Fprintf(a.out, "Consider: %s\n", strings.Join(report.Hints, ", "))
			}
		}
	}
	if a.opts.Breached != nil {
		res, err := a.opts.Breached(ctx, master)
		switch {
		case err != nil:
			a.log.Warn("breach check failed", "err", err)
			fmt.Fprintln(a.out, "Breach check unavailable")
		case res.Found:
			warned = true
			fmt.Fprintf(a.out, "Warning: this password appeared in %d known breaches\n", res.Count)
		}
	}
	return warned
}

type action int

const (
	actionAdd action = iota
	actionEdit
	actionRemove
	actionTrain
	actionList
	actionExit
)

var actionLabels = map[action]string{
	actionAdd:    "Add a new account",
	actionEdit:   "Edit an existing account",
	actionRemove: "Remove an account",
	actionTrain:  "Train passwords",
	actionList:   "List accounts",
	actionExit:   "Exit",
}

// menuItems lists the available actions. Only Add and Exit are offered for
// an empty vault.
func menuItems(count int) []action {
	if count == 0 {
		return []action{actionAdd, actionExit}
	}
	return []action{actionAdd, actionEdit, actionRemove, actionTrain, actionList, actionExit}
}

// defaultAction is Add or Train on the first display and Exit afterwards.
func defaultAction(count int, first bool) action {
	if !first {
		return actionExit
	}
	if count == 0 {
		return actionAdd
	}
	return actionTrain
}

func (a *App) menu() error {
	first := true
	for {
		actions := menuItems(a.svc.Count())
		want := defaultAction(a.svc.Count(), first)
		first = false

		labels := make([]string, len(actions))
		def := 0
		for i, act := range actions {
			labels[i] = actionLabels[act]
			if act == want {
				def = i
			}
		}

		idx, err := a.opts.Prompter.Select("What do you want to do?", labels, def)
		if err != nil {
			return fmt.Errorf("read selection: %w", err)
		}
		if idx < 0 || idx >= len(actions) {
			continue
		}

		switch actions[idx] {
		case actionExit:
			return nil
		case actionAdd:
			err = a.add()
		case actionEdit:
			err = a.edit()
		case actionRemove:
			err = a.remove()
		case actionTrain:
			err = a.train()
		case actionList:
			a.list()
		}
		if err != nil {
			return err
		}
	}
}

func (a *App) accountName() (string, error) {
	name, err := a.opts.Prompter.Line("Account name")
	if err != nil {
		return "", fmt.Errorf("read account name: %w", err)
	}
	return strings.TrimSpace(name), nil
}

// password prompts until a non-empty password is entered.
func (a *App) password() (string, error) {
	for {
		pw, err := a.opts.Prompter.Password("Password")
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		if pw != "" {
			return pw, nil
		}
		fmt.Fprintln(a.out, "Password cannot be empty")
	}
}

func (a *App) add() error {
	name, err := a.accountName()
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Fprintln(a.out, "Account name cannot be empty")
		return nil
	}
	pw, err := a.password()
	if err != nil {
		return err
	}
	return a.svc.Add(name, pw)
}

func (a *App) edit() error {
	name, err := a.accountName()
	if err != nil {
		return err
	}
	if !a.svc.Contains(name) {
		fmt.Fprintln(a.out, "This account does not exist")
		return nil
	}
	pw, err := a.password()
	if err != nil {
		return err
	}
	return a.svc.Edit(name, pw)
}

func (a *App) remove() error {
	name, err := a.accountName()
	if err != nil {
		return err
	}
	return a.svc.Remove(name)
}

func (a *App) list() {
	for _, name := range a.svc.Accounts() {
		fmt.Fprintf(a.out, "  %s\n", name)
	}
}

// train drills random accounts until the user enters an empty password.
func (a *App) train() error {
	for {
		account, ok := a.svc.NextDrill()
		if !ok {
			return nil
		}
		for {
			attempt, err := a.opts.Prompter.Password(fmt.Sprintf("Password for %s (leave empty to abort)", account))
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if attempt == "" {
				fmt.Fprintln(a.out, "Empty password, abort training")
				return nil
			}

			err = a.svc.Check(account, attempt)
			if err == nil {
				fmt.Fprintln(a.out, "Good!")
				break
			}
			if !errors.Is(err, vault.ErrWrongPassword) && !errors.Is(err, vault.ErrAccountNotFound) {
				return err
			}
			fmt.Fprintln(a.out, "Incorrect, please try again")
		}
	}
}
