package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Hussein-Mazeh/PasswordTrainer/auth"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/cli"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/config"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/keyring"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/logging"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/service"
	"github.com/Hussein-Mazeh/PasswordTrainer/store"
)

const cliVersion = "0.2.0"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "version":
			fmt.Println(cliVersion)
			return
		case "help":
			printUsage()
			return
		case "fingerprint":
			handleError(runFingerprint(args[1:]))
			return
		}
	}
	handleError(runSession(args))
}

func handleError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		os.Exit(1)
	}
	if errors.Is(err, cli.ErrAborted) {
		fmt.Fprintln(os.Stderr, "aborted")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
	os.Exit(2)
}

// sessionFlags are shared by every command that opens a vault.
type sessionFlags struct {
	config  string
	dir     string
	backend string
}

func (f *sessionFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "config file")
	fs.StringVar(&f.dir, "dir", "", "vault directory")
	fs.StringVar(&f.backend, "backend", "", "storage backend (file or sqlite)")
}

// load reads the configuration and applies the flag overrides on top.
func (f *sessionFlags) load() (config.Config, error) {
	cfg, err := config.LoadDir(f.config, f.dir)
	if err != nil {
		return cfg, userError{msg: fmt.Sprintf("invalid configuration: %v", err)}
	}
	if f.backend != "" {
		cfg.Vault.Backend = f.backend
	}
	if err := cfg.Validate(); err != nil {
		return cfg, userError{msg: fmt.Sprintf("invalid configuration: %v", err)}
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelWarn
	}
	return logging.New(os.Stderr, level)
}

func openService(cfg config.Config, log *slog.Logger) (*service.Service, error) {
	backend, err := store.Open(cfg.Vault.Backend, cfg.Vault.Dir)
	if err != nil {
		return nil, userError{msg: fmt.Sprintf("open storage: %v", err)}
	}
	return service.New(backend, service.Options{
		Iterations: cfg.Vault.Iterations,
		Logger:     log,
	}), nil
}

type keyringMemory struct {
	dir string
}

func (m keyringMemory) Recall() (string, error)  { return keyring.Recall(m.dir) }
func (m keyringMemory) Remember(fp string) error { return keyring.Remember(m.dir, fp) }

func runSession(args []string) error {
	fs := flag.NewFlagSet("pm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var flags sessionFlags
	flags.register(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage()
			return nil
		}
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	cfg, err := flags.load()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	log.Debug("configuration loaded", "config", cfg.String())

	svc, err := openService(cfg, log)
	if err != nil {
		return err
	}

	opts := cli.Options{
		Prompter: cli.NewTerminal(os.Stdin, os.Stdout),
		Out:      os.Stdout,
		Logger:   log,
		Strength: config.Enabled(cfg.Checks.Strength),
	}
	if config.Enabled(cfg.Checks.Breached) {
		opts.Breached = auth.CheckHIBP
	}
	if config.Enabled(cfg.Checks.RememberFingerprint) {
		opts.Memory = keyringMemory{dir: cfg.Vault.Dir}
	}

	return cli.New(svc, opts).Run(context.Background())
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: pm [--config <file>] [--dir <vault-dir>] [--backend file|sqlite]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  version")
	fmt.Fprintln(os.Stderr, "  fingerprint remember|forget|status [--dir <vault-dir>]")
}
