package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Hussein-Mazeh/PasswordTrainer/internal/cli"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/keyring"
)

func runFingerprint(args []string) error {
	if len(args) == 0 {
		return userError{msg: "missing fingerprint subcommand"}
	}

	switch args[0] {
	case "remember":
		return runFingerprintRemember(args[1:])
	case "forget":
		return runFingerprintForget(args[1:])
	case "status":
		return runFingerprintStatus(args[1:])
	default:
		return userError{msg: "unknown fingerprint subcommand"}
	}
}

func parseFingerprintFlags(name string, args []string) (sessionFlags, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var flags sessionFlags
	flags.register(fs)

	if err := fs.Parse(args); err != nil {
		return flags, userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 0 {
		return flags, userError{msg: "unexpected positional arguments"}
	}
	return flags, nil
}

func unsupported(err error) error {
	if errors.Is(err, keyring.ErrUnsupported) {
		return userError{msg: "remembering fingerprints is only supported on macOS"}
	}
	return err
}

// runFingerprintRemember asks for the master password of an existing vault
// and stores its fingerprint in the keychain, replacing any earlier one.
func runFingerprintRemember(args []string) error {
	flags, err := parseFingerprintFlags("fingerprint remember", args)
	if err != nil {
		return err
	}
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	svc, err := openService(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	created, err := svc.Open(context.Background())
	if err != nil {
		return err
	}
	if created {
		return userError{msg: fmt.Sprintf("no vault found in %s", cfg.Vault.Dir)}
	}
	defer svc.Close()

	prompter := cli.NewTerminal(os.Stdin, os.Stderr)
	master, err := prompter.Password("Master password")
	if err != nil {
		return fmt.Errorf("read master password: %w", err)
	}
	if master == "" {
		return cli.ErrAborted
	}
	fp, err := svc.Unlock(master)
	if err != nil {
		return err
	}
	ok, err := prompter.Confirm(fmt.Sprintf("Remember %s for this vault?", fp), true)
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if !ok {
		return nil
	}

	if err := keyring.Remember(cfg.Vault.Dir, fp); err != nil {
		return unsupported(err)
	}
	fmt.Printf("fingerprint %s remembered for %s\n", fp, cfg.Vault.Dir)
	return nil
}

func runFingerprintForget(args []string) error {
	flags, err := parseFingerprintFlags("fingerprint forget", args)
	if err != nil {
		return err
	}
	cfg, err := flags.load()
	if err != nil {
		return err
	}

	if err := keyring.Forget(cfg.Vault.Dir); err != nil {
		return unsupported(err)
	}
	fmt.Printf("fingerprint forgotten for %s\n", cfg.Vault.Dir)
	return nil
}

func runFingerprintStatus(args []string) error {
	flags, err := parseFingerprintFlags("fingerprint status", args)
	if err != nil {
		return err
	}
	cfg, err := flags.load()
	if err != nil {
		return err
	}

	fp, err := keyring.Recall(cfg.Vault.Dir)
	switch {
	case err == nil:
		fmt.Printf("%s: %s\n", cfg.Vault.Dir, fp)
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Printf("%s: no fingerprint remembered\n", cfg.Vault.Dir)
	default:
		return unsupported(err)
	}
	return nil
}
