package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Hussein-Mazeh/PasswordTrainer/internal/config"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/logging"
	"github.com/Hussein-Mazeh/PasswordTrainer/internal/service"
	"github.com/Hussein-Mazeh/PasswordTrainer/store"
)

func main() {
	cfgPath := flag.String("config", "", "config file")
	dir := flag.String("dir", "", "vault directory")
	backend := flag.String("backend", "", "storage backend (file or sqlite)")
	iterations := flag.Uint("iterations", 0, "PBKDF2 iterations for the new vault")
	flag.Parse()

	cfg, err := config.LoadDir(*cfgPath, *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Vault.Backend = *backend
	}
	if *iterations != 0 {
		cfg.Vault.Iterations = uint32(*iterations)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, level)

	b, err := store.Open(cfg.Vault.Backend, cfg.Vault.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open storage: %v\n", err)
		os.Exit(1)
	}
	svc := service.New(b, service.Options{Iterations: cfg.Vault.Iterations, Logger: log})

	ctx := context.Background()
	created, err := svc.Open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open vault: %v\n", err)
		os.Exit(1)
	}
	if !created {
		fmt.Fprintf(os.Stderr, "vault already exists at %s\n", svc.Location())
		os.Exit(1)
	}
	if err := svc.Save(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "save vault: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("empty vault created at %s (%d iterations)\n", svc.Location(), cfg.Vault.Iterations)
	fmt.Println("the master password fingerprint is shown on first unlock")
}
