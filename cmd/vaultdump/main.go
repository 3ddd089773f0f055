package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/Hussein-Mazeh/PasswordTrainer/internal/config"
	"github.com/Hussein-Mazeh/PasswordTrainer/store"
)

func main() {
	cfgPath := flag.String("config", "", "config file")
	dir := flag.String("dir", "", "vault directory")
	backend := flag.String("backend", "", "storage backend (file or sqlite)")
	flag.Parse()

	cfg, err := config.LoadDir(*cfgPath, *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Vault.Backend = *backend
	}

	b, err := store.Open(cfg.Vault.Backend, cfg.Vault.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open storage: %v\n", err)
		os.Exit(1)
	}
	snap, err := b.Load(context.Background())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "no vault at %s\n", b.Location())
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "load vault: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("vault %s (version %d)\n", b.Location(), snap.Version)
	fmt.Printf("  kdf: %s, %d iterations, salt %d bytes, key %d bytes\n",
		snap.KDF.Name, snap.KDF.Iterations, snap.KDF.SaltLen, snap.KDF.KeyLen)
	fmt.Printf("  vault salt (base64): %s\n", base64.StdEncoding.EncodeToString(snap.Salt))
	fmt.Printf("  created %s, updated %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05Z07:00"), snap.UpdatedAt.Format("2006-01-02 15:04:05Z07:00"))

	if len(snap.Entries) == 0 {
		fmt.Println("no credentials stored")
		return
	}

	accounts := make([]string, 0, len(snap.Entries))
	for account := range snap.Entries {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		rec := snap.Entries[account]
		fmt.Printf("%s\n", account)
		fmt.Printf("  salt (base64): %s\n", base64.StdEncoding.EncodeToString(rec.Salt))
		fmt.Printf("  derived key: %d bytes\n", len(rec.Key))
	}
}
