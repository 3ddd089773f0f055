package vault_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Hussein-Mazeh/PasswordTrainer/internal/vault"
	"github.com/Hussein-Mazeh/PasswordTrainer/krypto"
)

func TestSnapshotRestoresVault(t *testing.T) {
	v := newTestVault(t)
	s := v.Bind("master")
	if err := s.StorePassword("mail", "hunter2"); err != nil {
		t.Fatalf("StorePassword returned error: %v", err)
	}

	restored, err := vault.FromSnapshot(v.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot returned error: %v", err)
	}
	if restored.Iterations() != v.Iterations() {
		t.Fatalf("iterations changed: %d vs %d", restored.Iterations(), v.Iterations())
	}
	rs := restored.Bind("master")
	if rs.Fingerprint() != s.Fingerprint() {
		t.Fatal("fingerprint changed after restore")
	}
	if err := rs.VerifyPassword("mail", "hunter2"); err != nil {
		t.Fatalf("VerifyPassword after restore returned error: %v", err)
	}
}

func TestSnapshotExcludesMasterPassword(t *testing.T) {
	v := newTestVault(t)
	s := v.Bind("super-secret-master")
	if err := s.StorePassword("mail", "pw"); err != nil {
		t.Fatalf("StorePassword returned error: %v", err)
	}

	data, err := json.Marshal(v.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if strings.Contains(string(data), "super-secret-master") {
		t.Fatal("snapshot contains the master password")
	}
	if bytes.Contains(data, []byte(s.Fingerprint())) {
		t.Fatal("snapshot contains the master fingerprint")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	v := newTestVault(t)
	if err := v.Bind("m").StorePassword("mail", "pw"); err != nil {
		t.Fatalf("StorePassword returned error: %v", err)
	}
	snap := v.Snapshot()
	snap.Salt[0] ^= 0xff
	snap.Entries["mail"].Key[0] ^= 0xff

	if err := v.Bind("m").VerifyPassword("mail", "pw"); err != nil {
		t.Fatalf("mutating a snapshot changed the vault: %v", err)
	}
}

func TestFromSnapshotRejectsCorruptData(t *testing.T) {
	valid := func() vault.Snapshot {
		v := newTestVault(t)
		if err := v.Bind("m").StorePassword("mail", "pw"); err != nil {
			t.Fatalf("StorePassword returned error: %v", err)
		}
		return v.Snapshot()
	}

	cases := map[string]func(*vault.Snapshot){
		"version":    func(s *vault.Snapshot) { s.Version = 99 },
		"kdf":        func(s *vault.Snapshot) { s.KDF.Name = "md5" },
		"iterations": func(s *vault.Snapshot) { s.KDF.Iterations = 0 },
		"vault salt": func(s *vault.Snapshot) { s.Salt = s.Salt[:4] },
		"entry key": func(s *vault.Snapshot) {
			s.Entries["mail"] = vault.EntryRecord{Key: []byte{1}, Salt: make([]byte, krypto.SaltLengthBytes)}
		},
		"entry salt": func(s *vault.Snapshot) {
			s.Entries["mail"] = vault.EntryRecord{Key: make([]byte, krypto.KeyLengthBytes)}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			snap := valid()
			mutate(&snap)
			if _, err := vault.FromSnapshot(snap); !errors.Is(err, vault.ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}
