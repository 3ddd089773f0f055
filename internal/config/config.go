// Package config loads the trainer settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Hussein-Mazeh/PasswordTrainer/internal/logging"
	"github.com/Hussein-Mazeh/PasswordTrainer/krypto"
	"github.com/Hussein-Mazeh/PasswordTrainer/store"
)

// Environment variables read by Load.
const (
	EnvConfig   = "PWTRAINER_CONFIG"
	EnvDir      = "PWTRAINER_DIR"
	EnvBackend  = "PWTRAINER_BACKEND"
	EnvLogLevel = "PWTRAINER_LOG_LEVEL"
)

const (
	configFilename = "config.yaml"
	defaultDirName = ".pwtrainer"
)

// Config holds every tunable of the tool.
type Config struct {
	Vault  VaultConfig  `yaml:"vault"`
	Log    LogConfig    `yaml:"log"`
	Checks ChecksConfig `yaml:"checks"`
}

// VaultConfig locates the vault and fixes the cost of new vaults.
type VaultConfig struct {
	Dir        string `yaml:"dir"`
	Backend    string `yaml:"backend"`
	Iterations uint32 `yaml:"iterations"`
}

// LogConfig selects the log verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ChecksConfig toggles the advisory checks run when a master password is set.
type ChecksConfig struct {
	Strength            *bool `yaml:"strength"`
	Breached            *bool `yaml:"breached"`
	RememberFingerprint *bool `yaml:"remember_fingerprint"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Vault: VaultConfig{
			Dir:        defaultDir(),
			Backend:    store.KindFile,
			Iterations: krypto.DefaultIterations,
		},
		Log: LogConfig{Level: "warn"},
		Checks: ChecksConfig{
			Strength:            boolPtr(true),
			Breached:            boolPtr(false),
			RememberFingerprint: boolPtr(true),
		},
	}
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}

func boolPtr(b bool) *bool { return &b }

// Enabled reports the value of an optional toggle, defaulting to false.
func Enabled(b *bool) bool { return b != nil && *b }

// Load resolves the config file (explicit path, then $PWTRAINER_CONFIG, then
// config.yaml inside the vault directory), merges it over the defaults and
// applies environment overrides. A missing file is not an error; an explicit
// path that cannot be read is.
func Load(path string) (Config, error) {
	return LoadDir(path, "")
}

// LoadDir is Load with a vault directory given on the command line. A
// non-empty dir is where config.yaml is looked for and wins over the file
// and the environment.
func LoadDir(path, dir string) (Config, error) {
	cfg := Default()
	ApplyEnvOverrides(&cfg)
	if dir != "" {
		cfg.Vault.Dir = expandHome(dir)
	}

	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		path = filepath.Join(cfg.Vault.Dir, configFilename)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		Merge(&cfg, parsed)
		ApplyEnvOverrides(&cfg)
		if dir != "" {
			cfg.Vault.Dir = dir
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	cfg.Vault.Dir = expandHome(cfg.Vault.Dir)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge copies the set fields of src over dst.
func Merge(dst *Config, src Config) {
	if src.Vault.Dir != "" {
		dst.Vault.Dir = src.Vault.Dir
	}
	if src.Vault.Backend != "" {
		dst.Vault.Backend = src.Vault.Backend
	}
	if src.Vault.Iterations != 0 {
		dst.Vault.Iterations = src.Vault.Iterations
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Checks.Strength != nil {
		dst.Checks.Strength = src.Checks.Strength
	}
	if src.Checks.Breached != nil {
		dst.Checks.Breached = src.Checks.Breached
	}
	if src.Checks.RememberFingerprint != nil {
		dst.Checks.RememberFingerprint = src.Checks.RememberFingerprint
	}
}

// ApplyEnvOverrides applies PWTRAINER_* variables on top of cfg.
func ApplyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDir)); v != "" {
		cfg.Vault.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackend)); v != "" {
		cfg.Vault.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
}

// Validate rejects settings the tool cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Vault.Dir) == "" {
		return errors.New("config: vault.dir is required")
	}
	switch strings.ToLower(c.Vault.Backend) {
	case store.KindFile, store.KindSQLite:
	default:
		return fmt.Errorf("config: unknown vault.backend %q", c.Vault.Backend)
	}
	if c.Vault.Iterations == 0 {
		return errors.New("config: vault.iterations must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func expandHome(dir string) string {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~"))
}

// String renders the effective configuration for debug logs.
func (c Config) String() string {
	return "dir=" + c.Vault.Dir +
		" backend=" + c.Vault.Backend +
		" iterations=" + strconv.FormatUint(uint64(c.Vault.Iterations), 10) +
		" log=" + c.Log.Level
}
