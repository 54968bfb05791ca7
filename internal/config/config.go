package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the few knobs the client exposes. It lives at
// <configDir>/config.yaml; a missing file means defaults. Environment
// variables override the file.
type Config struct {
	// SyncWindow is how many recent INBOX messages the local mirror keeps.
	SyncWindow int64 `yaml:"sync_window"`
	// IncludeSpamTrash widens fetches beyond INBOX-proper.
	IncludeSpamTrash bool `yaml:"include_spam_trash"`
	// Verbose switches the log to debug level.
	Verbose bool `yaml:"verbose"`
}

func defaults() Config {
	return Config{SyncWindow: 100}
}

// Dir returns the mailpane config directory (~/.config/mailpane),
// creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "mailpane")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// Load reads config.yaml from configDir, falling back to defaults when
// the file is absent, then applies environment overrides.
func Load(configDir string) (Config, error) {
	cfg := defaults()

	path := filepath.Join(configDir, "config.yaml")
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("open %s: %w", path, err)
	}

	overrideFromEnv(&cfg)

	if cfg.SyncWindow <= 0 {
		cfg.SyncWindow = defaults().SyncWindow
	}
	return cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("MAILPANE_SYNC_WINDOW"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.SyncWindow = n
		}
	}
	if v := os.Getenv("MAILPANE_INCLUDE_SPAM_TRASH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.IncludeSpamTrash = b
		}
	}
	if v := os.Getenv("MAILPANE_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Verbose = b
		}
	}
}
