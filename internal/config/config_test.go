package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncWindow != 100 {
		t.Errorf("SyncWindow = %d; want default 100", cfg.SyncWindow)
	}
	if cfg.IncludeSpamTrash || cfg.Verbose {
		t.Errorf("booleans should default false, got %+v", cfg)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := "sync_window: 25\ninclude_spam_trash: true\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncWindow != 25 || !cfg.IncludeSpamTrash {
		t.Errorf("file values not applied: %+v", cfg)
	}

	t.Setenv("MAILPANE_SYNC_WINDOW", "7")
	t.Setenv("MAILPANE_VERBOSE", "true")
	cfg, err = Load(dir)
	if err != nil {
		t.Fatalf("Load with env: %v", err)
	}
	if cfg.SyncWindow != 7 {
		t.Errorf("env override not applied, SyncWindow = %d", cfg.SyncWindow)
	}
	if !cfg.Verbose {
		t.Error("env override not applied for Verbose")
	}
}

func TestLoad_InvalidWindowFallsBack(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("sync_window: -3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncWindow != 100 {
		t.Errorf("SyncWindow = %d; want default 100", cfg.SyncWindow)
	}
}
