package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"sdam/internal/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if cfg.InputDeviceID != -1 || cfg.OutputDeviceID != -1 {
		t.Error("expected device IDs to default to -1")
	}
	if cfg.DefaultRate != 1.0 {
		t.Errorf("expected default rate 1.0, got %v", cfg.DefaultRate)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := config.Config{
		InputDeviceID:  2,
		OutputDeviceID: 3,
		DefaultRate:    1.5,
		LastSession:    "/home/alice/notes.sdam",
	}

	if err := config.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := config.Load()
	if loaded.InputDeviceID != cfg.InputDeviceID {
		t.Errorf("input device: want %d got %d", cfg.InputDeviceID, loaded.InputDeviceID)
	}
	if loaded.OutputDeviceID != cfg.OutputDeviceID {
		t.Errorf("output device: want %d got %d", cfg.OutputDeviceID, loaded.OutputDeviceID)
	}
	if loaded.DefaultRate != cfg.DefaultRate {
		t.Errorf("default rate: want %v got %v", cfg.DefaultRate, loaded.DefaultRate)
	}
	if loaded.LastSession != cfg.LastSession {
		t.Errorf("last session: want %q got %q", cfg.LastSession, loaded.LastSession)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := config.Load()
	if cfg.DefaultRate != 1.0 {
		t.Errorf("expected default rate from defaults, got %v", cfg.DefaultRate)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "sdam", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json {{{"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Load()
	if cfg.InputDeviceID != -1 {
		t.Errorf("expected default config on corrupt file, got %+v", cfg)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if err := config.Save(config.Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, "sdam", "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}
