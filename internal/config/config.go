// Package config manages persistent user preferences for the sdam CLI.
// Settings are stored as JSON at os.UserConfigDir()/sdam/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds the preferences the CLI remembers across runs: preferred
// devices, default playback rate, and the last session file opened.
type Config struct {
	InputDeviceID  int     `json:"input_device_id"`
	OutputDeviceID int     `json:"output_device_id"`
	DefaultRate    float64 `json:"default_rate"`
	LastSession    string  `json:"last_session"`
}

// Default returns a Config populated with sensible defaults: system
// default devices and real-time playback.
func Default() Config {
	return Config{
		InputDeviceID:  -1,
		OutputDeviceID: -1,
		DefaultRate:    1.0,
	}
}

// Path returns the absolute path to the config file.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sdam", "config.json"), nil
}

// Load reads the config file and returns it. If the file is missing or
// unreadable, the default config is returned — never an error, since a
// missing preferences file is the expected state on first run.
func Load() Config {
	path, err := Path()
	if err != nil {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default()
	}
	return cfg
}

// Save writes cfg to disk, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
