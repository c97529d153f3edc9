package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// userConfig is the per-user settings file written by --setup.
type userConfig struct {
	APIKey         string `toml:"api_key"`
	APIKeyFallback string `toml:"api_key_fallback,omitempty"`
}

// userConfigPath is $XDG_CONFIG_HOME/go_hoover/config.toml (or the platform
// equivalent).
func userConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "go_hoover", "config.toml"), nil
}

// loadUserConfig returns an empty config when the file does not exist.
func loadUserConfig(path string) (userConfig, error) {
	var c userConfig
	if _, err := toml.DecodeFile(path, &c); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return userConfig{}, nil
		}
		return userConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	return c, nil
}

func saveUserConfig(path string, c userConfig) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// resolveAPIKey picks the flag/env value first, then the config file.
func resolveAPIKey(flagKey string, c userConfig) (primary, fallback string) {
	if flagKey != "" {
		return flagKey, c.APIKeyFallback
	}
	return c.APIKey, c.APIKeyFallback
}
