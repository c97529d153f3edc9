package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go_hoover", "config.toml")

	c, err := loadUserConfig(path)
	require.NoError(t, err)
	assert.Empty(t, c.APIKey)

	require.NoError(t, saveUserConfig(path, userConfig{APIKey: "k1", APIKeyFallback: "k2"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	c, err = loadUserConfig(path)
	require.NoError(t, err)
	assert.Equal(t, userConfig{APIKey: "k1", APIKeyFallback: "k2"}, c)
}

func TestLoadUserConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("api_key = "), 0o600))
	_, err := loadUserConfig(path)
	assert.Error(t, err)
}

func TestUserConfigPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if _, err := os.UserConfigDir(); err != nil {
		t.Skip("no user config dir on this platform")
	}
	p, err := userConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config.toml", filepath.Base(p))
	assert.Equal(t, "go_hoover", filepath.Base(filepath.Dir(p)))
}

func TestResolveAPIKey(t *testing.T) {
	c := userConfig{APIKey: "file", APIKeyFallback: "spare"}

	k, fb := resolveAPIKey("flag", c)
	assert.Equal(t, "flag", k)
	assert.Equal(t, "spare", fb)

	k, fb = resolveAPIKey("", c)
	assert.Equal(t, "file", k)
	assert.Equal(t, "spare", fb)

	k, _ = resolveAPIKey("", userConfig{})
	assert.Empty(t, k)
}
