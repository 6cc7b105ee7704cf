package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OUTREACH_API_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "New Chat", cfg.Chat.DefaultTitle)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Server.Storage)
	assert.Equal(t, "localhost:3001", cfg.Server.Address())
	assert.Equal(t, "canned", cfg.Assistant.Provider)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 300, cfg.Server.RateLimit.APIMax)
	assert.Equal(t, 30, cfg.Server.RateLimit.ChatMax)
	assert.Equal(t, time.Minute, cfg.Server.RateLimit.ChatWindow)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"api": {"base_url": "https://file.example/api", "timeout": "5s"},
		"chat": {"default_title": "Untitled"},
		"server": {"port": 9000, "storage": "postgres"},
		"database": {"host": "db.internal"}
	}`), 0o644))

	t.Setenv("OUTREACH_API_URL", "https://env.example/api")
	t.Setenv("OUTREACH_TOKEN", "tok")
	t.Setenv("POSTGRES_PORT", "6543")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example/api", cfg.API.BaseURL)
	assert.Equal(t, "tok", cfg.API.Token)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "Untitled", cfg.Chat.DefaultTitle)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Server.Storage)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
}

func TestLoad_PrefixedEnvReachesNestedKeys(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OUTREACH_LOG_LEVEL", "debug")
	t.Setenv("OUTREACH_ASSISTANT_MODEL", "gpt-4o-mini")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "gpt-4o-mini", cfg.Assistant.Model)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
