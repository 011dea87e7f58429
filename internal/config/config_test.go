package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultTodoistURL, cfg.Todoist.BaseURL)
	assert.Equal(t, DefaultAnkiConnectURL, cfg.Anki.ConnectURL)
	assert.True(t, cfg.Anki.Enabled)
	assert.Equal(t, DefaultDailyFolder, cfg.Obsidian.DailyFolder)
	assert.Equal(t, DefaultHealthTimeout, cfg.HealthTimeout)
	assert.Equal(t, "google_calendar_token.json", filepath.Base(cfg.Calendar.TokenFile))
	assert.False(t, cfg.TodoistConfigured())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"TODOIST_API_TOKEN":                "tok",
		"ANKI_CONNECT_URL":                 "http://anki:8765",
		"ANKI_ENABLED":                     "false",
		"OBSIDIAN_VAULT_PATH":              "/vault",
		"OBSIDIAN_DAILY_FOLDER":            "Journal",
		"GOOGLE_CALENDAR_CREDENTIALS_FILE": "/creds.json",
		"GOOGLE_CALENDAR_TOKEN_FILE":       "/token.json",
		"BIRD_HEALTH_TIMEOUT":              "2s",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.TodoistConfigured())
	assert.Equal(t, "http://anki:8765", cfg.Anki.ConnectURL)
	assert.False(t, cfg.Anki.Enabled)
	assert.Equal(t, "/vault", cfg.Obsidian.VaultPath)
	assert.Equal(t, "Journal", cfg.Obsidian.DailyFolder)
	assert.Equal(t, "/creds.json", cfg.Calendar.CredentialsFile)
	assert.Equal(t, "/token.json", cfg.Calendar.TokenFile)
	assert.Equal(t, 2*time.Second, cfg.HealthTimeout)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "anki enabled", env: map[string]string{"ANKI_ENABLED": "maybe"}},
		{name: "health timeout", env: map[string]string{"BIRD_HEALTH_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookup(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	base, err := FromEnv(lookup(nil))
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "vault dir", mutate: func(c *Config) { c.Obsidian.VaultPath = dir }},
		{name: "vault is file", mutate: func(c *Config) { c.Obsidian.VaultPath = file }, wantErr: true},
		{name: "vault missing", mutate: func(c *Config) { c.Obsidian.VaultPath = filepath.Join(dir, "nope") }, wantErr: true},
		{name: "bad anki url", mutate: func(c *Config) { c.Anki.ConnectURL = "localhost:8765" }, wantErr: true},
		{name: "bad anki url ignored when disabled", mutate: func(c *Config) {
			c.Anki.Enabled = false
			c.Anki.ConnectURL = "nope"
		}},
		{name: "zero timeout", mutate: func(c *Config) { c.HealthTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TODOIST_API_TOKEN=from-file\n"), 0o600))

	t.Setenv("TODOIST_API_TOKEN", "from-env")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Todoist.APIToken)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
