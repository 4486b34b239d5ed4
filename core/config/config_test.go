package config

import (
	"os"
	"path/filepath"
	"testing"

	"bitsight-connector/core/status"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://api.bitsighttech.com", cfg.API.BaseURL)
	assert.Equal(t, 60, cfg.API.TimeoutSeconds)
	assert.True(t, cfg.API.VerifySSL)
	assert.Equal(t, 100, cfg.API.PageSize)
	assert.Equal(t, "sqlserver", cfg.Database.Driver)
	assert.Equal(t, 1433, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Storage.Enabled)
	assert.True(t, cfg.Ingest.ShowProgress)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"api": {"key": "from-file", "timeout_seconds": 15},
		"database": {"driver": "sqlite", "name": "file.db"}
	}`), 0o600))
	t.Setenv("BITSIGHT_DATABASE_NAME", "env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-key", "", "")
	flags.Bool("insecure-ssl", false, "")
	require.NoError(t, flags.Parse([]string{"--api-key", "from-flag", "--insecure-ssl"}))

	cfg, err := LoadConfig(Options{File: file, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.API.APIKey)
	assert.Equal(t, 15, cfg.API.TimeoutSeconds)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "env.db", cfg.Database.Name)
	assert.False(t, cfg.API.VerifySSL)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BITSIGHT_API_PROXY_URL=http://proxy:3128\n"), 0o600))
	t.Setenv("BITSIGHT_API_PROXY_URL", "")
	require.NoError(t, os.Unsetenv("BITSIGHT_API_PROXY_URL"))

	cfg, err := LoadConfig(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "http://proxy:3128", cfg.API.Proxy.URL)
}

func TestLoadConfig_BadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o600))

	_, err := LoadConfig(Options{File: file})
	assert.True(t, status.Is(err, status.ConfigUnreadable))
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfig(Options{})
	require.NoError(t, err)
	cfg.API.APIKey = "secret"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   status.Code
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "missing key", modify: func(c *Config) { c.API.APIKey = " " }, want: status.AuthAPIKeyMissing},
		{name: "page size", modify: func(c *Config) { c.API.PageSize = 5000 }, want: status.ConfigInvalid},
		{name: "timeout", modify: func(c *Config) { c.API.TimeoutSeconds = 0 }, want: status.ConfigInvalid},
		{name: "driver", modify: func(c *Config) { c.Database.Driver = "oracle" }, want: status.ConfigInvalid},
		{name: "host", modify: func(c *Config) { c.Database.Host = "" }, want: status.ConfigMissing},
		{name: "sqlite needs no host", modify: func(c *Config) {
			c.Database.Driver = "sqlite"
			c.Database.Host = ""
		}},
		{name: "driver case", modify: func(c *Config) { c.Database.Driver = "MSSQL" }},
		{name: "sqlite case", modify: func(c *Config) {
			c.Database.Driver = "SQLite"
			c.Database.Host = ""
		}},
		{name: "log level", modify: func(c *Config) { c.Log.Level = "loud" }, want: status.ConfigInvalid},
		{name: "storage", modify: func(c *Config) {
			c.Storage.Enabled = true
			c.Storage.Endpoint = ""
		}, want: status.ConfigMissing},
		{name: "failure policy", modify: func(c *Config) {
			c.Ingest.FailFast = true
			c.Ingest.MaxFailures = 3
		}, want: status.ConfigConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, status.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig(t)
	cfg.API.APIKey = ""
	cfg.Log.Format = "xml"

	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, status.Is(err, status.AuthAPIKeyMissing))
	assert.Contains(t, err.Error(), "api.key")
	assert.Contains(t, err.Error(), "log.format")
}

func TestStore_SetAndLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "config.json"))
	assert.False(t, store.Exists())

	require.NoError(t, store.Set("api.key", "abc"))
	require.NoError(t, store.Set("api.timeout_seconds", "90"))
	require.NoError(t, store.Set("api.verify_ssl", "false"))
	assert.True(t, store.Exists())

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := LoadConfig(Options{File: store.Path()})
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.API.APIKey)
	assert.Equal(t, 90, cfg.API.TimeoutSeconds)
	assert.False(t, cfg.API.VerifySSL)
}

func TestStore_SetRejects(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.json"))

	err := store.Set("api.colour", "blue")
	assert.True(t, status.Is(err, status.ConfigInvalid))

	err = store.Set("api.timeout_seconds", "soon")
	assert.True(t, status.Is(err, status.ConfigInvalid))
	assert.False(t, store.Exists())
}

func TestStore_ClearKeys(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, store.Set("api.key", "abc"))
	require.NoError(t, store.Set("database.password", "pw"))
	require.NoError(t, store.Set("database.host", "db.local"))

	removed, err := store.ClearKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"api.key", "database.password"}, removed)

	doc, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"api": map[string]any{}, "database": map[string]any{"host": "db.local"}}, doc)

	removed, err = store.ClearKeys()
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestStore_Reset(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, store.Set("api.base_url", "https://example.test"))
	require.NoError(t, store.Reset())

	cfg, err := LoadConfig(Options{File: store.Path()})
	require.NoError(t, err)
	assert.Equal(t, "https://api.bitsighttech.com", cfg.API.BaseURL)
	assert.Equal(t, 60, cfg.API.TimeoutSeconds)
}

func TestRedacted(t *testing.T) {
	cfg := Config{}
	cfg.API.APIKey = "secret"
	cfg.Storage.SecretKey = "s3"

	red := Redacted(cfg)
	assert.Equal(t, "********", red.API.APIKey)
	assert.Equal(t, "********", red.Storage.SecretKey)
	assert.Empty(t, red.Database.Password)
	assert.Equal(t, "secret", cfg.API.APIKey)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "api.proxy.url")
	assert.Contains(t, keys, "ingest.max_failures")
	for _, key := range secretKeys {
		assert.Contains(t, keys, key)
	}
}

func TestDocument(t *testing.T) {
	cfg := validConfig(t)
	doc, err := Document(*cfg)
	require.NoError(t, err)

	api, ok := doc["api"].(map[string]any)
	require.True(t, ok, "api section is %T", doc["api"])
	assert.Equal(t, "********", api["key"])
	assert.Equal(t, "https://api.bitsighttech.com", api["base_url"])

	proxy, ok := api["proxy"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, proxy, "url")
}
