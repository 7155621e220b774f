package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHEETMATCH_CONFIG_PATH", writeConfig(t, "{}\n"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
	require.Equal(t, ":memory:", cfg.DB.Path)
	require.Equal(t, "127.0.0.1:8080", cfg.Addr())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9000
  max_upload_bytes: 1024
log:
  level: debug
  format: json
mcp:
  enabled: false
`)
	t.Setenv("SHEETMATCH_CONFIG_PATH", path)
	t.Setenv("SHEETMATCH_SERVER_PORT", "9100")
	t.Setenv("SHEETMATCH_DB_PATH", "/tmp/sheetmatch.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, int64(1024), cfg.Server.MaxUploadBytes)
	require.Equal(t, "/tmp/sheetmatch.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.False(t, cfg.MCP.Enabled)

	t.Setenv("SHEETMATCH_MCP_ENABLED", "true")
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	require.True(t, cfg.MCP.Enabled)
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("SHEETMATCH_CONFIG_PATH", writeConfig(t, "{}\n"))

	t.Setenv("SHEETMATCH_SERVER_PORT", "eighty")
	_, err := Load()
	require.ErrorContains(t, err, "SHEETMATCH_SERVER_PORT")

	t.Setenv("SHEETMATCH_SERVER_PORT", "")
	t.Setenv("SHEETMATCH_MAX_UPLOAD_BYTES", "lots")
	_, err = Load()
	require.ErrorContains(t, err, "SHEETMATCH_MAX_UPLOAD_BYTES")
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("SHEETMATCH_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, ErrInvalidPort},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, ErrInvalidPort},
		{"upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }, ErrInvalidUploadLimit},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, ErrInvalidLogLevel},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidLogFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), tc.err)
		})
	}

	cfg := Default()
	cfg.Log.Level = "WARN"
	require.NoError(t, cfg.Validate())
}
