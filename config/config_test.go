package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "rules.yaml", cfg.Engine.RulesFile)
	assert.Equal(t, 4, cfg.Engine.DispatchWorkers)
	assert.Equal(t, 256, cfg.Engine.DispatchQueue)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VIGIL_API_PORT", "9090")
	t.Setenv("VIGIL_STORAGE_BACKEND", "sqlite")
	t.Setenv("VIGIL_RULES_FILE", "/etc/vigil/rules.yaml")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/etc/vigil/rules.yaml", cfg.Engine.RulesFile)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := `
api:
  port: 8888
storage:
  backend: sqlite
  sqlite_path: /tmp/vigil-test.db
smtp:
  host: mail.example.com
  from: alerts@example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.API.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/vigil-test.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
	assert.Equal(t, "alerts@example.com", cfg.SMTP.From)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	testCases := []struct {
		name    string
		content string
	}{
		{"bad port", "api:\n  port: 99999\n"},
		{"bad backend", "storage:\n  backend: redis\n"},
		{"bad workers", "engine:\n  dispatch_workers: 0\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tc.content), 0o644))
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
