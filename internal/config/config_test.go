package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: 127.0.0.1
  rate_limit:
    rps: 0.5
    burst: 1
storage:
  engine: bolt
  path: /tmp/ledger.db
  no_sync: true
chain:
  difficulty: 3
  allow_tamper: true
log:
  level: debug
  format: text
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 0.5, cfg.Server.RateLimit.RPS)
	assert.Equal(t, 1, cfg.Server.RateLimit.Burst)
	assert.Equal(t, EngineBolt, cfg.Storage.Engine)
	assert.Equal(t, "/tmp/ledger.db", cfg.Storage.Path)
	assert.True(t, cfg.Storage.NoSync)
	assert.Equal(t, 3, cfg.Chain.Difficulty)
	assert.True(t, cfg.Chain.AllowTamper)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Storage.NoSync)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "chain:\n  difficulty: 1\n")
	t.Setenv("CHAIN_DIFFICULTY", "4")
	t.Setenv("CHAIN_ALLOW_TAMPER", "1")
	t.Setenv("STORAGE_ENGINE", "BOLT")
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("RATE_LIMIT_RPS", "10")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("STORAGE_NO_SYNC", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Chain.Difficulty)
	assert.True(t, cfg.Chain.AllowTamper)
	assert.Equal(t, EngineBolt, cfg.Storage.Engine)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimit.RPS)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Storage.NoSync)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"negative difficulty": "chain:\n  difficulty: -1\n",
		"huge difficulty":     "chain:\n  difficulty: 65\n",
		"unknown engine":      "storage:\n  engine: rocks\n",
		"bad port":            "server:\n  port: 70000\n",
		"bad yaml":            "chain: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
