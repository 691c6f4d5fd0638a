package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abilityc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.LLM.Provider)
	assert.Empty(t, cfg.Cache.Backend)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
llm:
  provider: ollama
  model: qwen2.5:14b
  timeout: 45s
cache:
  backend: sqlite
  path: /var/cache/abilityc.db
compiler:
  workers: 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding, "unset keys keep their defaults")
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 8, cfg.Compiler.Workers)
	assert.Equal(t, 600, cfg.Compiler.DescTokens)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "llm:\n  provider: ollama\n")
	t.Setenv("ABILITYC_LLM_PROVIDER", "openai")
	t.Setenv("ABILITYC_LLM_API_KEY", "sk-test")
	t.Setenv("ABILITYC_CACHE_BACKEND", "redis")
	t.Setenv("ABILITYC_COMPILER_WORKERS", "0")
	t.Setenv("ABILITYC_LLM_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("ABILITYC_CACHE_DB", "2")
	t.Setenv("ABILITYC_CACHE_PATH", "/var/cache/abilityc.db")
	t.Setenv("ABILITYC_LOG_OUTPUT_PATH", "stdout")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 2, cfg.Cache.DB)
	assert.Equal(t, "/var/cache/abilityc.db", cfg.Cache.Path)
	assert.Equal(t, "stdout", cfg.Log.OutputPath)
	assert.Equal(t, 1, cfg.Compiler.Workers)
}

func TestLoadIgnoresUnprefixedEnv(t *testing.T) {
	t.Setenv("MODEL", "leaked-model")
	t.Setenv("API_KEY", "leaked-key")
	t.Setenv("PROVIDER", "openai")
	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("DB", "postgres")
	t.Setenv("LEVEL", "debug")
	t.Setenv("WORKERS", "many")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "llm:\n  provder: typo\n"))
	assert.Error(t, err)

	t.Setenv("ABILITYC_COMPILER_WORKERS", "many")
	_, err = Load("")
	assert.Error(t, err)
}
