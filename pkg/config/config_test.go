package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IMBotPlatform/ShopAssistCore/pkg/ai"
	"github.com/IMBotPlatform/ShopAssistCore/pkg/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
default_model: claude
models:
  - name: kimi
    provider: openai
    api_key: env:KIMI_API_KEY
    model_name: moonshot-v1-8k
    timeout: 30s
  - name: claude
    provider: anthropic
    api_key: env:ANTHROPIC_API_KEY
    model_name: claude-3-5-haiku-latest
    max_tokens: 1024
retry:
  max_attempts: 5
  base_delay: 250ms
rate_limit:
  requests_per_second: 2
storage:
  backend: sqlite
  path: /tmp/shopassist.db
logging:
  level: debug
archive_capacity: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.DefaultModel)
	require.Len(t, cfg.Models, 2)
	assert.Equal(t, 30*time.Second, cfg.Models[0].Timeout)
	assert.Equal(t, ai.ProviderAnthropic, cfg.Models[1].Provider)
	assert.Equal(t, 1024, cfg.Models[1].MaxTokens)
	assert.Equal(t, RetryConfig{MaxAttempts: 5, BaseDelay: 250 * time.Millisecond}, cfg.Retry)
	assert.Equal(t, 1, cfg.RateLimit.Burst)
	assert.Equal(t, storage.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.ArchiveCapacity)
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  development: true\n"))
	require.NoError(t, err)

	assert.Equal(t, "kimi", cfg.DefaultModel)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, storage.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, DefaultDataDir, cfg.Storage.Dir)
	assert.Equal(t, 20, cfg.ArchiveCapacity)
	assert.True(t, cfg.Logging.Development)
}

func TestMemoryBackendKeepsEmptyDir(t *testing.T) {
	cfg, err := Load(writeConfig(t, "storage:\n  backend: memory\n"))
	require.NoError(t, err)
	assert.Equal(t, storage.BackendMemory, cfg.Storage.Backend)
	assert.Empty(t, cfg.Storage.Dir)
}

func TestValidate(t *testing.T) {
	_, err := Load(writeConfig(t, "default_model: gpt\nmodels:\n  - name: kimi\n"))
	assert.ErrorContains(t, err, "default_model")

	_, err = Load(writeConfig(t, "models:\n  - name: kimi\n  - name: kimi\n"))
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ai.DefaultConfig().Models, cfg.Models)
	assert.Equal(t, storage.Config{Backend: storage.BackendFile, Dir: DefaultDataDir}, cfg.Storage,
		"built-in defaults must persist state across restarts")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadOrDefault(writeConfig(t, "models: [oops"))
	assert.Error(t, err)
}
