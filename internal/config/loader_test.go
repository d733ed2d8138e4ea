package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("WS_TEST_HOST", "db.internal")

	got := expandEnv("host: ${WS_TEST_HOST:localhost}\nport: ${WS_TEST_PORT:5432}\nkey: ${WS_TEST_UNSET}")
	assert.Equal(t, "host: db.internal\nport: 5432\nkey: ${WS_TEST_UNSET}", got)
}

func TestExpandEnv_EmptyDefault(t *testing.T) {
	assert.Equal(t, "password: ", expandEnv("password: ${WS_TEST_MISSING_PASSWORD:}"))
}

func TestLoadFrom_DefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), `
llm:
  default_provider: local
  providers:
    local:
      model: test-model
entitlement:
  monthly_limit: ${WS_TEST_LIMIT:30}
`)
	writeFile(t, filepath.Join(dir, "config.test.yaml"), `
generation:
  max_parallel: 7
`)
	t.Setenv("APP_ENV", "test")
	t.Setenv("WS_TEST_LIMIT", "12")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Entitlement.MonthlyLimit)
	assert.Equal(t, CountableGenerate, cfg.Entitlement.CountableAction)
	assert.Equal(t, 7, cfg.Generation.MaxParallel)
	assert.Equal(t, 5, cfg.Generation.MaxCount)
	assert.Equal(t, 90*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, "test-model", cfg.LLM.Providers["local"].Model)
	assert.Equal(t, 24*time.Hour, cfg.Cache.Redis.PreviewTTL)
	assert.Equal(t, 8, cfg.Render.PNGMaxPages)
	assert.Empty(t, cfg.Render.PDFFontFiles)
}

func TestLoadFrom_MissingBaseFile(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Entitlement: EntitlementConfig{MonthlyLimit: 30, CountableAction: "download"},
		Generation:  GenerationConfig{MaxCount: 1},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Entitlement.CountableAction = "view"
	assert.Error(t, cfg.Validate())

	cfg.Entitlement.CountableAction = CountableGenerate
	cfg.LLM.DefaultProvider = "missing"
	assert.Error(t, cfg.Validate())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
