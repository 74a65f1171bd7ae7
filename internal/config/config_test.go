package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "https://api.example.test"
  timeout: 3s
firebase:
  project_id: "kyc-test"
  use_emulator: true
redis_connection:
  db: 2
  max_retries: 3
  dial_timeout: 5s
http_server:
  timeouthttp: 30s
  idle_timeout: 90s
session:
  cookie_name: "sid"
  login_burst: 10
rabbitmq:
  exchange: "audit"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.TimeoutAPI)
	assert.Equal(t, 2, cfg.DB)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 30*time.Second, cfg.TimeoutHTTP)
	assert.Equal(t, 90*time.Second, cfg.IdleTimeout)
	assert.Equal(t, "sid", cfg.CookieName)
	assert.Equal(t, 10, cfg.LoginBurst)
	assert.Equal(t, "audit", cfg.Exchange)
}

func TestLoad_DefaultValues(t *testing.T) {
	path := writeConfig(t, `
api:
  timeout: 1s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "kyc_session", cfg.CookieName)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 5, cfg.LoginBurst)
	assert.Equal(t, "auth-events", cfg.Exchange)
	assert.Equal(t, 0, cfg.DB)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: "https://from-file.test"
firebase:
  api_key: "file-key"
`)
	t.Setenv("VITE_API_BASE_URL", "https://from-env.test")
	t.Setenv("VITE_FIREBASE_API_KEY", "env-key")
	t.Setenv("VITE_FIREBASE_APP_ID", "1:123:web:abc")
	t.Setenv("VITE_USE_FIREBASE_EMULATOR", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.test", cfg.BaseURL)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "1:123:web:abc", cfg.AppID)
	assert.True(t, cfg.UseEmulator)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := Load("")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoConfigPath)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("broken yaml", func(t *testing.T) {
		path := writeConfig(t, "api: [::")
		_, err := Load(path)
		assert.Error(t, err)
	})
}
