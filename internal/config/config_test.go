package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.InDelta(t, 1.6, cfg.YieldRatio, 1e-9)
	assert.Equal(t, 30, cfg.IdempotencyLockSeconds)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("YIELD_RATIO", "1.45")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://cellar.example.com, https://lab.example.com,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.InDelta(t, 1.45, cfg.YieldRatio, 1e-9)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, []string{"https://cellar.example.com", "https://lab.example.com"}, cfg.AllowedOrigins())
}

func TestValidate(t *testing.T) {
	cfg := &Config{YieldRatio: 0, IdempotencyLockSeconds: 30}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Env: "production", YieldRatio: 1.6, JWTSecret: "dev-secret-change-me"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Env: "production", YieldRatio: 1.6, JWTSecret: "s3cr3t"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.IdempotencyLockSeconds)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
