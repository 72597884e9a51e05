package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "libsql", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.Contains(t, cfg.Rules, "auth")
	assert.Equal(t, 5, cfg.Rules["auth"].MaxRequests)
	assert.Equal(t, 60, cfg.Rules["auth"].WindowSeconds)
	assert.Contains(t, cfg.Rules, "read")
	assert.Contains(t, cfg.Rules, "write")
	assert.Contains(t, cfg.Rules, "upload")
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "throttled.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
redis:
  addr: redis.internal:6379
rules:
  export:
    max_requests: 10
    window_seconds: 300
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)

	rule, ok := cfg.Rules["export"]
	require.True(t, ok)
	assert.Equal(t, 10, rule.MaxRequests)
	assert.Equal(t, 300, rule.WindowSeconds)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("THROTTLE_REDIS_ADDR", "env.redis:6380")
	t.Setenv("THROTTLE_SERVER_PORT", "7070")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env.redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_RejectsInvalidRule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "throttled.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  broken:
    max_requests: 0
    window_seconds: 60
`), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "max_requests")
}

func TestRuleConfig_Limiter(t *testing.T) {
	rule := RuleConfig{MaxRequests: 10, WindowSeconds: 300}
	cfg := rule.Limiter("export")

	assert.Equal(t, 10, cfg.MaxRequests)
	assert.Equal(t, 5*time.Minute, cfg.Window)
	assert.Equal(t, "export", cfg.Endpoint)
}
