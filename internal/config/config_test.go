package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	storageConfig "github.com/iurnickita/scpclient/internal/storage/config"
)

func TestDefaults(t *testing.T) {
	cfg, rest, err := GetConfig([]string{"whoami"})
	require.NoError(t, err)
	require.Equal(t, []string{"whoami"}, rest)

	require.Equal(t, AppMobile, cfg.App)
	require.Equal(t, "http://localhost:8000", cfg.Gateway.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	require.False(t, cfg.Gateway.ClearSessionOnUnauthorized)
	require.Equal(t, storageConfig.KindFile, cfg.Storage.Kind)
	require.Equal(t, DefaultStoragePath(AppMobile), cfg.Storage.Path)
	require.Equal(t, "scpclient:mobile", cfg.Storage.Namespace)
	require.Equal(t, 3*time.Second, cfg.Poller.Interval)
	require.Equal(t, "warn", cfg.Logger.LogLevel)
}

func TestProfilesUseSeparateStorage(t *testing.T) {
	mobile, _, err := GetConfig([]string{"-app", AppMobile})
	require.NoError(t, err)
	web, _, err := GetConfig([]string{"-app", AppWeb})
	require.NoError(t, err)
	require.NotEqual(t, mobile.Storage.Path, web.Storage.Path)
	require.NotEqual(t, mobile.Storage.Namespace, web.Storage.Namespace)
}

func TestPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app: web
gateway:
  base_url: http://file:8000/
  timeout: 5s
  clear_session_on_unauthorized: true
storage:
  kind: redis
  redis_url: redis://file:6379/0
poller:
  interval: 1s
logger:
  log_level: debug
`), 0o600))

	t.Setenv("SCP_CONFIG", path)
	t.Setenv("SCP_SERVER", "http://env:8000")
	t.Setenv("SCP_POLL_INTERVAL", "2s")

	cfg, rest, err := GetConfig([]string{"-server", "http://flag:8000/", "orders", "-x"})
	require.NoError(t, err)
	require.Equal(t, []string{"orders", "-x"}, rest)

	require.Equal(t, AppWeb, cfg.App)
	require.Equal(t, "http://flag:8000", cfg.Gateway.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Gateway.Timeout)
	require.True(t, cfg.Gateway.ClearSessionOnUnauthorized)
	require.Equal(t, storageConfig.KindRedis, cfg.Storage.Kind)
	require.Equal(t, "redis://file:6379/0", cfg.Storage.RedisURL)
	require.Empty(t, cfg.Storage.Path)
	require.Equal(t, 2*time.Second, cfg.Poller.Interval)
	require.Equal(t, "debug", cfg.Logger.LogLevel)
}

func TestConfigFlagOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "env.yaml")
	flagFile := filepath.Join(dir, "flag.yaml")
	require.NoError(t, os.WriteFile(envFile, []byte("app: web\n"), 0o600))
	require.NoError(t, os.WriteFile(flagFile, []byte("app: mobile\n"), 0o600))
	t.Setenv("SCP_CONFIG", envFile)

	cfg, _, err := GetConfig([]string{"-config", flagFile})
	require.NoError(t, err)
	require.Equal(t, AppMobile, cfg.App)
}

func TestInvalid(t *testing.T) {
	_, _, err := GetConfig([]string{"-app", "desktop"})
	require.ErrorIs(t, err, ErrUnknownApp)

	t.Setenv("SCP_POLL_INTERVAL", "often")
	_, _, err = GetConfig(nil)
	require.Error(t, err)

	_, _, err = GetConfig([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}
