package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points every lookup away from files in the working directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RACEKEEPER_ENV_FILE", filepath.Join(dir, "missing.env"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 300*time.Second, cfg.Race.MinWait())
	require.Equal(t, 60*time.Second, cfg.Race.AutoStart())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
db:
  driver: badger
  path: /tmp/race-kv
race:
  min_wait_seconds: 30
`), 0o644))

	t.Setenv("RACEKEEPER_CONFIG_PATH", path)
	t.Setenv("RACEKEEPER_SERVER_PORT", "9100")
	t.Setenv("RACEKEEPER_AUTH_ENABLED", "true")
	t.Setenv("RACEKEEPER_AUTO_START_SECONDS", "15")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, DriverBadger, cfg.DB.Driver)
	require.Equal(t, "/tmp/race-kv", cfg.DB.Path)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, 30, cfg.Race.MinWaitSeconds)
	require.Equal(t, 15, cfg.Race.AutoStartSeconds)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("RACEKEEPER_TRANSPORT_MODE=stdio\nRACEKEEPER_LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("RACEKEEPER_ENV_FILE", envPath)
	t.Cleanup(func() {
		os.Unsetenv("RACEKEEPER_TRANSPORT_MODE")
		os.Unsetenv("RACEKEEPER_LOG_LEVEL")
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)

	t.Setenv("RACEKEEPER_SERVER_PORT", "eighty")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("RACEKEEPER_SERVER_PORT", "")
	t.Setenv("RACEKEEPER_DB_DRIVER", "postgres")
	_, err = Load()
	require.ErrorContains(t, err, "unknown db driver")

	t.Setenv("RACEKEEPER_DB_DRIVER", "")
	t.Setenv("RACEKEEPER_MIN_WAIT_SECONDS", "0")
	_, err = Load()
	require.ErrorContains(t, err, "race timers")
}
