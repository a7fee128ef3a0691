package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/taproom/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, []string{"Ada", "Bayo", "Chioma", "Emeka"}, cfg.Staff)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Minute, cfg.Rollover.Interval)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.False(t, cfg.Demo)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := config.Load([]string{
		"--port=9090",
		"--store=SQLite",
		"--dsn=/tmp/bar.db",
		"--timezone=UTC",
		"--staff=Tolu,Kemi",
		"--log-level=debug",
		"--rollover-interval=30s",
		"--demo",
	})

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sqlite", cfg.Store.Driver, "driver is case-insensitive")
	assert.Equal(t, "/tmp/bar.db", cfg.Store.DSN)
	assert.Equal(t, []string{"Tolu", "Kemi"}, cfg.Staff)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Second, cfg.Rollover.Interval)
	assert.True(t, cfg.Demo)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TAPROOM_PORT", "7070")
	t.Setenv("TAPROOM_STORE_DRIVER", "postgres")
	t.Setenv("TAPROOM_STORE_DSN", "postgres://localhost/taproom")
	t.Setenv("TAPROOM_LOG_FORMAT", "json")

	cfg, err := config.Load(nil)

	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/taproom", cfg.Store.DSN)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("TAPROOM_PORT", "7070")

	cfg, err := config.Load([]string{"--port=6060"})

	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Port)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taproom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 5050
store:
  driver: badger
  dsn: ./data/badger
staff: [Ngozi]
rollover:
  interval: 2m
`), 0o600))

	cfg, err := config.Load([]string{"--config", path})

	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.Port)
	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.Equal(t, "./data/badger", cfg.Store.DSN)
	assert.Equal(t, []string{"Ngozi"}, cfg.Staff)
	assert.Equal(t, 2*time.Minute, cfg.Rollover.Interval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown driver", []string{"--store=mongo"}},
		{"postgres without dsn", []string{"--store=postgres"}},
		{"bad port", []string{"--port=70000"}},
		{"bad timezone", []string{"--timezone=Mars/Olympus"}},
		{"bad log level", []string{"--log-level=loud"}},
		{"zero interval", []string{"--rollover-interval=0s"}},
		{"unknown flag", []string{"--colour=blue"}},
		{"missing config file", []string{"--config=/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(tt.args)
			assert.Error(t, err)
		})
	}
}
