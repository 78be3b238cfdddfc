package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, "release", cfg.Mode)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 512*1024, cfg.MaxTextBytes)
	require.Equal(t, 10*time.Minute, cfg.RoomTTL)
	require.Equal(t, 10*time.Minute, cfg.RateEntryTTL)
	require.Equal(t, "kick", cfg.Backpressure)
	require.Empty(t, cfg.StorePath)
	require.Equal(t, 15*time.Second, cfg.Compile.Timeout)
	require.Equal(t, "https://api.jdoodle.com/v1/execute", cfg.Compile.Endpoint)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: debug
port: 9000
room_ttl: 30s
backpressure: drop
compile:
  client_id: abc
`), 0o600))
	t.Setenv("CODESYNC_PORT", "9100")
	t.Setenv("CODESYNC_COMPILE_CLIENT_SECRET", "s3cret")

	cfg, err := load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Mode)
	require.Equal(t, 9100, cfg.Port)
	require.Equal(t, 30*time.Second, cfg.RoomTTL)
	require.Equal(t, "drop", cfg.Backpressure)
	require.Equal(t, "abc", cfg.Compile.ClientID)
	require.Equal(t, "s3cret", cfg.Compile.ClientSecret)
}

func TestLoad_RejectsPongShorterThanPing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ping_period: 60s\npong_wait: 10s\n"), 0o600))

	_, err := load(path)
	require.Error(t, err)
}
