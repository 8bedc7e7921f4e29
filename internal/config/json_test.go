package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func withArgs(t *testing.T, args []string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = args
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"remote_dsn":                  "postgres://remote",
		"local_db_path":               "device.db",
		"user_id":                     "user-1",
		"access_token":                "token",
		"jwt_secret":                  "secret",
		"sync_interval":               "2m",
		"connectivity_check_interval": 5000000000,
		"health_addr":                 "127.0.0.1:7000",
		"log_level":                   "debug",
		"log_file":                    "/var/log/liftsync.log",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, parseJson(cfg, []string{"-config", pathFlag}))

		assert.Equal(t, "postgres://remote", cfg.RemoteDSN)
		assert.Equal(t, "device.db", cfg.LocalDBPath)
		assert.Equal(t, "user-1", cfg.UserID)
		assert.Equal(t, "token", cfg.AccessToken)
		assert.Equal(t, "secret", cfg.JWTSecret)
		assert.Equal(t, 2*time.Minute, cfg.SyncInterval)
		assert.Equal(t, 5*time.Second, cfg.ConnectivityCheckInterval)
		assert.Equal(t, "127.0.0.1:7000", cfg.HealthAddr)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "/var/log/liftsync.log", cfg.LogFile)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		cfg := &Config{LocalDBPath: "keep.db", SyncInterval: time.Hour}
		require.NoError(t, parseJson(cfg, []string{"-r", "x"}))

		assert.Equal(t, "keep.db", cfg.LocalDBPath)
		assert.Equal(t, time.Hour, cfg.SyncInterval)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"log_level": "warn"})
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-c", partial}))

		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "liftsync.db", cfg.LocalDBPath)
		assert.Equal(t, ":50061", cfg.HealthAddr)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := &Config{}
		require.Error(t, parseJson(cfg, []string{"-c", bad}))
	})
}
