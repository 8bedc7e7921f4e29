package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "", c.RemoteDSN)
	assert.Equal(t, "liftsync.db", c.LocalDBPath)
	assert.Equal(t, 5*time.Minute, c.SyncInterval)
	assert.Equal(t, 15*time.Second, c.ConnectivityCheckInterval)
	assert.Equal(t, ":50061", c.HealthAddr)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.RemoteConfigured())
}

func TestLoad_NoArgsUsesDefaults(t *testing.T) {
	c, err := Load(nil)
	require.NoError(t, err)
	require.NotNil(t, c)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func TestLoad_JsonThenFlags(t *testing.T) {
	path := writeTempJSON(t, t.TempDir(), "cfg.json", map[string]any{
		"remote_dsn":    "postgres://json",
		"local_db_path": "json.db",
		"sync_interval": "10m",
	})

	c, err := Load([]string{"-c", path, "-r", "postgres://flag", "-i", "1m"})
	require.NoError(t, err)

	assert.Equal(t, "postgres://flag", c.RemoteDSN)
	assert.Equal(t, "json.db", c.LocalDBPath)
	assert.Equal(t, time.Minute, c.SyncInterval)
	assert.True(t, c.RemoteConfigured())
}

func TestLoadFile(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{"user_id": "u-1", "health_addr": ""})

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UserID)
	assert.Equal(t, "", c.HealthAddr)

	c, err = LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "liftsync.db", c.LocalDBPath)

	_, err = LoadFile("/does/not/exist.json")
	require.Error(t, err)
}

func TestLoadConfig_PanicsOnBadFile(t *testing.T) {
	withArgs(t, []string{"testbin", "-c", "/does/not/exist.json"})
	require.Panics(t, func() { LoadConfig() })
}
