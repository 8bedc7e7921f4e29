package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected  *Config
		name      string
		args      []string
		expectErr bool
	}{
		{
			name: "all flags",
			args: []string{
				"-r", "postgres://db", "-l", "local.db", "-u", "u1", "-t", "tok", "-s", "sec",
				"-i", "30s", "-p", "2s", "-a", ":9000", "-v", "debug", "-f", "out.log",
			},
			expected: &Config{
				RemoteDSN:                 "postgres://db",
				LocalDBPath:               "local.db",
				UserID:                    "u1",
				AccessToken:               "tok",
				JWTSecret:                 "sec",
				SyncInterval:              30 * time.Second,
				ConnectivityCheckInterval: 2 * time.Second,
				HealthAddr:                ":9000",
				LogLevel:                  "debug",
				LogFile:                   "out.log",
			},
		},
		{
			name:     "unknown flags are ignored",
			args:     []string{"-x", "1", "-u", "u2"},
			expected: &Config{UserID: "u2"},
		},
		{
			name:      "bad duration",
			args:      []string{"-i", "often"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
