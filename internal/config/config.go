// Package config handles configuration for the sync daemon and the operator
// CLI, including defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/common"
)

// Config holds runtime settings for liftsync.
//
// Fields:
//   - RemoteDSN: PostgreSQL DSN of the shared remote store (pgx). Empty means
//     remote sync is not configured and every sync call short-circuits;
//     "memory:" selects an in-process remote.
//   - LocalDBPath: path of the embedded SQLite store.
//   - UserID / AccessToken / JWTSecret: the signed-in user. UserID wins; otherwise
//     it is read from the token's "sub" claim.
//   - SyncInterval: period of the background full sync while online.
//   - ConnectivityCheckInterval: how often the remote is probed for reachability.
//   - HealthAddr: bind address of the gRPC health endpoint ("" disables it).
//   - LogLevel / LogFile: logging verbosity and optional rotated log file.
type Config struct {
	RemoteDSN                 string
	LocalDBPath               string
	UserID                    string
	AccessToken               string
	JWTSecret                 string
	SyncInterval              time.Duration
	ConnectivityCheckInterval time.Duration
	HealthAddr                string
	LogLevel                  string
	LogFile                   string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.RemoteDSN = ""
	c.LocalDBPath = "liftsync.db"
	c.SyncInterval = common.DefaultSyncInterval
	c.ConnectivityCheckInterval = 15 * time.Second
	c.HealthAddr = ":50061"
	c.LogLevel = "info"
}

// RemoteConfigured reports whether a remote store is set up.
func (c *Config) RemoteConfigured() bool {
	return c.RemoteDSN != ""
}

// Load builds a Config by applying defaults, then overlaying values from an
// optional JSON file (-c/-config) and finally from command-line flags.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args. It panics on malformed input since the
// process cannot start without a valid configuration.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadFile applies defaults and then the JSON file at path, if any.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path == "" {
		return cfg, nil
	}
	if err := overlayJsonFile(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
