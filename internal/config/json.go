package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/liftsync/internal/flagx"
	"github.com/dmitrijs2005/liftsync/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "5m" and integer nanoseconds are accepted.
type JsonConfig struct {
	RemoteDSN                 string          `json:"remote_dsn"`
	LocalDBPath               string          `json:"local_db_path"`
	UserID                    string          `json:"user_id"`
	AccessToken               string          `json:"access_token"`
	JWTSecret                 string          `json:"jwt_secret"`
	SyncInterval              *timex.Duration `json:"sync_interval"`
	ConnectivityCheckInterval *timex.Duration `json:"connectivity_check_interval"`
	HealthAddr                *string         `json:"health_addr"`
	LogLevel                  string          `json:"log_level"`
	LogFile                   string          `json:"log_file"`
}

// parseJson overlays the file named by -c/-config, if present. Only keys
// present in the file replace the current values.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}
	return overlayJsonFile(config, path)
}

func overlayJsonFile(config *Config, path string) error {
	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.RemoteDSN, c.RemoteDSN)
	setString(&config.LocalDBPath, c.LocalDBPath)
	setString(&config.UserID, c.UserID)
	setString(&config.AccessToken, c.AccessToken)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFile, c.LogFile)

	if c.SyncInterval != nil {
		config.SyncInterval = c.SyncInterval.Duration
	}
	if c.ConnectivityCheckInterval != nil {
		config.ConnectivityCheckInterval = c.ConnectivityCheckInterval.Duration
	}
	// an explicit "" disables the health endpoint
	if c.HealthAddr != nil {
		config.HealthAddr = *c.HealthAddr
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
