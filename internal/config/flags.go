package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/liftsync/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string     remote PostgreSQL DSN
//	-l string     local SQLite database path
//	-u string     user id
//	-t string     session access token (JWT)
//	-s string     JWT secret used to verify the access token
//	-i duration   background sync interval (e.g. "5m")
//	-p duration   connectivity probe interval
//	-a string     gRPC health endpoint address
//	-v string     log level
//	-f string     log file
//
// Arguments are filtered through flagx.FilterArgs first so -c/-config and
// flags of other components do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-r", "-l", "-u", "-t", "-s", "-i", "-p", "-a", "-v", "-f"})

	fs := flag.NewFlagSet("liftsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.RemoteDSN, "r", config.RemoteDSN, "remote database DSN")
	fs.StringVar(&config.LocalDBPath, "l", config.LocalDBPath, "local database path")
	fs.StringVar(&config.UserID, "u", config.UserID, "user id")
	fs.StringVar(&config.AccessToken, "t", config.AccessToken, "access token")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "jwt secret")
	fs.DurationVar(&config.SyncInterval, "i", config.SyncInterval, "sync interval")
	fs.DurationVar(&config.ConnectivityCheckInterval, "p", config.ConnectivityCheckInterval, "connectivity probe interval")
	fs.StringVar(&config.HealthAddr, "a", config.HealthAddr, "health endpoint address")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.LogFile, "f", config.LogFile, "log file")

	return fs.Parse(args)
}
