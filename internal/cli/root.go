// Package cli implements liftctl, the operator command line of the sync
// daemon's local store.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dmitrijs2005/liftsync/internal/app"
	"github.com/dmitrijs2005/liftsync/internal/buildinfo"
	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/config"
	"github.com/dmitrijs2005/liftsync/internal/logging"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	UserID     string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of liftctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "liftctl",
		Short:   "liftctl - inspect and drive liftsync",
		Long:    "Operator tool for the liftsync local store: sync status, retry queue, manual sync and entitlements.",
		Version: buildinfo.String(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().StringVarP(&opts.UserID, "user", "u", "", "user id (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewEntitlementCommand(opts))

	return cmd
}

// openApp builds the components from the config file without starting the
// background loops. The caller closes the returned App.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.LoadFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.UserID != "" {
		cfg.UserID = opts.UserID
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	return app.NewApp(ctx, cfg, l)
}

func requireUser(a *app.App) (string, error) {
	if a.UserID() == "" {
		return "", fmt.Errorf("%w: pass --user or set user_id in the config", common.ErrNoUserID)
	}
	return a.UserID(), nil
}
