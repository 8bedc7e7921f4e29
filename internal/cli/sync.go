package cli

import (
	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var drain bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a full sync for the user",
		Long: `Run a full sync: pull remote changes into the local store, then push
every local record. With --drain the retry queue is replayed first, as on
reconnect.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, drain, cmd)
		},
	}

	cmd.Flags().BoolVar(&drain, "drain", true, "replay the retry queue before syncing")

	return cmd
}

func runSync(opts *RootOptions, drain bool, cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	userID, err := requireUser(a)
	if err != nil {
		return err
	}

	a.CheckConnectivity(ctx)
	if drain {
		if _, err := a.Engine().ProcessQueue(ctx, userID); err != nil {
			return err
		}
	}

	syncErr := a.Engine().FullSync(ctx, userID)

	// the status reflects the outcome either way
	if err := runStatusOf(opts, cmd, a); err != nil {
		return err
	}
	return syncErr
}
