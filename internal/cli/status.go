package cli

import (
	"io"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/app"
	"github.com/spf13/cobra"
)

// StatusReport is the output of liftctl status.
type StatusReport struct {
	UserID       string     `json:"userId,omitempty"`
	Configured   bool       `json:"configured"`
	Online       bool       `json:"online"`
	State        string     `json:"state"`
	Message      string     `json:"message,omitempty"`
	Pending      int        `json:"pending"`
	LastSyncTime *time.Time `json:"lastSyncTime"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show sync status, pending mutations and last sync time",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return runStatusOf(opts, cmd, a)
}

func runStatusOf(opts *RootOptions, cmd *cobra.Command, a *app.App) error {
	ctx := cmd.Context()
	snap := a.Engine().Status()
	report := StatusReport{
		UserID:     a.UserID(),
		Configured: a.Engine().Configured(),
		Online:     a.CheckConnectivity(ctx),
		State:      string(snap.State),
		Message:    snap.Message,
		Pending:    snap.Pending,
	}
	if !snap.LastSyncTime.IsZero() {
		t := snap.LastSyncTime
		report.LastSyncTime = &t
	}

	return newPrinter(opts, cmd.OutOrStdout()).emit(report, func(w io.Writer) error {
		kv(w, "user", valueOr(report.UserID, "-"))
		kv(w, "remote configured", report.Configured)
		kv(w, "online", report.Online)
		kv(w, "state", report.State)
		if report.Message != "" {
			kv(w, "message", report.Message)
		}
		kv(w, "pending", report.Pending)
		last := "never"
		if report.LastSyncTime != nil {
			last = report.LastSyncTime.Format(time.RFC3339)
		}
		kv(w, "last sync", last)
		return nil
	})
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
