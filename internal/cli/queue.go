package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/dmitrijs2005/liftsync/internal/queue"
	"github.com/spf13/cobra"
)

// QueueEntry is one row of liftctl queue list.
type QueueEntry struct {
	ID          string     `json:"id"`
	Collection  string     `json:"collection"`
	Operation   string     `json:"operation"`
	ItemID      string     `json:"itemId"`
	CreatedAt   time.Time  `json:"createdAt"`
	RetryCount  int        `json:"retryCount"`
	NextRetryAt *time.Time `json:"nextRetryAt"`
}

func toQueueEntry(it models.QueueItem) QueueEntry {
	return QueueEntry{
		ID:          it.ID,
		Collection:  string(it.Collection),
		Operation:   string(it.Operation),
		ItemID:      it.ItemID,
		CreatedAt:   it.CreatedAt,
		RetryCount:  it.RetryCount,
		NextRetryAt: it.NextRetryAt,
	}
}

// NewQueueCommand creates the queue command and its subcommands.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect or drain the retry queue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List queued mutations in replay order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueList(rootOpts, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:           "process",
		Short:         "Replay due queued mutations now",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueProcess(rootOpts, cmd)
		},
	})

	return cmd
}

func runQueueList(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	items, err := a.Engine().Queue().List(ctx)
	if err != nil {
		return err
	}
	entries := make([]QueueEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, toQueueEntry(it))
	}

	return newPrinter(opts, cmd.OutOrStdout()).emit(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			fmt.Fprintln(w, "queue is empty")
			return nil
		}
		fmt.Fprintln(w, "ID\tCOLLECTION\tOP\tITEM\tRETRIES\tNEXT RETRY")
		for _, e := range entries {
			next := "-"
			if e.NextRetryAt != nil {
				next = e.NextRetryAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", e.ID, e.Collection, e.Operation, e.ItemID, e.RetryCount, next)
		}
		return nil
	})
}

func runQueueProcess(opts *RootOptions, cmd *cobra.Command) error {
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
	res, err := a.Engine().ProcessQueue(ctx, userID)
	if err != nil {
		return err
	}

	return newPrinter(opts, cmd.OutOrStdout()).emit(res, func(w io.Writer) error {
		printResult(w, res)
		return nil
	})
}

func printResult(w io.Writer, res queue.Result) {
	kv(w, "processed", res.Processed)
	kv(w, "failed", res.Failed)
	kv(w, "skipped", res.Skipped)
}
