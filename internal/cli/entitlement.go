package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/liftsync/internal/entitlement"
	"github.com/dmitrijs2005/liftsync/internal/models"
	"github.com/spf13/cobra"
)

// EntitlementReport is the output of liftctl entitlement.
type EntitlementReport struct {
	UserID string               `json:"userId"`
	Valid  bool                 `json:"valid"`
	Source string               `json:"source"`
	Stale  bool                 `json:"stale"`
	Info   *models.PurchaseInfo `json:"purchaseInfo"`
}

// SetOptions holds the flags of liftctl entitlement set.
type SetOptions struct {
	Tier      string
	Type      string
	ExpiresAt string
	WillRenew bool
	ProductID string
}

// NewEntitlementCommand creates the entitlement command and its subcommands.
func NewEntitlementCommand(rootOpts *RootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "entitlement",
		Short: "Show the user's purchase entitlement",
		Long: `Show the user's purchase entitlement. Online the remote row is read and
cached; offline the cached entry is used within its trust window. With
--refresh only the remote is consulted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntitlement(rootOpts, refresh, cmd)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "read the remote entitlement, ignoring the cache")

	setOpts := &SetOptions{}
	set := &cobra.Command{
		Use:           "set",
		Short:         "Record a purchase locally and, when online, remotely",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntitlementSet(rootOpts, setOpts, cmd)
		},
	}
	set.Flags().StringVar(&setOpts.Tier, "tier", "pro", "purchase tier")
	set.Flags().StringVar(&setOpts.Type, "type", string(models.PurchaseLifetime), "purchase type (lifetime|subscription)")
	set.Flags().StringVar(&setOpts.ExpiresAt, "expires", "", "subscription expiry (RFC 3339)")
	set.Flags().BoolVar(&setOpts.WillRenew, "will-renew", false, "subscription renews automatically")
	set.Flags().StringVar(&setOpts.ProductID, "product", "", "store product id")
	cmd.AddCommand(set)

	return cmd
}

func runEntitlement(opts *RootOptions, refresh bool, cmd *cobra.Command) error {
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

	var lookup entitlement.Lookup
	if refresh {
		info, err := a.Entitlements().RefreshFromRemote(ctx, userID)
		if err != nil {
			return err
		}
		lookup = entitlement.Lookup{Info: info, Source: entitlement.SourceRemote}
		if !a.Connectivity().Online() {
			lookup.Source = entitlement.SourceNone
		}
	} else {
		lookup = a.Entitlements().GetEntitlement(ctx, userID)
	}

	report := EntitlementReport{
		UserID: userID,
		Valid:  lookup.Info != nil,
		Source: string(lookup.Source),
		Stale:  lookup.Stale,
		Info:   lookup.Info,
	}

	return newPrinter(opts, cmd.OutOrStdout()).emit(report, func(w io.Writer) error {
		kv(w, "user", report.UserID)
		kv(w, "valid", report.Valid)
		kv(w, "source", report.Source)
		if report.Stale {
			kv(w, "stale", true)
		}
		if info := report.Info; info != nil {
			kv(w, "tier", info.Tier)
			kv(w, "type", info.Type)
			kv(w, "purchased", info.PurchasedAt.Format(time.RFC3339))
			if info.ExpiresAt != nil {
				kv(w, "expires", info.ExpiresAt.Format(time.RFC3339))
			}
		}
		return nil
	})
}

func (o *SetOptions) purchase(now time.Time) (*models.PurchaseInfo, error) {
	info := &models.PurchaseInfo{
		Tier:        o.Tier,
		Type:        models.PurchaseType(o.Type),
		PurchasedAt: now.UTC(),
		ProductID:   o.ProductID,
	}
	switch info.Type {
	case models.PurchaseLifetime:
	case models.PurchaseSubscription:
		renew := o.WillRenew
		info.WillRenew = &renew
	default:
		return nil, fmt.Errorf("invalid purchase type %q", o.Type)
	}
	if o.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, o.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("invalid --expires: %w", err)
		}
		t = t.UTC()
		info.ExpiresAt = &t
	}
	return info, nil
}

func runEntitlementSet(opts *RootOptions, setOpts *SetOptions, cmd *cobra.Command) error {
	info, err := setOpts.purchase(time.Now())
	if err != nil {
		return err
	}

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
	if err := a.Entitlements().SyncToRemote(ctx, userID, info); err != nil {
		return err
	}

	p := newPrinter(opts, cmd.OutOrStdout())
	return p.emit(info, func(w io.Writer) error {
		fmt.Fprintf(w, "entitlement recorded for %s\n", userID)
		return nil
	})
}
