package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/icastellano/oppanel/internal/engine"
	"github.com/icastellano/oppanel/internal/rangesync"
	"github.com/icastellano/oppanel/internal/tui"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive cross-filter dashboard",
		Long: `Open the interactive dashboard: browse records, mark decisions, and
cross-filter the projections from any panel.`,
		RunE: runDashboard,
	}
	cmd.Flags().Int("range-days", rangesync.DefaultRangeDays, "width of the initial date range in business days")
	_ = viper.BindPFlag("range.days", cmd.Flags().Lookup("range-days"))
	return cmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	e, ds, err := initEngine(ctx, engine.DefaultConfig())
	if err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	if err := e.Refresh(ctx); err != nil {
		// A failed initial fetch still opens the dashboard, flagged stale.
		slog.Warn("Initial fetch failed", "error", err)
	}

	// The slider path: settled ranges land in the engine as date bounds.
	sync := rangesync.New(0, viper.GetInt("range.days"), func(from, to time.Time) {
		e.Dispatch(engine.RangeSet{From: from, To: to})
	})
	sync.SetDomain(e.Domain())

	return tui.Run(e, sync)
}
