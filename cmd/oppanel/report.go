package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/icastellano/oppanel/internal/aggregate"
	"github.com/icastellano/oppanel/internal/cli"
	"github.com/icastellano/oppanel/internal/engine"
	"github.com/icastellano/oppanel/internal/model"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the projections for the current filters",
		Long: `Load the record set, apply the requested filters, and print every
projection: time series, category and buyer rankings, province rollup and
the month-by-category seasonality pivots.`,
		RunE: runReport,
	}

	cmd.Flags().String("from", "", "start of the date range (2006-01-02)")
	cmd.Flags().String("to", "", "end of the date range (2006-01-02)")
	cmd.Flags().String("platform", "", "filter by platform")
	cmd.Flags().String("buyer", "", "filter by buyer")
	cmd.Flags().String("account", "", "filter by account")
	cmd.Flags().String("category", "", "filter by category")
	cmd.Flags().String("province", "", "filter by province")
	cmd.Flags().String("search", "", "free-text filter")
	cmd.Flags().String("status", "", "filter by status (EMERGENCIA, REGULAR)")
	cmd.Flags().String("pami", "", "buyer class filter (pami, other)")
	cmd.Flags().String("decision", "", "decision filter (accepted, rejected, unmarked)")
	cmd.Flags().String("granularity", "month", "time series granularity (day, month)")
	cmd.Flags().String("weight", "count", "ranking weight mode (count, volume)")
	cmd.Flags().IntP("top", "n", aggregate.DefaultTopN, "ranking size")

	_ = viper.BindPFlag("report.granularity", cmd.Flags().Lookup("granularity"))
	_ = viper.BindPFlag("report.weight", cmd.Flags().Lookup("weight"))
	_ = viper.BindPFlag("report.top", cmd.Flags().Lookup("top"))

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg := engine.DefaultConfig()
	cfg.Granularity = aggregate.Granularity(viper.GetString("report.granularity"))
	cfg.WeightMode = engine.WeightMode(viper.GetString("report.weight"))
	cfg.TopN = viper.GetInt("report.top")

	e, ds, err := initEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	if err := applyFilterFlags(cmd, e); err != nil {
		return err
	}
	if err := e.Refresh(ctx); err != nil {
		return err
	}

	fmt.Println(cli.RenderSnapshot(e.Snapshot()))
	return nil
}

func applyFilterFlags(cmd *cobra.Command, e *engine.Engine) error {
	from, err := parseDay(mustString(cmd, "from"), "from")
	if err != nil {
		return err
	}
	to, err := parseDay(mustString(cmd, "to"), "to")
	if err != nil {
		return err
	}
	if !from.IsZero() || !to.IsZero() {
		e.Dispatch(engine.RangeSet{From: from, To: to})
	}

	for facet, value := range map[model.Facet]string{
		model.FacetPlatform:  mustString(cmd, "platform"),
		model.FacetBuyer:     mustString(cmd, "buyer"),
		model.FacetCategory:  mustString(cmd, "category"),
		model.FacetGeography: mustString(cmd, "province"),
	} {
		if value != "" {
			e.Dispatch(engine.SelectionSet{Facet: facet, Value: value})
		}
	}

	if account := mustString(cmd, "account"); account != "" {
		e.Dispatch(engine.AccountSet{Value: account})
	}
	if search := mustString(cmd, "search"); search != "" {
		e.Dispatch(engine.SearchSet{Query: search})
	}
	if status := mustString(cmd, "status"); status != "" {
		e.Dispatch(engine.StatusSet{Status: model.ParseStatus(status)})
	}
	switch class := mustString(cmd, "pami"); class {
	case "":
	case "pami":
		e.Dispatch(engine.BuyerClassSet{Class: model.BuyerClassPAMI})
	case "other":
		e.Dispatch(engine.BuyerClassSet{Class: model.BuyerClassOther})
	default:
		return fmt.Errorf("invalid --pami value %q (want pami or other)", class)
	}
	if d := mustString(cmd, "decision"); d != "" {
		df := model.DecisionFilter(d)
		switch df {
		case model.DecisionFilterAccepted, model.DecisionFilterRejected, model.DecisionFilterUnmarked:
			e.Dispatch(engine.DecisionFilterSet{Filter: df})
		default:
			return fmt.Errorf("invalid --decision value %q", d)
		}
	}
	return nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
