package main

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/icastellano/oppanel/internal/cli"
	"github.com/icastellano/oppanel/internal/model"
	"github.com/icastellano/oppanel/internal/store"
)

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load and validate a record payload",
		Long: `Load the record payload from the configured source and report what
was decoded: record counts, the derived date domain, and rows dropped for
missing or unparseable opening dates.`,
		RunE: runLoad,
	}
}

func runLoad(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	payload, err := fetchPayload(ctx, model.FilterState{}, nil)
	if err != nil {
		return err
	}

	if !payload.HasRecords() {
		if payload.Dimensions == nil {
			return fmt.Errorf("payload carried no records")
		}
		fmt.Println(cli.FormatSuccess(fmt.Sprintf(
			"server dimension payload: %d rows precomputed upstream", payload.TotalRows)))
		return nil
	}

	bar := progressbar.NewOptions(len(payload.Records),
		progressbar.OptionSetDescription("Validando registros"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	undated := 0
	for i := range payload.Records {
		if payload.Records[i].OpenDate.IsZero() {
			undated++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	records := store.New()
	records.Load(payload.Records)
	domain := records.Domain()

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("%d registros decodificados", len(payload.Records))))
	if payload.Skipped > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d filas descartadas: no son objetos", payload.Skipped)))
	}
	if undated > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d registros sin fecha de apertura", undated)))
	}
	if domain.Len() > 0 {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("dominio: %d fechas, %s → %s",
			domain.Len(),
			domain.Min().Format("2006-01-02"),
			domain.Max().Format("2006-01-02"))))
	}

	slog.Info("Payload loaded",
		"records", len(payload.Records),
		"undated", undated,
		"domain_dates", domain.Len())
	return nil
}
