package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/icastellano/oppanel/internal/engine"
	"github.com/icastellano/oppanel/internal/model"
)

var monthHeaders = []string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// RenderKPIs formats the headline counters as one bordered box.
func RenderKPIs(k model.KPIs) string {
	lines := []string{
		fmt.Sprintf("Procesos     %s", BoldStyle.Render(fmt.Sprintf("%d", k.Records))),
		fmt.Sprintf("Compradores  %s", BoldStyle.Render(fmt.Sprintf("%d", k.Buyers))),
		fmt.Sprintf("Unidades     %s", BoldStyle.Render(fmt.Sprintf("%d", k.Processes))),
		fmt.Sprintf("Categorías   %s", BoldStyle.Render(fmt.Sprintf("%d", k.Categories))),
	}
	if k.Volume > 0 {
		lines = append(lines, fmt.Sprintf("Volumen      %s", BoldStyle.Render(formatWeight(k.Volume))))
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

// RenderTimeSeries formats the per-period status tallies as a table.
func RenderTimeSeries(series model.TimeSeries) string {
	if len(series) == 0 {
		return SubtleStyle.Render("sin datos")
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-12s %10s %10s %10s", "Período", "Emergencia", "Regular", "Total")))
	b.WriteString("\n")
	for _, bucket := range series {
		b.WriteString(fmt.Sprintf("%-12s %10d %10d %10d\n",
			bucket.Period,
			bucket.Counts[model.StatusEmergency],
			bucket.Counts[model.StatusRegular],
			bucket.Total()))
	}
	return b.String()
}

// RenderRanking formats a top-N ranking with proportional bars.
func RenderRanking(title string, ranking model.CategoryRanking) string {
	if len(ranking) == 0 {
		return SubtleStyle.Render("sin datos")
	}

	maxWeight := ranking[0].Weight
	for _, entry := range ranking {
		if entry.Weight > maxWeight {
			maxWeight = entry.Weight
		}
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	for _, entry := range ranking {
		bar := ""
		if maxWeight > 0 {
			bar = strings.Repeat("█", int(entry.Weight/maxWeight*24))
		}
		b.WriteString(fmt.Sprintf("%-36s %10s %s\n",
			truncate(entry.Label, 36),
			formatWeight(entry.Weight),
			AccentStyle.Render(bar)))
	}
	return b.String()
}

// RenderGeoRollup formats province counts sorted descending, the unknown
// bucket last.
func RenderGeoRollup(rollup model.GeoRollup) string {
	if rollup.Total() == 0 {
		return SubtleStyle.Render("sin datos")
	}

	type row struct {
		label string
		count int
	}
	rows := make([]row, 0, len(rollup))
	for label, count := range rollup {
		rows = append(rows, row{label, count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].label < rows[j].label
	})

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%-36s %6d\n", truncate(r.label, 36), r.count))
	}
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("%-36s %6d", "TOTAL", rollup.Total())))
	b.WriteString("\n")
	return b.String()
}

// RenderPivot formats the month-by-category matrix.
func RenderPivot(matrix model.PivotMatrix) string {
	if len(matrix.Rows) == 0 {
		return SubtleStyle.Render("sin datos")
	}

	var b strings.Builder
	header := fmt.Sprintf("%-28s", "Categoría")
	for _, m := range monthHeaders {
		header += fmt.Sprintf(" %8s", m)
	}
	b.WriteString(TableHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, row := range matrix.Rows {
		b.WriteString(fmt.Sprintf("%-28s", truncate(row.Category, 28)))
		for _, cell := range row.Cells {
			if cell == 0 {
				b.WriteString(SubtleStyle.Render(fmt.Sprintf(" %8s", "·")))
				continue
			}
			b.WriteString(fmt.Sprintf(" %8s", formatWeight(cell)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderSnapshot assembles the full report for one engine snapshot.
func RenderSnapshot(snap engine.Snapshot) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(ChartIcon + " Oportunidades"))
	b.WriteString("\n")
	if desc := describeFilter(snap.Filter); desc != "" {
		b.WriteString(SubtitleStyle.Render("Filtros: " + desc))
		b.WriteString("\n")
	}
	if snap.Stale {
		b.WriteString(FormatWarning("datos desactualizados: la última actualización falló"))
		b.WriteString("\n")
	}

	b.WriteString(RenderKPIs(snap.Projections.KPIs))
	b.WriteString("\n\n")

	b.WriteString(TitleStyle.Render("Serie temporal"))
	b.WriteString("\n")
	b.WriteString(RenderTimeSeries(snap.Projections.TimeSeries))
	b.WriteString("\n")

	b.WriteString(RenderRanking("Categorías", snap.Projections.Categories))
	b.WriteString("\n")
	b.WriteString(RenderRanking("Compradores", snap.Projections.Buyers))
	b.WriteString("\n")

	b.WriteString(TitleStyle.Render(MapIcon + " Provincias"))
	b.WriteString("\n")
	b.WriteString(RenderGeoRollup(snap.Projections.Geography))
	b.WriteString("\n")

	b.WriteString(TitleStyle.Render("Estacionalidad (media)"))
	b.WriteString("\n")
	b.WriteString(RenderPivot(snap.Projections.PivotMean))
	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Estacionalidad (mediana)"))
	b.WriteString("\n")
	b.WriteString(RenderPivot(snap.Projections.PivotMedian))

	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("%d de %d registros · %d sin fecha",
		snap.FilteredCount, snap.TotalRecords, snap.DroppedDates)))
	b.WriteString("\n")
	return b.String()
}

func describeFilter(fs model.FilterState) string {
	var parts []string
	if !fs.From.IsZero() || !fs.To.IsZero() {
		parts = append(parts, fmt.Sprintf("%s → %s",
			fs.From.Format("2006-01-02"), fs.To.Format("2006-01-02")))
	}
	for _, p := range []struct{ name, value string }{
		{"plataforma", fs.Platform},
		{"comprador", fs.Buyer},
		{"cuenta", fs.Account},
		{"categoría", fs.Category},
		{"provincia", fs.Geography},
		{"búsqueda", fs.Search},
	} {
		if p.value != "" {
			parts = append(parts, p.name+"="+AccentStyle.Render(p.value))
		}
	}
	if fs.BuyerClass != model.BuyerClassAny {
		parts = append(parts, "clase="+string(fs.BuyerClass))
	}
	if fs.Status != "" {
		parts = append(parts, "estado="+string(fs.Status))
	}
	if fs.Decision != model.DecisionFilterAny {
		parts = append(parts, "decisión="+string(fs.Decision))
	}
	return strings.Join(parts, " · ")
}

func formatWeight(w float64) string {
	if w == float64(int64(w)) {
		return fmt.Sprintf("%d", int64(w))
	}
	return fmt.Sprintf("%.1f", w)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
