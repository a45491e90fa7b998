package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/icastellano/oppanel/internal/cli"
	"github.com/icastellano/oppanel/internal/model"
)

var panelTitles = map[Panel]string{
	PanelRecords:    "Registros",
	PanelCategories: "Categorías",
	PanelProvinces:  "Provincias",
	PanelBuyers:     "Compradores",
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")

	if m.panel == PanelRecords {
		b.WriteString(m.recordsTbl.View())
	} else {
		b.WriteString(m.facetTbl.View())
	}
	b.WriteString("\n")

	b.WriteString(m.sidebarView())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) headerView() string {
	title := cli.TitleStyle.Render(cli.ChartIcon + " oppanel")

	tabs := make([]string, 0, int(panelCount))
	for p := PanelRecords; p < panelCount; p++ {
		label := panelTitles[p]
		if p == m.panel {
			tabs = append(tabs, cli.BoldStyle.Render("["+label+"]"))
		} else {
			tabs = append(tabs, cli.SubtleStyle.Render(label))
		}
	}

	parts := []string{title, strings.Join(tabs, " ")}
	if m.refreshing {
		parts = append(parts, m.spin.View()+" actualizando")
	} else if m.snapshot.Stale {
		parts = append(parts, cli.FormatWarning("desactualizado"))
	}
	if m.searching {
		parts = append(parts, m.search.View())
	}
	if m.ranging {
		parts = append(parts, "rango: "+m.rangeInput.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, "  "))
}

func (m Model) sidebarView() string {
	k := m.snapshot.Projections.KPIs
	kpis := fmt.Sprintf("procesos %d · compradores %d · categorías %d",
		k.Records, k.Buyers, k.Categories)

	status := statusSummary(m.snapshot.Projections.StatusShare)
	line := kpis
	if status != "" {
		line += " · " + status
	}
	if filters := activeFilters(m.snapshot.Filter); filters != "" {
		line += "\n" + cli.AccentStyle.Render(filters)
	}
	return cli.SubtleStyle.Render(line)
}

func (m Model) footerView() string {
	help := "tab panel · enter filtrar · a/x decidir · e estado · p pami · d decisión · [/]/-/= rango · g fechas · / buscar · r actualizar · c limpiar · q salir"
	out := cli.SubtleStyle.Render(help)
	if m.lastErr != nil {
		out += "\n" + cli.FormatError(m.lastErr.Error())
	}
	return out
}

func statusSummary(share model.StatusShare) string {
	em := share[model.StatusEmergency]
	rg := share[model.StatusRegular]
	if em == 0 && rg == 0 {
		return ""
	}
	return fmt.Sprintf("emergencia %d · regular %d", em, rg)
}

func activeFilters(fs model.FilterState) string {
	var parts []string
	if !fs.From.IsZero() {
		parts = append(parts, fs.From.Format("2006-01-02")+" → "+fs.To.Format("2006-01-02"))
	}
	for _, v := range []string{fs.Platform, fs.Buyer, fs.Account, fs.Category, fs.Geography, fs.Search} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if fs.BuyerClass != model.BuyerClassAny {
		parts = append(parts, string(fs.BuyerClass))
	}
	if fs.Status != "" {
		parts = append(parts, string(fs.Status))
	}
	if fs.Decision != model.DecisionFilterAny {
		parts = append(parts, string(fs.Decision))
	}
	if len(parts) == 0 {
		return ""
	}
	return "filtros: " + strings.Join(parts, " · ")
}

func sortedGeoKeys(rollup model.GeoRollup) []string {
	keys := make([]string, 0, len(rollup))
	for k := range rollup {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if rollup[keys[i]] != rollup[keys[j]] {
			return rollup[keys[i]] > rollup[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
