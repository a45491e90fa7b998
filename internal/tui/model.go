// Package tui renders the dashboard in the terminal: a record list plus
// the engine's projections, with every panel feeding clicks back into the
// cross-filter loop.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/icastellano/oppanel/internal/cli"
	"github.com/icastellano/oppanel/internal/engine"
	"github.com/icastellano/oppanel/internal/model"
	"github.com/icastellano/oppanel/internal/rangesync"
)

// Panel identifies the focused interactive panel.
type Panel int

// Panels, in tab order.
const (
	PanelRecords Panel = iota
	PanelCategories
	PanelProvinces
	PanelBuyers
	panelCount
)

type refreshDoneMsg struct {
	err error
}

// rangeSettledMsg fires after a drag's debounce window so the view picks up
// the committed range.
type rangeSettledMsg struct{}

// Model holds the dashboard TUI state.
type Model struct {
	engine   *engine.Engine
	sync     *rangesync.Synchronizer
	snapshot engine.Snapshot
	records  []model.Record

	panel      Panel
	recordsTbl table.Model
	facetTbl   table.Model
	search     textinput.Model
	rangeInput textinput.Model
	spin       spinner.Model
	keys       KeyMap

	width      int
	height     int
	refreshing bool
	searching  bool
	ranging    bool
	lastErr    error
}

// NewModel creates the dashboard model over an engine and its range
// synchronizer. The synchronizer may be nil; range keys are then inert.
func NewModel(e *engine.Engine, sync *rangesync.Synchronizer) Model {
	search := textinput.New()
	search.Placeholder = "buscar..."
	search.CharLimit = 80

	rangeInput := textinput.New()
	rangeInput.Placeholder = "2024-01-01 2024-03-31"
	rangeInput.CharLimit = 21

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(cli.PrimaryColor)

	m := Model{
		engine:     e,
		sync:       sync,
		search:     search,
		rangeInput: rangeInput,
		spin:       spin,
		keys:       DefaultKeyMap(),
		width:      120,
		height:     40,
	}
	m.recordsTbl = newRecordsTable()
	m.facetTbl = newFacetTable()
	m.reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

func newRecordsTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Fecha", Width: 10},
			{Title: "Comprador", Width: 28},
			{Title: "Objeto", Width: 34},
			{Title: "Provincia", Width: 16},
			{Title: "Estado", Width: 10},
			{Title: "✓", Width: 2},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(cli.PrimaryColor)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#000000")).Background(cli.PrimaryColor)
	t.SetStyles(styles)
	return t
}

func newFacetTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Valor", Width: 36},
			{Title: "Peso", Width: 10},
		}),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(cli.PrimaryColor)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#000000")).Background(cli.AccentColor)
	t.SetStyles(styles)
	return t
}

// reload re-reads the engine state into the tables.
func (m *Model) reload() {
	m.snapshot = m.engine.Snapshot()
	m.records = m.engine.FilteredRecords()

	rows := make([]table.Row, 0, len(m.records))
	for i := range m.records {
		r := &m.records[i]
		date := ""
		if !r.OpenDate.IsZero() {
			date = r.OpenDate.Format("2006-01-02")
		}
		mark := ""
		if d, ok := m.engine.Decision(r.Key()); ok {
			if d == model.DecisionAccepted {
				mark = "✓"
			} else {
				mark = "✗"
			}
		}
		rows = append(rows, table.Row{date, r.Buyer, r.Title, r.Province, string(r.Status), mark})
	}
	m.recordsTbl.SetRows(rows)

	m.facetTbl.SetRows(m.facetRows())
}

func (m *Model) facetRows() []table.Row {
	format := func(ranking model.CategoryRanking) []table.Row {
		rows := make([]table.Row, 0, len(ranking))
		for _, entry := range ranking {
			rows = append(rows, table.Row{entry.Label, fmt.Sprintf("%.0f", entry.Weight)})
		}
		return rows
	}

	switch m.panel {
	case PanelCategories:
		return format(m.snapshot.Projections.Categories)
	case PanelBuyers:
		return format(m.snapshot.Projections.Buyers)
	case PanelProvinces:
		rollup := m.snapshot.Projections.Geography
		rows := make([]table.Row, 0, len(rollup))
		for _, label := range sortedGeoKeys(rollup) {
			rows = append(rows, table.Row{label, fmt.Sprintf("%d", rollup[label])})
		}
		return rows
	default:
		return nil
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshDoneMsg:
		m.refreshing = false
		m.lastErr = msg.err
		if msg.err == nil && m.sync != nil {
			// A fetch can change the domain; re-snap the selected range.
			m.sync.SetDomain(m.engine.Domain())
		}
		m.reload()
		return m, nil

	case rangeSettledMsg:
		if m.sync != nil {
			m.sync.Flush()
		}
		m.reload()
		return m, nil

	case spinner.TickMsg:
		if !m.refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.String() {
		case "enter":
			m.searching = false
			m.search.Blur()
			m.engine.Dispatch(engine.SearchSet{Query: m.search.Value()})
			m.reload()
			return m, nil
		case "esc":
			m.searching = false
			m.search.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}
	}

	if m.ranging {
		switch msg.String() {
		case "enter":
			m.ranging = false
			m.rangeInput.Blur()
			m.applyRangeInput()
			m.reload()
			return m, nil
		case "esc":
			m.ranging = false
			m.rangeInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.rangeInput, cmd = m.rangeInput.Update(msg)
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.FromBack):
		return m, m.nudgeRange(-1, 0)

	case key.Matches(msg, m.keys.FromFwd):
		return m, m.nudgeRange(1, 0)

	case key.Matches(msg, m.keys.ToBack):
		return m, m.nudgeRange(0, -1)

	case key.Matches(msg, m.keys.ToFwd):
		return m, m.nudgeRange(0, 1)

	case key.Matches(msg, m.keys.RangeEdit):
		if m.sync == nil {
			return m, nil
		}
		m.ranging = true
		if from, to, ok := m.sync.Range(); ok {
			m.rangeInput.SetValue(from.Format("2006-01-02") + " " + to.Format("2006-01-02"))
		}
		m.rangeInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.NextPanel):
		m.panel = (m.panel + 1) % panelCount
		m.facetTbl.SetRows(m.facetRows())
		m.facetTbl.SetCursor(0)
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		m.toggleSelection()
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		m.markSelected(model.DecisionAccepted)
		return m, nil

	case key.Matches(msg, m.keys.Reject):
		m.markSelected(model.DecisionRejected)
		return m, nil

	case key.Matches(msg, m.keys.CycleStatus):
		m.engine.Dispatch(engine.StatusSet{Status: nextStatus(m.snapshot.Filter.Status)})
		m.reload()
		return m, nil

	case key.Matches(msg, m.keys.CycleClass):
		m.engine.Dispatch(engine.BuyerClassSet{Class: nextClass(m.snapshot.Filter.BuyerClass)})
		m.reload()
		return m, nil

	case key.Matches(msg, m.keys.CycleDecision):
		m.engine.Dispatch(engine.DecisionFilterSet{Filter: nextDecision(m.snapshot.Filter.Decision)})
		m.reload()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.engine.Dispatch(engine.FiltersCleared{})
		m.search.SetValue("")
		m.reload()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing {
			return m, nil
		}
		m.refreshing = true
		e := m.engine
		return m, tea.Batch(m.spin.Tick, func() tea.Msg {
			return refreshDoneMsg{err: e.Refresh(context.Background())}
		})
	}

	// Remaining keys drive the focused table.
	var cmd tea.Cmd
	if m.panel == PanelRecords {
		m.recordsTbl, cmd = m.recordsTbl.Update(msg)
	} else {
		m.facetTbl, cmd = m.facetTbl.Update(msg)
	}
	return m, cmd
}

// nudgeRange moves a slider handle one domain step and schedules a reload
// for when the debounced commit settles.
func (m *Model) nudgeRange(dFrom, dTo int) tea.Cmd {
	if m.sync == nil {
		return nil
	}
	domain := m.engine.Domain()
	if domain.Len() == 0 {
		return nil
	}
	from, to := m.sync.Indices()
	if from < 0 || to < 0 {
		from, to = 0, domain.Len()-1
	}
	m.sync.SetIndices(from+dFrom, to+dTo)

	settle := m.sync.Debounce() + 10*time.Millisecond
	return tea.Tick(settle, func(time.Time) tea.Msg { return rangeSettledMsg{} })
}

// applyRangeInput parses the two date fields and commits them immediately,
// bypassing the drag debounce.
func (m *Model) applyRangeInput() {
	if m.sync == nil {
		return
	}
	fields := strings.Fields(m.rangeInput.Value())
	if len(fields) != 2 {
		return
	}
	from, errFrom := time.Parse("2006-01-02", fields[0])
	to, errTo := time.Parse("2006-01-02", fields[1])
	if errFrom != nil || errTo != nil {
		return
	}
	m.sync.SetDates(from, to)
}

// toggleSelection feeds the focused row back into the cross-filter loop.
func (m *Model) toggleSelection() {
	if m.panel == PanelRecords {
		return
	}
	row := m.facetTbl.SelectedRow()
	if row == nil {
		return
	}
	switch m.panel {
	case PanelCategories:
		m.engine.OnFacetActivated(model.FacetCategory, row[0])
	case PanelProvinces:
		m.engine.OnFacetActivated(model.FacetGeography, row[0])
	case PanelBuyers:
		m.engine.OnFacetActivated(model.FacetBuyer, row[0])
	}
	m.reload()
}

func (m *Model) markSelected(d model.Decision) {
	if m.panel != PanelRecords {
		return
	}
	idx := m.recordsTbl.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return
	}
	m.engine.MarkDecision(context.Background(), m.records[idx].Key(), d)
	m.reload()
}

func nextStatus(s model.Status) model.Status {
	switch s {
	case "":
		return model.StatusEmergency
	case model.StatusEmergency:
		return model.StatusRegular
	default:
		return ""
	}
}

func nextClass(c model.BuyerClass) model.BuyerClass {
	switch c {
	case model.BuyerClassAny:
		return model.BuyerClassPAMI
	case model.BuyerClassPAMI:
		return model.BuyerClassOther
	default:
		return model.BuyerClassAny
	}
}

func nextDecision(d model.DecisionFilter) model.DecisionFilter {
	switch d {
	case model.DecisionFilterAny:
		return model.DecisionFilterAccepted
	case model.DecisionFilterAccepted:
		return model.DecisionFilterRejected
	case model.DecisionFilterRejected:
		return model.DecisionFilterUnmarked
	default:
		return model.DecisionFilterAny
	}
}
