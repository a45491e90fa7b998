package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding

	NextPanel key.Binding

	Accept key.Binding
	Reject key.Binding

	CycleStatus   key.Binding
	CycleClass    key.Binding
	CycleDecision key.Binding

	FromBack  key.Binding
	FromFwd   key.Binding
	ToBack    key.Binding
	ToFwd     key.Binding
	RangeEdit key.Binding

	Search  key.Binding
	Refresh key.Binding
	Clear   key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the standard shortcuts.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "arriba"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "abajo"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "filtrar"),
		),
		NextPanel: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "panel"),
		),
		Accept: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "aceptar"),
		),
		Reject: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "rechazar"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "estado"),
		),
		CycleClass: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pami"),
		),
		CycleDecision: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "decisión"),
		),
		FromBack: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "desde atrás"),
		),
		FromFwd: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "desde adelante"),
		),
		ToBack: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "hasta atrás"),
		),
		ToFwd: key.NewBinding(
			key.WithKeys("="),
			key.WithHelp("=", "hasta adelante"),
		),
		RangeEdit: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "rango por fecha"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "buscar"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "actualizar"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "limpiar filtros"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "salir"),
		),
	}
}
