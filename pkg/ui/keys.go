package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/vanderheijden86/vtree/pkg/keynav"
)

// AppKeyMap holds the application keys. Navigation keys live in the
// keynav.KeyMap of the tree view; these only apply when the focused row
// did not consume the key.
type AppKeyMap struct {
	Nav         keynav.KeyMap
	Quit        key.Binding
	Help        key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Top         key.Binding
	Bottom      key.Binding
	PageDown    key.Binding
	PageUp      key.Binding
	Reload      key.Binding
	Copy        key.Binding
}

// DefaultAppKeyMap returns the default application keys.
func DefaultAppKeyMap() AppKeyMap {
	return AppKeyMap{
		Nav: keynav.DefaultKeyMap(),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ExpandAll: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "expand all"),
		),
		CollapseAll: key.NewBinding(
			key.WithKeys("W"),
			key.WithHelp("W", "collapse all"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f"),
			key.WithHelp("pgdn", "page down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("pgup", "page up"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy id"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k AppKeyMap) ShortHelp() []key.Binding {
	return append(k.Nav.ShortHelp(), k.Copy, k.Help, k.Quit)
}

// FullHelp implements help.KeyMap.
func (k AppKeyMap) FullHelp() [][]key.Binding {
	return append(k.Nav.FullHelp(),
		[]key.Binding{k.Top, k.Bottom, k.PageDown, k.PageUp},
		[]key.Binding{k.ExpandAll, k.CollapseAll, k.Reload, k.Copy},
		[]key.Binding{k.Help, k.Quit},
	)
}
