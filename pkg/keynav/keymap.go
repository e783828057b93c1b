package keynav

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds the bindings the router and the press responder react to.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Press key.Binding
}

// DefaultKeyMap returns arrow and vim-style bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Right: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Press: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Right, k.Left}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Right, k.Left},
		{k.Press},
	}
}
