package keynav

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// PressSource tells where a press came from.
type PressSource int

const (
	PressKeyboard PressSource = iota
	PressMouse
)

// PressEvent is a completed press gesture.
type PressEvent struct {
	Source PressSource
	Key    string // keyboard presses only
	X, Y   int    // mouse presses only, in terminal cells
}

// Presser is the default PressResponder. A key matching Press, or a left
// button press, becomes a press delivered to OnPress.
type Presser struct {
	Keys    KeyMap
	OnPress func(node EventNode, ev PressEvent)
}

// NewPresser returns a presser using the default key map.
func NewPresser(onPress func(EventNode, PressEvent)) *Presser {
	return &Presser{Keys: DefaultKeyMap(), OnPress: onPress}
}

// OnKeyDown implements PressResponder.
func (p *Presser) OnKeyDown(node EventNode, ev *KeyEvent) {
	if !key.Matches(ev.Msg, p.Keys.Press) {
		return
	}
	ev.PreventDefault()
	if p.OnPress != nil {
		p.OnPress(node, PressEvent{Source: PressKeyboard, Key: ev.String()})
	}
}

// Translate implements PressResponder.
func (p *Presser) Translate(msg tea.Msg) (PressEvent, bool) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress {
			return PressEvent{Source: PressMouse, X: msg.X, Y: msg.Y}, true
		}
	case tea.KeyMsg:
		if key.Matches(msg, p.Keys.Press) {
			return PressEvent{Source: PressKeyboard, Key: msg.String()}, true
		}
	}
	return PressEvent{}, false
}
