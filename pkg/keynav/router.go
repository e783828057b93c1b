// Package keynav routes key events on a focused tree row.
//
// The caller's OnNodeKeyDown handler always runs first. If it calls
// PreventDefault the event is finished; otherwise the arrow keys move focus
// or open and close parents, and every other key is forwarded to the press
// responder.
package keynav

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/vtree/pkg/tree"
)

// NodeType discriminates EventNode payloads.
type NodeType int

const (
	NodeLeaf NodeType = iota
	NodeParent
)

func (t NodeType) String() string {
	switch t {
	case NodeLeaf:
		return "leaf"
	case NodeParent:
		return "parent"
	default:
		return "unknown"
	}
}

// EventNode describes the row an event was delivered to.
type EventNode struct {
	Type    NodeType
	Row     tree.FlattenedRow
	IsOpen  bool
	SetOpen func(open bool)
}

// NewEventNode builds the payload for row. setOpen may be nil for leaves.
func NewEventNode(row tree.FlattenedRow, setOpen func(id string, open bool)) EventNode {
	ev := EventNode{Row: row, IsOpen: row.IsOpen}
	switch row.Node.Kind {
	case tree.KindParent:
		ev.Type = NodeParent
	case tree.KindLeaf:
		ev.Type = NodeLeaf
	}
	id := row.ID()
	ev.SetOpen = func(open bool) {
		if setOpen != nil {
			setOpen(id, open)
		}
	}
	return ev
}

// ID returns the node id of the event target.
func (n EventNode) ID() string { return n.Row.ID() }

// KeyEvent wraps a key message with a default-prevented flag.
type KeyEvent struct {
	Msg       tea.KeyMsg
	prevented bool
}

// PreventDefault suppresses built-in handling of the event.
func (e *KeyEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether the event has been handled.
func (e *KeyEvent) DefaultPrevented() bool { return e.prevented }

// String returns the key name, e.g. "down" or "ctrl+c".
func (e *KeyEvent) String() string { return e.Msg.String() }

// FocusManager moves focus between rows.
type FocusManager interface {
	FocusNext() bool
	FocusPrevious() bool
}

// PressResponder turns keys and gestures into presses.
type PressResponder interface {
	// OnKeyDown receives keys the router does not handle itself.
	OnKeyDown(node EventNode, ev *KeyEvent)
	// Translate maps a raw gesture message to a press.
	Translate(msg tea.Msg) (PressEvent, bool)
}

// Router applies built-in navigation after the caller's handler.
type Router struct {
	Keys          KeyMap
	Focus         FocusManager
	Press         PressResponder
	OnNodeKeyDown func(node EventNode, ev *KeyEvent)
}

// NewRouter returns a router with the default key map.
func NewRouter(focus FocusManager, press PressResponder) *Router {
	return &Router{
		Keys:  DefaultKeyMap(),
		Focus: focus,
		Press: press,
	}
}

// HandleKey routes msg for node and returns the event so callers can see
// whether anything consumed it. Panics from handlers are not recovered.
func (r *Router) HandleKey(node EventNode, msg tea.KeyMsg) *KeyEvent {
	ev := &KeyEvent{Msg: msg}
	if r.OnNodeKeyDown != nil {
		r.OnNodeKeyDown(node, ev)
		if ev.DefaultPrevented() {
			return ev
		}
	}

	switch {
	case key.Matches(msg, r.Keys.Down):
		if r.Focus != nil {
			r.Focus.FocusNext()
		}
	case key.Matches(msg, r.Keys.Up):
		if r.Focus != nil {
			r.Focus.FocusPrevious()
		}
	case key.Matches(msg, r.Keys.Right):
		if node.Type == NodeParent && !node.IsOpen && node.SetOpen != nil {
			node.SetOpen(true)
		}
	case key.Matches(msg, r.Keys.Left):
		if node.Type == NodeParent && node.IsOpen && node.SetOpen != nil {
			node.SetOpen(false)
		}
	default:
		if r.Press != nil {
			r.Press.OnKeyDown(node, ev)
		}
		return ev
	}

	ev.PreventDefault()
	return ev
}
