package keynav

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/vtree/pkg/tree"
)

type fakeFocus struct {
	next, prev int
}

func (f *fakeFocus) FocusNext() bool     { f.next++; return true }
func (f *fakeFocus) FocusPrevious() bool { f.prev++; return true }

type fixture struct {
	router  *Router
	focus   *fakeFocus
	open    *tree.OpenSet
	presses []PressEvent
}

func newFixture() *fixture {
	f := &fixture{focus: &fakeFocus{}, open: tree.NewOpenSet()}
	f.router = NewRouter(f.focus, NewPresser(func(_ EventNode, ev PressEvent) {
		f.presses = append(f.presses, ev)
	}))
	return f
}

func (f *fixture) node(n *tree.Node) EventNode {
	row := tree.FlattenedRow{Node: n, IsOpen: n.IsParent() && f.open.IsOpen(n.ID)}
	return NewEventNode(row, func(id string, open bool) { f.open.SetOpen(id, open) })
}

func keyMsg(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runeMsg(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func TestArrowsMoveFocus(t *testing.T) {
	f := newFixture()
	leaf := f.node(tree.NewLeaf("a", nil))

	if ev := f.router.HandleKey(leaf, keyMsg(tea.KeyDown)); !ev.DefaultPrevented() {
		t.Error("expected down to be handled")
	}
	f.router.HandleKey(leaf, runeMsg('j'))
	f.router.HandleKey(leaf, keyMsg(tea.KeyUp))
	if f.focus.next != 2 || f.focus.prev != 1 {
		t.Errorf("expected 2 next and 1 previous, got %d and %d", f.focus.next, f.focus.prev)
	}
}

func TestRightOpensClosedParentOnly(t *testing.T) {
	f := newFixture()
	parent := tree.NewParent("p", nil, tree.NewLeaf("c", nil))

	f.router.HandleKey(f.node(parent), keyMsg(tea.KeyRight))
	if !f.open.IsOpen("p") {
		t.Fatal("expected right to open the parent")
	}

	// On an open parent, or a leaf, right is consumed without effect.
	if ev := f.router.HandleKey(f.node(parent), keyMsg(tea.KeyRight)); !ev.DefaultPrevented() || !f.open.IsOpen("p") {
		t.Error("expected right on an open parent to keep it open")
	}
	if ev := f.router.HandleKey(f.node(tree.NewLeaf("c", nil)), keyMsg(tea.KeyRight)); !ev.DefaultPrevented() {
		t.Error("expected right on a leaf to be consumed")
	}
}

func TestLeftClosesOpenParent(t *testing.T) {
	f := newFixture()
	parent := tree.NewParent("p", nil)
	f.open.SetOpen("p", true)

	f.router.HandleKey(f.node(parent), runeMsg('h'))
	if f.open.IsOpen("p") {
		t.Error("expected left to close the parent")
	}
}

func TestCallerHandlerHasFirstRefusal(t *testing.T) {
	f := newFixture()
	var seen []string
	f.router.OnNodeKeyDown = func(n EventNode, ev *KeyEvent) {
		seen = append(seen, n.Type.String()+":"+ev.String())
		if ev.Msg.Type == tea.KeyRight {
			ev.PreventDefault()
		}
	}
	parent := tree.NewParent("p", nil)

	ev := f.router.HandleKey(f.node(parent), keyMsg(tea.KeyRight))
	if !ev.DefaultPrevented() {
		t.Error("expected event to report the caller's prevention")
	}
	if f.open.IsOpen("p") {
		t.Error("expected parent to stay closed when the caller handled right")
	}

	f.router.HandleKey(f.node(parent), keyMsg(tea.KeyDown))
	if f.focus.next != 1 {
		t.Error("expected unhandled keys to keep built-in behavior")
	}
	if len(seen) != 2 || seen[0] != "parent:right" {
		t.Errorf("expected handler to see every key first, got %v", seen)
	}
}

func TestOtherKeysForwardToPress(t *testing.T) {
	f := newFixture()
	leaf := f.node(tree.NewLeaf("a", nil))

	if ev := f.router.HandleKey(leaf, keyMsg(tea.KeyEnter)); !ev.DefaultPrevented() {
		t.Error("expected enter to be consumed by the presser")
	}
	if len(f.presses) != 1 || f.presses[0].Source != PressKeyboard {
		t.Fatalf("expected one keyboard press, got %+v", f.presses)
	}

	if ev := f.router.HandleKey(leaf, runeMsg('x')); ev.DefaultPrevented() {
		t.Error("expected unbound key to pass through")
	}
	if len(f.presses) != 1 {
		t.Error("expected unbound key not to press")
	}
}

func TestPanicsPropagate(t *testing.T) {
	f := newFixture()
	f.router.OnNodeKeyDown = func(EventNode, *KeyEvent) { panic("boom") }
	defer func() {
		if recover() == nil {
			t.Error("expected handler panic to reach the caller")
		}
	}()
	f.router.HandleKey(f.node(tree.NewLeaf("a", nil)), keyMsg(tea.KeyDown))
}

func TestTranslateMouse(t *testing.T) {
	p := NewPresser(nil)
	ev, ok := p.Translate(tea.MouseMsg{X: 3, Y: 7, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if !ok || ev.Source != PressMouse || ev.Y != 7 {
		t.Errorf("expected mouse press at y=7, got %+v ok=%v", ev, ok)
	}
	if _, ok := p.Translate(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress}); ok {
		t.Error("expected wheel not to press")
	}
}

func TestEventNodeDiscriminates(t *testing.T) {
	leaf := NewEventNode(tree.FlattenedRow{Node: tree.NewLeaf("l", nil)}, nil)
	parent := NewEventNode(tree.FlattenedRow{Node: tree.NewParent("p", nil), IsOpen: true}, nil)
	if leaf.Type != NodeLeaf || parent.Type != NodeParent || !parent.IsOpen {
		t.Errorf("unexpected payloads: %+v %+v", leaf, parent)
	}
	parent.SetOpen(false) // nil mutator must be safe
	if parent.ID() != "p" {
		t.Errorf("expected id p, got %s", parent.ID())
	}
}
