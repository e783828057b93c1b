package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/vtree/pkg/tree"
)

func modelTree() *tree.Node {
	return tree.NewRoot(
		testParent("a", testLeaf("a1", ""), testParent("a2", testLeaf("a21", ""))),
		testParent("b", testLeaf("b1", "")),
		testLeaf("c", ""),
	)
}

func newTestModel(t *testing.T, root *tree.Node, opts ModelOptions) Model {
	t.Helper()
	theme := TestTheme()
	opts.Theme = &theme
	if opts.Tree == (Options{}) {
		opts.Tree = testOptions()
	}
	m := NewModel(root, opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	return next.(Model)
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, modelTree(), ModelOptions{})
	_, cmd := send(t, m, runeKey("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelCopyKeyConsumedByHandler(t *testing.T) {
	var copied string
	orig := clipboardWriteAll
	defer func() { clipboardWriteAll = orig }()
	clipboardWriteAll = func(s string) error {
		copied = s
		return nil
	}

	m := newTestModel(t, modelTree(), ModelOptions{})
	m, _ = send(t, m, keyMsg(tea.KeyDown))
	m, _ = send(t, m, runeKey("c"))

	if copied != "b" {
		t.Errorf("expected focused id b copied, got %q", copied)
	}
	if msg, isErr := m.Status(); isErr || !strings.Contains(msg, "Copied b") {
		t.Errorf("unexpected status %q (error=%v)", msg, isErr)
	}

	clipboardWriteAll = func(string) error { return errors.New("no clipboard") }
	m, _ = send(t, m, runeKey("c"))
	if msg, isErr := m.Status(); !isErr || !strings.Contains(msg, "no clipboard") {
		t.Errorf("expected clipboard error status, got %q", msg)
	}
}

func TestModelExpandCollapseAll(t *testing.T) {
	m := newTestModel(t, modelTree(), ModelOptions{})
	if n := len(m.Tree().Rows()); n != 3 {
		t.Fatalf("expected 3 top-level rows, got %d", n)
	}
	m, _ = send(t, m, runeKey("E"))
	if n := len(m.Tree().Rows()); n != 7 {
		t.Errorf("expected 7 rows after expand all, got %v", tree.IDs(m.Tree().Rows()))
	}
	m, _ = send(t, m, runeKey("W"))
	if n := len(m.Tree().Rows()); n != 3 {
		t.Errorf("expected 3 rows after collapse all, got %d", n)
	}
}

func TestModelTopBottom(t *testing.T) {
	m := newTestModel(t, modelTree(), ModelOptions{})
	m, _ = send(t, m, runeKey("G"))
	if id := m.Tree().FocusedID(); id != "c" {
		t.Errorf("expected c focused, got %q", id)
	}
	m, _ = send(t, m, runeKey("g"))
	if id := m.Tree().FocusedID(); id != "a" {
		t.Errorf("expected a focused, got %q", id)
	}
}

func TestModelPressOnLeafShowsID(t *testing.T) {
	m := newTestModel(t, modelTree(), ModelOptions{})
	m, _ = send(t, m, runeKey("G"))
	m, _ = send(t, m, keyMsg(tea.KeyEnter))
	if msg, _ := m.Status(); msg != "c" {
		t.Errorf("expected status c, got %q", msg)
	}
	m, _ = send(t, m, runeKey("g"))
	m, _ = send(t, m, keyMsg(tea.KeyEnter))
	if !m.Tree().Open().IsOpen("a") {
		t.Error("expected enter to open a")
	}
}

func TestModelReloadKeepsOpenStateAndFocus(t *testing.T) {
	loads := 0
	load := func(ctx context.Context) (*tree.Node, error) {
		loads++
		return tree.NewRoot(
			testParent("a", testLeaf("a1", ""), testParent("a2", testLeaf("a21", "")), testLeaf("a3", "")),
			testLeaf("c", ""),
		), nil
	}
	m := newTestModel(t, modelTree(), ModelOptions{Load: load})
	m, _ = send(t, m, keyMsg(tea.KeyRight)) // open a
	m, _ = send(t, m, keyMsg(tea.KeyDown))
	m, _ = send(t, m, keyMsg(tea.KeyDown)) // a2

	m, _ = send(t, m, m.reloadCmd()())
	if loads != 1 {
		t.Fatalf("expected one load, got %d", loads)
	}
	if id := m.Tree().FocusedID(); id != "a2" {
		t.Errorf("expected focus to stay on a2, got %q", id)
	}
	if got := strings.Join(tree.IDs(m.Tree().Rows()), ","); got != "a,a1,a2,a3,c" {
		t.Errorf("unexpected rows after reload: %s", got)
	}
	if msg, _ := m.Status(); !strings.Contains(msg, "Reloaded") {
		t.Errorf("unexpected status %q", msg)
	}
}

func TestModelReloadErrorKeepsTree(t *testing.T) {
	m := newTestModel(t, modelTree(), ModelOptions{})
	m, _ = send(t, m, DataLoadedMsg{Err: errors.New("disk on fire")})
	if msg, isErr := m.Status(); !isErr || !strings.Contains(msg, "disk on fire") {
		t.Errorf("expected reload error status, got %q", msg)
	}
	if len(m.Tree().Rows()) != 3 {
		t.Error("expected the previous tree to stay")
	}
}

func TestModelPersistsOpenState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open-state.json")
	m := newTestModel(t, modelTree(), ModelOptions{StatePath: path})
	m, _ = send(t, m, keyMsg(tea.KeyDown))
	send(t, m, keyMsg(tea.KeyRight)) // open b

	state, err := ReadOpenState(path)
	if err != nil {
		t.Fatal(err)
	}
	if !state.Open["b"] {
		t.Errorf("expected b stored open, got %v", state.Open)
	}

	again := newTestModel(t, modelTree(), ModelOptions{StatePath: path})
	if !again.Tree().Open().IsOpen("b") {
		t.Error("expected b open after restart")
	}
}

func TestModelHelpToggleResizesTree(t *testing.T) {
	m := newTestModel(t, modelTree(), ModelOptions{})
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 200, Height: 20})
	before := strings.Count(m.View(), "\n")
	m, _ = send(t, m, runeKey("?"))
	if !m.ShowingHelp() {
		t.Fatal("expected help to be shown")
	}
	if after := strings.Count(m.View(), "\n"); after != before {
		t.Errorf("expected the screen height to stay %d lines, got %d", before+1, after+1)
	}
	if !strings.Contains(m.View(), "expand all") {
		t.Error("expected full help in view")
	}
}

func TestModelViewFillsScreen(t *testing.T) {
	m := newTestModel(t, modelTree(), ModelOptions{})
	view := m.View()
	lines := strings.Split(view, "\n")
	if len(lines) != 20 {
		t.Errorf("expected 20 lines, got %d", len(lines))
	}
	last := lines[len(lines)-1]
	if !strings.Contains(last, "vt") || !strings.Contains(last, "1/3") {
		t.Errorf("unexpected status bar %q", last)
	}
}

func TestModelRemeasureMsgRearmsMarkdown(t *testing.T) {
	md := NewMarkdown("notty")
	defer md.Close()
	m := newTestModel(t, modelTree(), ModelOptions{Markdown: md})
	m.View()
	_, cmd := send(t, m, RemeasureMsg{ID: "a"})
	if cmd == nil {
		t.Error("expected the markdown wait to be re-armed")
	}
}

func TestModelFileChangeTriggersOneReload(t *testing.T) {
	load := func(ctx context.Context) (*tree.Node, error) { return modelTree(), nil }
	m := newTestModel(t, modelTree(), ModelOptions{Load: load})

	m, cmd := send(t, m, FileChangedMsg{Paths: []string{"/tmp/a.json"}})
	if cmd == nil || !m.reloading {
		t.Fatal("expected a reload to start")
	}
	m, _ = send(t, m, FileChangedMsg{Paths: []string{"/tmp/a.json"}})
	if !m.reloading {
		t.Error("expected the reload to still be in flight")
	}
	m, _ = send(t, m, m.reloadCmd()())
	if m.reloading {
		t.Error("expected the reload to finish")
	}
}
