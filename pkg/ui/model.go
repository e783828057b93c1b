package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/vtree/pkg/debug"
	"github.com/vanderheijden86/vtree/pkg/keynav"
	"github.com/vanderheijden86/vtree/pkg/tree"
	"github.com/vanderheijden86/vtree/pkg/watcher"
)

// reloadTimeout bounds one reload of every source.
const reloadTimeout = 30 * time.Second

// Default dimensions used until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 80
	defaultHeight = 24
)

// clipboardWriteAll is replaced in tests.
var clipboardWriteAll = clipboard.WriteAll

// LoadFunc loads the tree from the configured sources.
type LoadFunc func(ctx context.Context) (*tree.Node, error)

// DataLoadedMsg carries the result of a reload.
type DataLoadedMsg struct {
	Root *tree.Node
	Err  error
}

// FileChangedMsg is sent when watched sources change on disk.
type FileChangedMsg struct {
	Paths []string
}

// WatchSourcesCmd waits for the next change reported by w.
func WatchSourcesCmd(w *watcher.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		c := <-w.Changes()
		return FileChangedMsg{Paths: c.Paths}
	}
}

// ModelOptions configures the application model.
type ModelOptions struct {
	Tree Options
	// OpenDepth is the number of levels open by default.
	OpenDepth int
	// Load reloads the tree; nil disables reloading.
	Load LoadFunc
	// Watcher is a started watcher whose changes trigger a reload.
	Watcher *watcher.Watcher
	// StatePath is the open state file; "" disables persistence.
	StatePath string
	// Markdown renders leaf bodies; nil shows only their first line.
	Markdown *Markdown
	Theme    *Theme
}

// shell is the state shared between the model and the callbacks it hands
// to the tree view. bubbletea copies Model on every update, so anything the
// callbacks write lives behind this pointer.
type shell struct {
	keys          AppKeyMap
	store         OpenStore
	root          *tree.Node
	open          *tree.OpenSet
	statusMsg     string
	statusIsError bool
}

func (s *shell) setStatus(msg string, isError bool) {
	s.statusMsg = msg
	s.statusIsError = isError
}

// onNodeKeyDown gets first refusal on every key of the focused row.
func (s *shell) onNodeKeyDown(node keynav.EventNode, ev *keynav.KeyEvent) {
	if !key.Matches(ev.Msg, s.keys.Copy) {
		return
	}
	ev.PreventDefault()
	if err := clipboardWriteAll(node.ID()); err != nil {
		s.setStatus(fmt.Sprintf("❌ Clipboard error: %v", err), true)
		return
	}
	s.setStatus(fmt.Sprintf("📋 Copied %s to clipboard", node.ID()), false)
}

func (s *shell) onNodePress(node keynav.EventNode, ev keynav.PressEvent) {
	switch node.Type {
	case keynav.NodeParent:
		node.SetOpen(!node.IsOpen)
	case keynav.NodeLeaf:
		s.setStatus(node.ID(), false)
	}
}

func (s *shell) onOpenChange(string, bool) {
	s.store.Save(s.root, s.open)
}

// Model is the vt application: the tree view, a status bar and live reload.
type Model struct {
	tree     TreeView
	theme    Theme
	keys     AppKeyMap
	help     help.Model
	showHelp bool
	md       *Markdown
	sh       *shell

	load      LoadFunc
	watcher   *watcher.Watcher
	openDepth int
	reloading bool

	width, height int
}

// NewModel returns the application model showing root.
func NewModel(root *tree.Node, opts ModelOptions) Model {
	if root == nil {
		root = tree.NewRoot()
	}
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	keys := DefaultAppKeyMap()

	open := tree.NewOpenSet()
	open.Default = tree.DepthDefault(root, opts.OpenDepth)
	sh := &shell{
		keys:  keys,
		store: OpenStore{Path: opts.StatePath},
		root:  root,
		open:  open,
	}
	sh.store.Restore(root, open)

	tv := NewTreeView(root, open, opts.Tree, theme,
		DefaultLeafRenderer(theme, opts.Markdown),
		DefaultParentRenderer(theme),
	)
	tv.Keys = keys.Nav
	tv.OnNodeKeyDown = sh.onNodeKeyDown
	tv.OnNodePress = sh.onNodePress
	tv.OnOpenChange = sh.onOpenChange

	h := help.New()
	h.Styles.ShortKey = theme.PrimaryBold
	h.Styles.FullKey = theme.PrimaryBold
	h.Styles.ShortDesc = theme.MutedText
	h.Styles.FullDesc = theme.MutedText

	m := Model{
		tree:      tv,
		theme:     theme,
		keys:      keys,
		help:      h,
		md:        opts.Markdown,
		sh:        sh,
		load:      opts.Load,
		watcher:   opts.Watcher,
		openDepth: opts.OpenDepth,
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tree.Init()}
	if m.md != nil {
		cmds = append(cmds, m.md.Wait())
	}
	cmds = append(cmds, WatchSourcesCmd(m.watcher))
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, m.tree.scheduleMeasure()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.tree.Update(msg)

	case RemeasureMsg:
		cmds = append(cmds, m.tree.Update(msg))
		if m.md != nil {
			cmds = append(cmds, m.md.Wait())
		}
		return m, tea.Batch(cmds...)

	case FileChangedMsg:
		debug.Log("reload: change detected in %s", strings.Join(msg.Paths, ", "))
		cmds = append(cmds, WatchSourcesCmd(m.watcher))
		if !m.reloading && m.load != nil {
			m.reloading = true
			cmds = append(cmds, m.reloadCmd())
		}
		return m, tea.Batch(cmds...)

	case DataLoadedMsg:
		m.reloading = false
		if msg.Err != nil {
			m.sh.setStatus(fmt.Sprintf("Reload error: %v", msg.Err), true)
			return m, nil
		}
		m.applyTree(msg.Root)
		m.sh.setStatus(fmt.Sprintf("Reloaded %d nodes", tree.Count(msg.Root)), false)
		return m, m.tree.scheduleMeasure()
	}

	return m, m.tree.Update(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.resize(m.width, m.height)
		return m, m.tree.scheduleMeasure()
	}

	m.sh.statusMsg = ""
	ev, cmd := m.tree.HandleKey(msg)
	if ev.DefaultPrevented() {
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.ExpandAll):
		m.tree.ExpandAll()
		m.sh.store.Save(m.sh.root, m.sh.open)
	case key.Matches(msg, m.keys.CollapseAll):
		m.tree.CollapseAll()
		m.sh.store.Save(m.sh.root, m.sh.open)
	case key.Matches(msg, m.keys.Top):
		m.tree.FocusFirst()
	case key.Matches(msg, m.keys.Bottom):
		m.tree.FocusLast()
	case key.Matches(msg, m.keys.PageDown):
		return m, tea.Batch(cmd, m.tree.PageDown())
	case key.Matches(msg, m.keys.PageUp):
		return m, tea.Batch(cmd, m.tree.PageUp())
	case key.Matches(msg, m.keys.Reload):
		if m.load == nil || m.reloading {
			return m, cmd
		}
		m.reloading = true
		m.sh.setStatus("Reloading…", false)
		return m, tea.Batch(cmd, m.reloadCmd())
	}
	return m, tea.Batch(cmd, m.tree.scheduleMeasure())
}

func (m Model) reloadCmd() tea.Cmd {
	load := m.load
	if load == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		root, err := load(ctx)
		return DataLoadedMsg{Root: root, Err: err}
	}
}

// applyTree swaps in a reloaded tree. Open state and focus carry over by id.
func (m *Model) applyTree(root *tree.Node) {
	if root == nil {
		root = tree.NewRoot()
	}
	m.sh.root = root
	m.sh.open.Default = tree.DepthDefault(root, m.openDepth)
	m.tree.SetTree(root)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	m.tree.SetSize(width, max(height-m.footerHeight(), 0))
}

func (m *Model) footerHeight() int {
	if m.showHelp {
		return 1 + lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp()))
	}
	return 1
}

// View implements tea.Model.
func (m Model) View() string {
	body := m.tree.View()
	footer := m.renderFooter()
	if m.showHelp {
		footer = m.help.FullHelpView(m.keys.FullHelp()) + "\n" + footer
	}
	if body == "" {
		return footer
	}
	return body + "\n" + footer
}

func (m Model) renderFooter() string {
	badge := m.theme.StatusKey.Render("vt")
	right := m.theme.StatusInfo.Render(fmt.Sprintf("%s · %d/%d measured",
		m.tree.PositionIndicator(),
		m.tree.Positioner().MeasuredCount(),
		len(m.tree.Rows()),
	))

	var middle string
	switch {
	case m.sh.statusMsg != "" && m.sh.statusIsError:
		middle = m.theme.Error.Render(" " + m.sh.statusMsg)
	case m.sh.statusMsg != "":
		middle = m.theme.Success.Render(m.sh.statusMsg)
	default:
		middle = " " + m.help.ShortHelpView(m.keys.ShortHelp())
	}

	room := m.width - lipgloss.Width(badge) - lipgloss.Width(right)
	if room < 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(badge + right)
	}
	if lipgloss.Width(middle) > room {
		middle = lipgloss.NewStyle().MaxWidth(room).Render(middle)
	}
	gap := strings.Repeat(" ", max(room-lipgloss.Width(middle), 0))
	return m.theme.StatusBar.Render(badge + middle + gap + right)
}

// Stop releases the watcher and background renders.
func (m Model) Stop() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
	if m.md != nil {
		m.md.Close()
	}
}

// Tree returns the tree view.
func (m Model) Tree() *TreeView { return &m.tree }

// Status returns the current status message.
func (m Model) Status() (string, bool) { return m.sh.statusMsg, m.sh.statusIsError }

// ShowingHelp reports whether the full help is shown.
func (m Model) ShowingHelp() bool { return m.showHelp }
