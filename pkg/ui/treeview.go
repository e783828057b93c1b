package ui

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/vtree/pkg/config"
	"github.com/vanderheijden86/vtree/pkg/debug"
	"github.com/vanderheijden86/vtree/pkg/keynav"
	"github.com/vanderheijden86/vtree/pkg/layout"
	"github.com/vanderheijden86/vtree/pkg/measure"
	"github.com/vanderheijden86/vtree/pkg/metrics"
	"github.com/vanderheijden86/vtree/pkg/tree"
)

// frameInterval is the scroll batching period: scroll input received
// within one interval is applied in a single pass.
const frameInterval = 16 * time.Millisecond

// wheelStep is the number of lines one wheel notch scrolls.
const wheelStep = 3

// Options configures a TreeView.
type Options struct {
	ShowRoot bool
	// IndentSize is the left margin per nesting level; nil disables it.
	IndentSize *int
	// ShouldMeasure enables measuring rendered rows. When false every row is
	// FixedRowHeight lines tall.
	ShouldMeasure      bool
	FixedRowHeight     int
	EstimatedRowHeight int
	AdaptiveEstimate   bool
	Overscan           int
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Tree)
}

// OptionsFromConfig converts the tree section of the configuration.
func OptionsFromConfig(c config.TreeConfig) Options {
	return Options{
		ShowRoot:           c.ShowRoot,
		IndentSize:         c.Indent(),
		ShouldMeasure:      c.Measure(),
		FixedRowHeight:     c.FixedRowHeight,
		EstimatedRowHeight: c.EstimatedRowHeight,
		AdaptiveEstimate:   c.AdaptiveEstimate,
		Overscan:           c.OverscanLines(),
	}
}

// measureMsg runs a measurement flush after the frame it follows.
type measureMsg struct{ view int64 }

// frameMsg applies the scroll input accumulated since the last frame.
type frameMsg struct{ view int64 }

var viewIDs atomic.Int64

// TreeView is the virtualized tree list. It flattens the tree, positions the
// rows, draws only the rows intersecting the viewport (plus overscan) and
// feeds measured heights back into the positioner.
type TreeView struct {
	id    int64
	opts  Options
	theme Theme
	Keys  keynav.KeyMap

	root *tree.Node
	open *tree.OpenSet
	rows []tree.FlattenedRow
	gen  uint64 // bumped whenever the tree is replaced
	look uint64 // bumped whenever the theme changes

	pos     *layout.Positioner
	sched   *measure.Scheduler
	frame   *Frame
	rr      *RowRenderer
	mounted map[string]bool

	width, height int
	scrollTop     int
	cursor        int
	lo, hi        int
	followCursor  bool

	pendingScroll  int
	frameScheduled bool

	// OnNodeKeyDown sees every key first and may call PreventDefault.
	OnNodeKeyDown func(node keynav.EventNode, ev *keynav.KeyEvent)
	// OnNodePress handles presses; nil toggles parents.
	OnNodePress func(node keynav.EventNode, ev keynav.PressEvent)
	// OnOpenChange is called after a parent was opened or closed.
	OnOpenChange func(id string, open bool)
}

// NewTreeView returns a view over root. open is the caller-owned open state;
// nil creates an empty set.
func NewTreeView(root *tree.Node, open *tree.OpenSet, opts Options, theme Theme, leaf RenderLeafFunc, parent RenderParentFunc) TreeView {
	if root == nil {
		root = tree.NewRoot()
	}
	if open == nil {
		open = tree.NewOpenSet()
	}
	estimate := opts.EstimatedRowHeight
	if !opts.ShouldMeasure {
		estimate = opts.FixedRowHeight
	}
	pos := layout.New(layout.Options{
		EstimatedHeight:  estimate,
		AdaptiveEstimate: opts.AdaptiveEstimate && opts.ShouldMeasure,
	})
	rr := NewRowRenderer(theme, leaf, parent)
	rr.ShowRoot = opts.ShowRoot
	rr.IndentSize = opts.IndentSize

	v := TreeView{
		id:      viewIDs.Add(1),
		opts:    opts,
		theme:   theme,
		Keys:    keynav.DefaultKeyMap(),
		root:    root,
		open:    open,
		pos:     pos,
		sched:   measure.NewScheduler(measure.OwnerFunc(pos.ReportHeight), opts.ShouldMeasure),
		frame:   NewFrame(),
		rr:      rr,
		mounted: make(map[string]bool),
	}
	v.reflow()
	return v
}

// Init schedules the first measurement.
func (v *TreeView) Init() tea.Cmd {
	return v.scheduleMeasure()
}

// Update handles the view's own messages and scroll input. Keys go through
// HandleKey so the caller can see whether they were consumed.
func (v *TreeView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case measureMsg:
		if msg.view != v.id {
			return nil
		}
		return v.flush()

	case frameMsg:
		if msg.view != v.id {
			return nil
		}
		v.applyScroll()
		return v.scheduleMeasure()

	case RemeasureMsg:
		if v.Remeasure(msg.ID) {
			return v.scheduleMeasure()
		}
		return nil

	case tea.MouseMsg:
		return v.handleMouse(msg)

	case tea.KeyMsg:
		_, cmd := v.HandleKey(msg)
		return cmd
	}
	return nil
}

// HandleKey routes a key through the navigation router on the focused row.
// The returned event tells whether anything consumed the key.
func (v *TreeView) HandleKey(msg tea.KeyMsg) (*keynav.KeyEvent, tea.Cmd) {
	row, ok := v.FocusedRow()
	if !ok {
		return &keynav.KeyEvent{Msg: msg}, nil
	}
	presser := keynav.NewPresser(v.press)
	presser.Keys = v.Keys
	router := keynav.NewRouter(v, presser)
	router.Keys = v.Keys
	router.OnNodeKeyDown = v.OnNodeKeyDown

	ev := router.HandleKey(keynav.NewEventNode(row, v.SetOpen), msg)
	return ev, v.scheduleMeasure()
}

func (v *TreeView) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action == tea.MouseActionPress {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return v.ScrollBy(-wheelStep)
		case tea.MouseButtonWheelDown:
			return v.ScrollBy(wheelStep)
		}
	}
	presser := keynav.NewPresser(v.press)
	pe, ok := presser.Translate(msg)
	if !ok || msg.Y < 0 || msg.Y >= v.height {
		return nil
	}
	y := v.scrollTop + msg.Y
	// blank space below the last row
	if y >= v.pos.TotalHeight() {
		return nil
	}
	i := v.pos.IndexAt(y)
	if !v.focusable(i) {
		return nil
	}
	v.cursor = i
	v.followCursor = true
	v.press(keynav.NewEventNode(v.rows[i], v.SetOpen), pe)
	return v.scheduleMeasure()
}

// press is the default press responder target.
func (v *TreeView) press(node keynav.EventNode, ev keynav.PressEvent) {
	if v.OnNodePress != nil {
		v.OnNodePress(node, ev)
		return
	}
	if node.Type == keynav.NodeParent {
		node.SetOpen(!node.IsOpen)
	}
}

// FocusNext implements keynav.FocusManager.
func (v *TreeView) FocusNext() bool {
	for i := v.cursor + 1; i < len(v.rows); i++ {
		if v.focusable(i) {
			v.focus(i)
			return true
		}
	}
	return false
}

// FocusPrevious implements keynav.FocusManager.
func (v *TreeView) FocusPrevious() bool {
	for i := v.cursor - 1; i >= 0; i-- {
		if v.focusable(i) {
			v.focus(i)
			return true
		}
	}
	return false
}

// FocusFirst moves focus to the first row.
func (v *TreeView) FocusFirst() {
	for i := range v.rows {
		if v.focusable(i) {
			v.focus(i)
			return
		}
	}
}

// FocusLast moves focus to the last row.
func (v *TreeView) FocusLast() {
	for i := len(v.rows) - 1; i >= 0; i-- {
		if v.focusable(i) {
			v.focus(i)
			return
		}
	}
}

func (v *TreeView) focus(i int) {
	v.cursor = i
	v.followCursor = true
	v.ensureCursorVisible()
}

// the synthetic root row has no content and never takes focus
func (v *TreeView) focusable(i int) bool {
	return i >= 0 && i < len(v.rows) && !v.rows[i].Node.IsRoot()
}

// SetOpen opens or closes parent id and reflows the rows.
func (v *TreeView) SetOpen(id string, open bool) {
	if !v.open.SetOpen(id, open) {
		return
	}
	debug.Log("tree: %s open=%v", id, open)
	v.reflow()
	if v.OnOpenChange != nil {
		v.OnOpenChange(id, open)
	}
}

// ExpandAll opens every parent.
func (v *TreeView) ExpandAll() {
	v.open.SetAll(v.root, true)
	v.reflow()
}

// CollapseAll closes every parent.
func (v *TreeView) CollapseAll() {
	v.open.SetAll(v.root, false)
	v.reflow()
}

// SetTree replaces the tree, keeping open state, focus and measured heights
// of rows that still exist.
func (v *TreeView) SetTree(root *tree.Node) {
	if root == nil {
		root = tree.NewRoot()
	}
	v.root = root
	v.gen++
	v.rr.Reset()
	v.reflow()
}

// SelectByID opens the ancestors of id and focuses it.
func (v *TreeView) SelectByID(id string) bool {
	if !v.open.Reveal(v.root, id) {
		return false
	}
	v.reflow()
	i := v.pos.IndexOf(id)
	if !v.focusable(i) {
		return false
	}
	v.focus(i)
	return true
}

// SetSize sets the viewport in cells.
func (v *TreeView) SetSize(width, height int) {
	if width == v.width && height == v.height {
		return
	}
	v.width, v.height = width, height
	if v.followCursor {
		v.ensureCursorVisible()
		return
	}
	v.window()
}

// SetTheme switches the theme; every row is re-rendered and re-measured.
func (v *TreeView) SetTheme(theme Theme) {
	v.theme = theme
	v.look++
	v.rr.theme = theme
	v.rr.Reset()
}

// Remeasure drops the cached block of id and measures it again after the
// next frame. It reports false for rows that are not rendered.
func (v *TreeView) Remeasure(id string) bool {
	v.rr.Invalidate(id)
	return v.sched.Remeasure(id)
}

// ScrollBy queues a scroll of delta lines, applied on the next frame tick.
func (v *TreeView) ScrollBy(delta int) tea.Cmd {
	v.pendingScroll += delta
	if v.frameScheduled {
		return nil
	}
	v.frameScheduled = true
	id := v.id
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{view: id}
	})
}

// PageDown scrolls one viewport down.
func (v *TreeView) PageDown() tea.Cmd { return v.ScrollBy(max(v.height-1, 1)) }

// PageUp scrolls one viewport up.
func (v *TreeView) PageUp() tea.Cmd { return v.ScrollBy(-max(v.height-1, 1)) }

func (v *TreeView) applyScroll() {
	v.frameScheduled = false
	if v.pendingScroll == 0 {
		return
	}
	v.scrollTop += v.pendingScroll
	v.pendingScroll = 0
	v.followCursor = false
	v.window()

	// keep focus on a row that is at least partly on screen
	if len(v.rows) == 0 {
		return
	}
	top := v.pos.Offset(v.cursor)
	bottom := top + v.pos.Height(v.cursor).Height
	if bottom > v.scrollTop && top < v.scrollTop+v.height {
		return
	}
	i := v.pos.IndexAt(v.scrollTop)
	if top >= v.scrollTop+v.height {
		i = v.pos.IndexAt(v.scrollTop + v.height - 1)
	}
	for i >= 0 && i < len(v.rows) && !v.focusable(i) {
		i++
	}
	if v.focusable(i) {
		v.cursor = i
	}
}

func (v *TreeView) ensureCursorVisible() {
	if len(v.rows) == 0 || v.height <= 0 {
		v.window()
		return
	}
	top := v.pos.Offset(v.cursor)
	bottom := top + v.pos.Height(v.cursor).Height
	switch {
	case top < v.scrollTop:
		v.scrollTop = top
	case bottom > v.scrollTop+v.height:
		// rows taller than the viewport are pinned at their top
		v.scrollTop = min(bottom-v.height, top)
	}
	v.window()
}

// reflow re-flattens the tree after the tree or its open state changed.
func (v *TreeView) reflow() {
	prev := v.FocusedID()

	v.rows = tree.Rows(v.root, v.open, tree.FlattenOptions{ShowRoot: v.opts.ShowRoot})
	v.pos.SetRows(tree.IDs(v.rows))
	if len(v.rows) > 0 && v.rows[0].Node.IsRoot() {
		// the root row has no content at any row height
		v.pos.ReportHeightChange(0, 0)
	}

	if prev != "" {
		if i := v.pos.IndexOf(prev); i >= 0 {
			v.cursor = i
		} else if path, ok := tree.PathTo(v.root, prev); ok {
			// focused row was hidden; fall back to its closest visible ancestor
			for j := len(path) - 1; j >= 0; j-- {
				if i := v.pos.IndexOf(path[j]); i >= 0 {
					v.cursor = i
					break
				}
			}
		}
	}
	v.cursor = clamp(v.cursor, 0, max(len(v.rows)-1, 0))
	if !v.focusable(v.cursor) && !v.FocusNext() {
		v.FocusPrevious()
	}

	v.rr.Prune(func(id string) bool { return v.pos.IndexOf(id) >= 0 })
	if v.followCursor {
		v.ensureCursorVisible()
		return
	}
	v.window()
}

// window recomputes the rendered range and attaches measurement controllers
// to rows entering it. Rows leaving it are detached, so a late flush never
// reports for them.
func (v *TreeView) window() {
	v.scrollTop = v.pos.ClampScroll(v.scrollTop, v.height)
	v.lo, v.hi = v.pos.ComputeVisible(v.scrollTop, v.height, v.opts.Overscan)

	next := make(map[string]bool, v.hi-v.lo)
	for i := v.lo; i < v.hi; i++ {
		next[v.rows[i].ID()] = true
	}
	for id := range v.mounted {
		if !next[id] {
			v.sched.Detach(id)
			delete(v.mounted, id)
		}
	}
	for id := range next {
		if !v.mounted[id] {
			v.sched.Attach(id)
			v.mounted[id] = true
		}
	}
}

func (v *TreeView) scheduleMeasure() tea.Cmd {
	if !v.sched.Request() {
		return nil
	}
	id := v.id
	return func() tea.Msg { return measureMsg{view: id} }
}

func (v *TreeView) flush() tea.Cmd {
	res := v.sched.Flush(v.frame)
	if res.Changed == 0 {
		return nil
	}
	if v.followCursor {
		v.ensureCursorVisible()
	} else {
		v.window()
	}
	// rows that entered the window still need a measurement
	return v.scheduleMeasure()
}

// View draws the rows of the current window, cropped to the viewport.
func (v *TreeView) View() string {
	defer metrics.Timer(metrics.FrameRender)()
	v.frame.Reset()
	if v.height <= 0 {
		return ""
	}
	if len(v.rows) == 0 {
		return v.renderEmptyState()
	}

	lines := make([]string, 0, v.height)
	bottom := v.scrollTop + v.height
	for i := v.lo; i < v.hi; i++ {
		row := v.rows[i]
		id := row.ID()
		focused := i == v.cursor
		block := v.rr.Render(row, RowContext{
			Width:     v.width,
			Focused:   focused,
			Rev:       v.gen,
			Style:     v.look,
			SetOpen:   v.SetOpen,
			Remeasure: func(id string) { v.Remeasure(id) },
		})
		v.frame.Put(id, block)
		v.sched.Commit(id, measure.Inputs{
			ID:    id,
			Rev:   v.gen,
			Open:  row.IsOpen,
			Depth: row.Level,
			Width: v.width,
			Style: v.look<<1 | boolBit(focused),
		})

		// place the block at its recorded height, then crop to the viewport
		top := v.pos.Offset(i)
		h := v.pos.Height(i).Height
		rowLines := fitLines(splitLines(block), h)
		from := max(v.scrollTop-top, 0)
		to := min(bottom-top, h)
		if from < to {
			lines = append(lines, rowLines[from:to]...)
		}
	}
	return strings.Join(fitLines(lines, v.height), "\n")
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (v *TreeView) renderEmptyState() string {
	msg := v.theme.MutedText.Render("No nodes to display")
	hint := v.theme.MutedText.Render("Load a JSON, JSONL, YAML or SQLite source, or press r to reload.")
	return strings.Join(fitLines([]string{"", "  " + msg, "  " + hint}, v.height), "\n")
}

// FocusedRow returns the focused row.
func (v *TreeView) FocusedRow() (tree.FlattenedRow, bool) {
	if !v.focusable(v.cursor) {
		return tree.FlattenedRow{}, false
	}
	return v.rows[v.cursor], true
}

// FocusedID returns the id of the focused row, or "".
func (v *TreeView) FocusedID() string {
	row, ok := v.FocusedRow()
	if !ok {
		return ""
	}
	return row.ID()
}

// PositionIndicator returns "n/total" for the focused row.
func (v *TreeView) PositionIndicator() string {
	if len(v.rows) == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", v.cursor+1, len(v.rows))
}

// Root returns the tree being shown.
func (v *TreeView) Root() *tree.Node { return v.root }

// Open returns the open state.
func (v *TreeView) Open() *tree.OpenSet { return v.open }

// Rows returns the current flattened rows.
func (v *TreeView) Rows() []tree.FlattenedRow { return v.rows }

// Window returns the rendered index range [lo, hi).
func (v *TreeView) Window() (lo, hi int) { return v.lo, v.hi }

// ScrollTop returns the first visible line.
func (v *TreeView) ScrollTop() int { return v.scrollTop }

// Cursor returns the focused row index.
func (v *TreeView) Cursor() int { return v.cursor }

// Positioner exposes the row positioner.
func (v *TreeView) Positioner() *layout.Positioner { return v.pos }

// Scheduler exposes the measurement scheduler.
func (v *TreeView) Scheduler() *measure.Scheduler { return v.sched }

// Frame exposes the last committed frame.
func (v *TreeView) Frame() *Frame { return v.frame }

// Renderer exposes the row renderer.
func (v *TreeView) Renderer() *RowRenderer { return v.rr }
