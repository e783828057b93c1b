package ui

import (
	"github.com/vanderheijden86/vtree/pkg/metrics"
	"github.com/vanderheijden86/vtree/pkg/tree"
)

// LeafProps is passed to the leaf render delegate.
type LeafProps struct {
	Leaf    *tree.Node
	Depth   int
	Width   int // columns available to the body
	Focused bool
	// Remeasure asks for the row to be measured again, e.g. after content
	// that loaded asynchronously changed its size.
	Remeasure func()
}

// ParentProps is passed to the parent render delegate.
type ParentProps struct {
	Parent    *tree.Node
	Depth     int
	Width     int
	Focused   bool
	IsOpen    bool
	SetOpen   func(open bool)
	Remeasure func()
}

// RenderLeafFunc renders the body of a leaf row. It must be a pure function
// of its props; results are cached.
type RenderLeafFunc func(LeafProps) string

// RenderParentFunc renders the body of a parent row.
type RenderParentFunc func(ParentProps) string

// RowContext carries the per-frame state a row is rendered with.
type RowContext struct {
	Width     int
	Focused   bool
	Rev       uint64 // tree generation
	Style     uint64 // theme generation
	SetOpen   func(id string, open bool)
	Remeasure func(id string)
}

// rowKey is everything a delegate result depends on.
type rowKey struct {
	node    *tree.Node
	rev     uint64
	open    bool
	depth   int
	width   int
	focused bool
	style   uint64
}

type cachedRow struct {
	key rowKey
	out string
}

// RowRenderer renders one flattened row: the delegate body, the focus gutter
// and the indentation margin. Results are memoized per row id and reused
// while the row's own inputs are unchanged.
type RowRenderer struct {
	RenderLeaf   RenderLeafFunc
	RenderParent RenderParentFunc
	ShowRoot     bool
	// IndentSize is the margin per nesting level in columns; nil disables
	// indentation.
	IndentSize *int

	theme Theme
	cache map[string]cachedRow
	calls int
}

// NewRowRenderer returns a renderer using the given delegates. Nil delegates
// render an empty body.
func NewRowRenderer(theme Theme, leaf RenderLeafFunc, parent RenderParentFunc) *RowRenderer {
	return &RowRenderer{
		RenderLeaf:   leaf,
		RenderParent: parent,
		theme:        theme,
		cache:        make(map[string]cachedRow),
	}
}

// Render returns the block for row. The empty string means the row has no
// content and occupies no lines.
func (r *RowRenderer) Render(row tree.FlattenedRow, ctx RowContext) string {
	if row.Node == nil {
		return ""
	}
	if row.Node.IsRoot() && !r.ShowRoot {
		return ""
	}

	id := row.ID()
	key := rowKey{
		node:    row.Node,
		rev:     ctx.Rev,
		open:    row.IsOpen,
		depth:   row.Level,
		width:   ctx.Width,
		focused: ctx.Focused,
		style:   ctx.Style,
	}
	if c, ok := r.cache[id]; ok && c.key == key {
		metrics.RowRenderCache.Hit()
		return c.out
	}
	metrics.RowRenderCache.Miss()
	defer metrics.Timer(metrics.RowRender)()

	out := r.render(row, ctx)
	r.cache[id] = cachedRow{key: key, out: out}
	return out
}

func (r *RowRenderer) render(row tree.FlattenedRow, ctx RowContext) string {
	indent := 0
	if r.IndentSize != nil {
		indent = row.Level * *r.IndentSize
	}
	gutter := r.theme.Unfocused
	if ctx.Focused {
		gutter = r.theme.Focused
	}
	width := max(ctx.Width-indent-gutter.GetHorizontalFrameSize(), 1)

	id := row.ID()
	remeasure := func() {
		if ctx.Remeasure != nil {
			ctx.Remeasure(id)
		}
	}

	var body string
	switch row.Node.Kind {
	case tree.KindLeaf:
		if r.RenderLeaf != nil {
			r.calls++
			body = r.RenderLeaf(LeafProps{
				Leaf:      row.Node,
				Depth:     row.Level,
				Width:     width,
				Focused:   ctx.Focused,
				Remeasure: remeasure,
			})
		}
	case tree.KindParent:
		if r.RenderParent != nil {
			r.calls++
			body = r.RenderParent(ParentProps{
				Parent:  row.Node,
				Depth:   row.Level,
				Width:   width,
				Focused: ctx.Focused,
				IsOpen:  row.IsOpen,
				SetOpen: func(open bool) {
					if ctx.SetOpen != nil {
						ctx.SetOpen(id, open)
					}
				},
				Remeasure: remeasure,
			})
		}
	}
	if body == "" {
		return ""
	}

	out := gutter.Render(body)
	if indent > 0 {
		out = r.theme.Renderer.NewStyle().MarginLeft(indent).Render(out)
	}
	return out
}

// Invalidate drops the cached block of id.
func (r *RowRenderer) Invalidate(id string) {
	delete(r.cache, id)
}

// Reset drops every cached block.
func (r *RowRenderer) Reset() {
	clear(r.cache)
}

// Prune drops cached blocks of rows that keep reports false for.
func (r *RowRenderer) Prune(keep func(id string) bool) {
	for id := range r.cache {
		if !keep(id) {
			delete(r.cache, id)
		}
	}
}

// Cached reports how many rows have a cached block.
func (r *RowRenderer) Cached() int { return len(r.cache) }

// DelegateCalls counts delegate invocations.
func (r *RowRenderer) DelegateCalls() int { return r.calls }
