package ui

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/vtree/pkg/debug"
	"github.com/vanderheijden86/vtree/pkg/tree"
)

// Labeler is implemented by payloads that supply a row title.
type Labeler interface {
	Label() string
}

// Detailer is implemented by payloads that carry a markdown body.
type Detailer interface {
	Details() string
}

func nodeLabel(n *tree.Node) string {
	if l, ok := n.Payload.(Labeler); ok {
		if s := l.Label(); s != "" {
			return s
		}
	}
	return n.ID
}

func nodeDetails(n *tree.Node) string {
	if d, ok := n.Payload.(Detailer); ok {
		return strings.TrimSpace(d.Details())
	}
	return ""
}

// DefaultLeafRenderer draws "• title" followed by the payload's markdown
// body, if any. Bodies are rendered by md in the background; until a body
// is ready a placeholder line stands in for it. The synthetic root renders
// nothing.
func DefaultLeafRenderer(theme Theme, md *Markdown) RenderLeafFunc {
	return func(p LeafProps) string {
		if p.Leaf.IsRoot() {
			return ""
		}
		title := theme.Indicator.Render(IndicatorLeaf) + " " +
			theme.Base.Render(truncateRunesHelper(nodeLabel(p.Leaf), p.Width-2, Ellipsis))

		body := nodeDetails(p.Leaf)
		if body == "" {
			return title
		}
		if md == nil {
			return title + "\n" + theme.MutedText.Render("  "+truncateRunesHelper(firstLine(body), p.Width-2, Ellipsis))
		}
		rendered, ok := md.Render(p.Leaf.ID, body, p.Width-2)
		if !ok {
			return title + "\n" + theme.MutedText.Render("  …")
		}
		if rendered == "" {
			return title
		}
		return title + "\n" + theme.Renderer.NewStyle().PaddingLeft(2).Render(rendered)
	}
}

// DefaultParentRenderer draws "▸ title (n)", or ▾ when open.
func DefaultParentRenderer(theme Theme) RenderParentFunc {
	return func(p ParentProps) string {
		if p.Parent.IsRoot() {
			return ""
		}
		indicator := IndicatorClosed
		if p.IsOpen {
			indicator = IndicatorOpen
		}
		count := fmt.Sprintf("(%d)", len(p.Parent.Children))
		room := p.Width - 2 - runewidth.StringWidth(count) - 1
		label := truncateRunesHelper(nodeLabel(p.Parent), room, Ellipsis)
		if label == "" {
			return theme.Indicator.Render(indicator) + " " + theme.MutedText.Render(count)
		}
		return theme.Indicator.Render(indicator) + " " +
			theme.PrimaryBold.Render(label) + " " +
			theme.MutedText.Render(count)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// RemeasureMsg reports that the content of row ID changed size outside a
// render, so the row must be measured again.
type RemeasureMsg struct {
	ID string
}

type mdKey struct {
	id    string
	body  string
	width int
}

// Markdown renders markdown bodies with glamour off the event loop and
// caches the results. Each finished render is announced as a RemeasureMsg
// on the channel drained by Wait.
type Markdown struct {
	// Sync renders inline instead of in the background; used for one-shot
	// output where there is no event loop to deliver results.
	Sync bool

	style string

	mu      sync.Mutex
	done    map[mdKey]string
	pending map[mdKey]bool

	// glamour renderers are not safe for concurrent use
	renderMu  sync.Mutex
	renderers map[int]*glamour.TermRenderer

	results chan RemeasureMsg
	closed  chan struct{}
	once    sync.Once
}

// NewMarkdown returns a renderer using the named glamour standard style
// ("dark", "light", "notty", ...).
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = "dark"
	}
	return &Markdown{
		style:     style,
		done:      make(map[mdKey]string),
		pending:   make(map[mdKey]bool),
		renderers: make(map[int]*glamour.TermRenderer),
		results:   make(chan RemeasureMsg, 64),
		closed:    make(chan struct{}),
	}
}

// Render returns the rendered body for row id at width. When the result is
// not cached yet it starts a render and returns false.
func (m *Markdown) Render(id, body string, width int) (string, bool) {
	k := mdKey{id: id, body: body, width: max(width, 10)}

	m.mu.Lock()
	if out, ok := m.done[k]; ok {
		m.mu.Unlock()
		return out, true
	}
	if m.Sync {
		m.mu.Unlock()
		out := m.render(k)
		m.mu.Lock()
		m.done[k] = out
		m.mu.Unlock()
		return out, true
	}
	if m.pending[k] {
		m.mu.Unlock()
		return "", false
	}
	m.pending[k] = true
	m.mu.Unlock()

	go func() {
		out := m.render(k)
		m.mu.Lock()
		m.done[k] = out
		delete(m.pending, k)
		m.mu.Unlock()
		select {
		case m.results <- RemeasureMsg{ID: k.id}:
		case <-m.closed:
		}
	}()
	return "", false
}

func (m *Markdown) render(k mdKey) string {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()

	r, ok := m.renderers[k.width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.style),
			glamour.WithWordWrap(k.width),
		)
		if err != nil {
			debug.Log("markdown: renderer for width %d: %v", k.width, err)
			return k.body
		}
		m.renderers[k.width] = r
	}
	out, err := r.Render(k.body)
	if err != nil {
		debug.Log("markdown: rendering %s: %v", k.id, err)
		return k.body
	}
	return strings.Trim(out, "\n")
}

// Wait returns a command that delivers the next finished render.
func (m *Markdown) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.results:
			return msg
		case <-m.closed:
			return nil
		}
	}
}

// Close stops delivering results.
func (m *Markdown) Close() {
	m.once.Do(func() { close(m.closed) })
}
