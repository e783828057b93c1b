package datasource

import (
	"strings"

	"github.com/vanderheijden86/vtree/pkg/tree"
)

// Kind values accepted in source documents.
const (
	KindLeaf   = "leaf"
	KindParent = "parent"
)

// Item is one node as stored in a source. Items either nest through
// Children or reference their parent through ParentID; both forms may be
// mixed in one document.
type Item struct {
	ID       string `json:"id" yaml:"id"`
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Body     string `json:"body,omitempty" yaml:"body,omitempty"` // markdown
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Position int    `json:"position,omitempty" yaml:"position,omitempty"`
	Children []Item `json:"children,omitempty" yaml:"children,omitempty"`
}

// Payload is the node payload produced for an Item: the item without its
// children, so a node does not carry a copy of its subtree.
type Payload struct {
	ID    string
	Title string
	Body  string
}

// Label implements the row label used by the default delegates.
func (p Payload) Label() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return p.ID
}

// Details returns the markdown body.
func (p Payload) Details() string {
	return p.Body
}

// Records flattens nested items into tree records. Nested children get their
// ParentID from the enclosing item unless they set one themselves.
func Records(items []Item) []tree.Record {
	var out []tree.Record
	var walk func(items []Item, parent string)
	walk = func(items []Item, parent string) {
		for _, it := range items {
			pid := it.ParentID
			if pid == "" {
				pid = parent
			}
			out = append(out, tree.Record{
				ID:       strings.TrimSpace(it.ID),
				ParentID: strings.TrimSpace(pid),
				Parent:   strings.EqualFold(it.Kind, KindParent) || len(it.Children) > 0,
				Position: it.Position,
				Payload:  Payload{ID: it.ID, Title: it.Title, Body: it.Body},
			})
			walk(it.Children, it.ID)
		}
	}
	walk(items, "")
	return out
}

// BuildTree converts items into a tree under the synthetic root.
func BuildTree(items []Item) *tree.Node {
	return tree.Build(Records(items))
}
