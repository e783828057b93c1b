// Package tree holds the hierarchical node model shown by the tree view and
// the flattener that projects it into the ordered sequence of visible rows.
package tree

import "fmt"

// RootID is reserved for the synthetic root that owns every top-level node.
const RootID = "root"

// Kind distinguishes the two node variants.
type Kind int

const (
	KindLeaf   Kind = iota // terminal node, never has children
	KindParent             // expandable node with an ordered child list
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindParent:
		return "parent"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is a tagged variant: a Leaf carries only an ID and payload, a Parent
// additionally owns its Children. Children are owned exclusively by their
// parent; a node must not appear twice in a tree.
type Node struct {
	ID       string
	Kind     Kind
	Payload  any     // caller data, opaque to the engine
	Children []*Node // only meaningful for KindParent
}

// NewLeaf returns a leaf node.
func NewLeaf(id string, payload any) *Node {
	return &Node{ID: id, Kind: KindLeaf, Payload: payload}
}

// NewParent returns a parent node owning children. A parent with no children
// is still a parent: it can be opened, it just has nothing to show.
func NewParent(id string, payload any, children ...*Node) *Node {
	return &Node{ID: id, Kind: KindParent, Payload: payload, Children: children}
}

// NewRoot returns the synthetic root owning the given top-level nodes.
func NewRoot(children ...*Node) *Node {
	return NewParent(RootID, nil, children...)
}

// IsParent reports whether n is a Parent.
func (n *Node) IsParent() bool {
	return n != nil && n.Kind == KindParent
}

// IsRoot reports whether n is the synthetic root.
func (n *Node) IsRoot() bool {
	return n != nil && n.ID == RootID
}

// Index returns an id -> node lookup for every node reachable from root.
func Index(root *Node) map[string]*Node {
	idx := make(map[string]*Node)
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if _, seen := idx[n.ID]; seen {
			return
		}
		idx[n.ID] = n
		if n.Kind == KindParent {
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	walk(root)
	return idx
}

// PathTo returns the ids of the ancestors of id, outermost first, excluding
// id itself. ok is false when id is not in the tree.
func PathTo(root *Node, id string) (path []string, ok bool) {
	var walk func(n *Node, trail []string) bool
	walk = func(n *Node, trail []string) bool {
		if n == nil {
			return false
		}
		if n.ID == id {
			path = append([]string(nil), trail...)
			return true
		}
		if n.Kind != KindParent {
			return false
		}
		trail = append(trail, n.ID)
		for _, c := range n.Children {
			if walk(c, trail) {
				return true
			}
		}
		return false
	}
	ok = walk(root, nil)
	return path, ok
}

// Count returns the number of nodes under root, excluding root itself.
func Count(root *Node) int {
	if root == nil {
		return 0
	}
	return len(Index(root)) - 1
}
