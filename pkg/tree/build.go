package tree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vanderheijden86/vtree/pkg/debug"
)

// Record is the flat form a data source produces: a node that names its
// parent instead of owning its children.
type Record struct {
	ID       string
	ParentID string // empty or RootID for top-level records
	Parent   bool   // declared parent; a record with children is a parent regardless
	Position int    // sibling order; ties keep input order
	Payload  any
}

var (
	// ErrDuplicateID is reported when two records share an id.
	ErrDuplicateID = errors.New("duplicate node id")
	// ErrReservedID is reported when a record uses the synthetic root id.
	ErrReservedID = errors.New("reserved node id")
	// ErrEmptyID is reported for a record without an id.
	ErrEmptyID = errors.New("empty node id")
)

// Validate reports every structural problem in records. Build tolerates all
// of them; callers use Validate to surface warnings.
func Validate(records []Record) error {
	var errs []error
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		switch {
		case r.ID == "":
			errs = append(errs, fmt.Errorf("record %d: %w", i, ErrEmptyID))
		case r.ID == RootID:
			errs = append(errs, fmt.Errorf("record %d: %w %q", i, ErrReservedID, r.ID))
		case seen[r.ID]:
			errs = append(errs, fmt.Errorf("record %d: %w %q", i, ErrDuplicateID, r.ID))
		}
		seen[r.ID] = true
	}
	return errors.Join(errs...)
}

// Build constructs the tree under a synthetic root.
//
// Steps:
//  1. Index records by id and group them under their declared parent
//  2. Records without a parent, or whose parent does not exist, become
//     top-level nodes so dangling references never hide a row
//  3. Build recursively, breaking any cycle at the node that would close it
//  4. Records unreachable from the root (pure cycles) are attached at the top
//     level so they stay visible
func Build(records []Record) *Node {
	byID := make(map[string]*Record, len(records))
	order := make([]*Record, 0, len(records))
	for i := range records {
		r := &records[i]
		if r.ID == "" || r.ID == RootID {
			debug.Log("tree: skipping record %d with invalid id %q", i, r.ID)
			continue
		}
		if _, dup := byID[r.ID]; dup {
			debug.Log("tree: skipping duplicate record %q", r.ID)
			continue
		}
		byID[r.ID] = r
		order = append(order, r)
	}

	childrenOf := make(map[string][]*Record)
	var top []*Record
	for _, r := range order {
		parent := r.ParentID
		if parent == "" || parent == RootID || parent == r.ID {
			top = append(top, r)
			continue
		}
		if _, exists := byID[parent]; !exists {
			top = append(top, r)
			continue
		}
		childrenOf[parent] = append(childrenOf[parent], r)
	}

	b := builder{childrenOf: childrenOf, placed: make(map[string]bool), onPath: make(map[string]bool)}
	root := NewRoot()
	for _, r := range top {
		root.Children = append(root.Children, b.node(r))
	}
	for _, r := range order {
		if !b.placed[r.ID] {
			debug.Log("tree: %q is only reachable through a cycle, attaching at top level", r.ID)
			root.Children = append(root.Children, b.node(r))
		}
	}
	sortByPosition(root.Children, byID)
	return root
}

type builder struct {
	childrenOf map[string][]*Record
	placed     map[string]bool
	onPath     map[string]bool
}

func (b *builder) node(r *Record) *Node {
	b.placed[r.ID] = true
	children := b.childrenOf[r.ID]
	if !r.Parent && len(children) == 0 {
		return NewLeaf(r.ID, r.Payload)
	}

	n := NewParent(r.ID, r.Payload)
	b.onPath[r.ID] = true
	defer delete(b.onPath, r.ID)

	for _, c := range children {
		if b.onPath[c.ID] || b.placed[c.ID] {
			// Cycle or second parent: the node is already in the tree.
			continue
		}
		n.Children = append(n.Children, b.node(c))
	}
	byID := make(map[string]*Record, len(children))
	for _, c := range children {
		byID[c.ID] = c
	}
	sortByPosition(n.Children, byID)
	return n
}

func sortByPosition(nodes []*Node, byID map[string]*Record) {
	if len(nodes) <= 1 {
		return
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := byID[nodes[i].ID], byID[nodes[j].ID]
		if a == nil || b == nil {
			return a != nil
		}
		return a.Position < b.Position
	})
}
