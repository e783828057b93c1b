package tree

import (
	"iter"
	"slices"

	"github.com/vanderheijden86/vtree/pkg/metrics"
)

// FlattenedRow is one visible node at one point in time. Rows are rebuilt on
// every flatten and never mutated in place; Node.ID is the only identity that
// survives across flattens.
type FlattenedRow struct {
	Node    *Node
	Level   int  // nesting level; 0 for the first visible level
	IsFirst bool // first row of the produced sequence
	IsLast  bool // last row of the produced sequence
	IsOpen  bool // only meaningful for parents
}

// ID returns the row's node id.
func (r FlattenedRow) ID() string {
	if r.Node == nil {
		return ""
	}
	return r.Node.ID
}

// FlattenOptions configures Flatten.
type FlattenOptions struct {
	// ShowRoot includes the synthetic root as the first row (level 0) and
	// shifts every other level by one.
	ShowRoot bool
}

// Flatten returns the visible rows under root in depth-first pre-order. A
// parent's children are visited only while open reports it open.
//
// The sequence is lazy and restartable: each range walks the tree again with
// the OpenState as it is at that moment. One row of look-ahead is held back
// so the final row can be flagged IsLast.
func Flatten(root *Node, open OpenState, opts FlattenOptions) iter.Seq[FlattenedRow] {
	return func(yield func(FlattenedRow) bool) {
		if root == nil {
			return
		}

		var (
			pending    FlattenedRow
			hasPending bool
			first      = true
		)
		emit := func(r FlattenedRow) bool {
			if hasPending && !yield(pending) {
				return false
			}
			r.IsFirst = first
			first = false
			pending, hasPending = r, true
			return true
		}

		// ids on the current root-to-node path; a tree never revisits one
		onPath := make(map[string]bool)

		var walk func(n *Node, level int) bool
		walk = func(n *Node, level int) bool {
			if n == nil || onPath[n.ID] {
				return true
			}
			switch n.Kind {
			case KindLeaf:
				return emit(FlattenedRow{Node: n, Level: level})
			case KindParent:
				isOpen := open != nil && open.IsOpen(n.ID)
				if !emit(FlattenedRow{Node: n, Level: level, IsOpen: isOpen}) {
					return false
				}
				if !isOpen {
					return true
				}
				onPath[n.ID] = true
				defer delete(onPath, n.ID)
				for _, c := range n.Children {
					if !walk(c, level+1) {
						return false
					}
				}
				return true
			default:
				return true
			}
		}

		if opts.ShowRoot {
			if !walk(root, 0) {
				return
			}
		} else {
			onPath[root.ID] = true
			for _, c := range root.Children {
				if !walk(c, 0) {
					return
				}
			}
		}

		if hasPending {
			pending.IsLast = true
			yield(pending)
		}
	}
}

// Rows collects Flatten into a slice.
func Rows(root *Node, open OpenState, opts FlattenOptions) []FlattenedRow {
	defer metrics.Timer(metrics.Flatten)()
	return slices.Collect(Flatten(root, open, opts))
}

// IDs returns the ids of rows, in order.
func IDs(rows []FlattenedRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID()
	}
	return ids
}
