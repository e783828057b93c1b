package tree

import "maps"

// OpenState answers whether a parent is currently open. It is owned by the
// caller; the flattener only reads it.
type OpenState interface {
	IsOpen(id string) bool
}

// OpenSet is the default OpenState: explicit per-id entries plus a policy for
// ids the map does not mention.
//
// Design notes:
//   - Only explicit user changes are stored; everything else uses Default
//   - A nil Default means "closed"
//   - The synthetic root is always open, otherwise nothing would be visible
type OpenSet struct {
	open    map[string]bool
	Default func(id string) bool
}

// NewOpenSet returns an empty set where every parent starts closed.
func NewOpenSet() *OpenSet {
	return &OpenSet{open: make(map[string]bool)}
}

// IsOpen implements OpenState.
func (s *OpenSet) IsOpen(id string) bool {
	if id == RootID {
		return true
	}
	if s == nil {
		return false
	}
	if v, ok := s.open[id]; ok {
		return v
	}
	if s.Default != nil {
		return s.Default(id)
	}
	return false
}

// SetOpen records an explicit open/closed state for id. It reports whether
// the effective state changed.
func (s *OpenSet) SetOpen(id string, open bool) bool {
	was := s.IsOpen(id)
	s.open[id] = open
	return was != open
}

// Toggle flips the state of id and returns the new state.
func (s *OpenSet) Toggle(id string) bool {
	open := !s.IsOpen(id)
	s.open[id] = open
	return open
}

// SetAll sets every parent reachable from root to open.
func (s *OpenSet) SetAll(root *Node, open bool) {
	for id, n := range Index(root) {
		if n.Kind == KindParent && id != RootID {
			s.open[id] = open
		}
	}
}

// Reveal opens every ancestor of id so that it becomes visible.
func (s *OpenSet) Reveal(root *Node, id string) bool {
	path, ok := PathTo(root, id)
	if !ok {
		return false
	}
	for _, anc := range path {
		if anc != RootID {
			s.open[anc] = true
		}
	}
	return true
}

// Explicit returns a copy of the explicitly recorded entries.
func (s *OpenSet) Explicit() map[string]bool {
	return maps.Clone(s.open)
}

// Restore replaces explicit entries with the given map.
func (s *OpenSet) Restore(entries map[string]bool) {
	s.open = make(map[string]bool, len(entries))
	maps.Copy(s.open, entries)
}

// DepthDefault returns a Default policy that opens parents shallower than
// depth levels below the synthetic root. The policy needs the tree to
// resolve depths, so it is rebuilt whenever the tree changes.
func DepthDefault(root *Node, depth int) func(id string) bool {
	depths := make(map[string]int)
	var walk func(n *Node, d int)
	walk = func(n *Node, d int) {
		if n == nil {
			return
		}
		if _, seen := depths[n.ID]; seen {
			return
		}
		depths[n.ID] = d
		for _, c := range n.Children {
			walk(c, d+1)
		}
	}
	walk(root, -1)
	return func(id string) bool {
		d, ok := depths[id]
		return ok && d < depth
	}
}
