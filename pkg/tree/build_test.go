package tree

import (
	"errors"
	"slices"
	"testing"
)

func childIDs(n *Node) []string {
	ids := make([]string, len(n.Children))
	for i, c := range n.Children {
		ids[i] = c.ID
	}
	return ids
}

func TestBuildEmpty(t *testing.T) {
	root := Build(nil)
	if !root.IsRoot() || !root.IsParent() {
		t.Fatalf("expected synthetic root parent, got %+v", root)
	}
	if len(root.Children) != 0 {
		t.Errorf("expected no children, got %d", len(root.Children))
	}
}

func TestBuildParentChild(t *testing.T) {
	root := Build([]Record{
		{ID: "epic", Payload: "Epic"},
		{ID: "task", ParentID: "epic"},
		{ID: "sub", ParentID: "task"},
	})

	if got := childIDs(root); !slices.Equal(got, []string{"epic"}) {
		t.Fatalf("expected single top-level epic, got %v", got)
	}
	epic := root.Children[0]
	if !epic.IsParent() || epic.Payload != "Epic" {
		t.Errorf("expected epic to be a parent carrying its payload, got %+v", epic)
	}
	task := epic.Children[0]
	if task.ID != "task" || !task.IsParent() {
		t.Errorf("expected task parent under epic, got %+v", task)
	}
	if sub := task.Children[0]; sub.ID != "sub" || sub.IsParent() {
		t.Errorf("expected sub leaf under task, got %+v", sub)
	}
}

func TestBuildOrphanBecomesTopLevel(t *testing.T) {
	root := Build([]Record{
		{ID: "a"},
		{ID: "orphan", ParentID: "missing"},
	})
	if got := childIDs(root); !slices.Equal(got, []string{"a", "orphan"}) {
		t.Errorf("expected orphan at top level, got %v", got)
	}
}

func TestBuildDeclaredParentWithoutChildren(t *testing.T) {
	root := Build([]Record{{ID: "lazy", Parent: true}})
	if !root.Children[0].IsParent() {
		t.Error("expected declared parent to stay a parent without children")
	}
}

func TestBuildSortsByPositionStable(t *testing.T) {
	root := Build([]Record{
		{ID: "p"},
		{ID: "c3", ParentID: "p", Position: 3},
		{ID: "c1a", ParentID: "p", Position: 1},
		{ID: "c1b", ParentID: "p", Position: 1},
		{ID: "c0", ParentID: "p"},
	})
	got := childIDs(root.Children[0])
	want := []string{"c0", "c1a", "c1b", "c3"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBuildCycleKeepsEveryNode(t *testing.T) {
	root := Build([]Record{
		{ID: "a", ParentID: "b"},
		{ID: "b", ParentID: "a"},
	})
	idx := Index(root)
	for _, id := range []string{"a", "b"} {
		if _, ok := idx[id]; !ok {
			t.Errorf("expected %s to be reachable despite the cycle", id)
		}
	}

	open := NewOpenSet()
	open.SetAll(root, true)
	rows := Rows(root, open, FlattenOptions{})
	if len(rows) != 2 {
		t.Errorf("expected both nodes exactly once, got %v", IDs(rows))
	}
}

func TestBuildSkipsDuplicatesAndReserved(t *testing.T) {
	records := []Record{
		{ID: "x", Payload: 1},
		{ID: "x", Payload: 2},
		{ID: RootID},
		{ID: ""},
	}
	root := Build(records)
	if got := childIDs(root); !slices.Equal(got, []string{"x"}) {
		t.Fatalf("expected single x, got %v", got)
	}
	if root.Children[0].Payload != 1 {
		t.Errorf("expected first record to win, got payload %v", root.Children[0].Payload)
	}

	err := Validate(records)
	for _, want := range []error{ErrDuplicateID, ErrReservedID, ErrEmptyID} {
		if !errors.Is(err, want) {
			t.Errorf("expected Validate to report %v, got %v", want, err)
		}
	}
	if Validate(records[:1]) != nil {
		t.Error("expected valid records to pass")
	}
}

func TestPathToAndCount(t *testing.T) {
	root := Build([]Record{
		{ID: "a"},
		{ID: "b", ParentID: "a"},
		{ID: "c", ParentID: "b"},
	})
	path, ok := PathTo(root, "c")
	if !ok || !slices.Equal(path, []string{RootID, "a", "b"}) {
		t.Errorf("unexpected path %v (ok=%v)", path, ok)
	}
	if Count(root) != 3 {
		t.Errorf("expected 3 nodes, got %d", Count(root))
	}
}
