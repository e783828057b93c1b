package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/vanderheijden86/vtree/pkg/tree"
)

// generateHierarchy builds roots top-level parents, each with
// childrenPerNode children per level down to depth. Every third leaf has a
// three line body.
func generateHierarchy(roots, childrenPerNode, depth int) *tree.Node {
	counter := 0
	var build func(level int) []*tree.Node
	build = func(level int) []*tree.Node {
		out := make([]*tree.Node, 0, childrenPerNode)
		for range childrenPerNode {
			counter++
			id := fmt.Sprintf("node-%d", counter)
			if level == depth {
				body := ""
				if counter%3 == 0 {
					body = "one\ntwo\nthree"
				}
				out = append(out, testLeaf(id, body))
				continue
			}
			out = append(out, testParent(id, build(level+1)...))
		}
		return out
	}

	top := make([]*tree.Node, 0, roots)
	for i := range roots {
		top = append(top, testParent(fmt.Sprintf("root-%d", i), build(1)...))
	}
	return tree.NewRoot(top...)
}

func benchView(b *testing.B, root *tree.Node) *TreeView {
	b.Helper()
	open := tree.NewOpenSet()
	open.SetAll(root, true)
	theme := TestTheme()
	v := NewTreeView(root, open, testOptions(), theme, DefaultLeafRenderer(theme, nil), DefaultParentRenderer(theme))
	v.SetSize(80, 40)
	return &v
}

func BenchmarkFlatten(b *testing.B) {
	for _, size := range []struct{ roots, children, depth int }{
		{10, 5, 2},
		{10, 10, 3},
		{20, 10, 3},
	} {
		root := generateHierarchy(size.roots, size.children, size.depth)
		open := tree.NewOpenSet()
		open.SetAll(root, true)
		b.Run(fmt.Sprintf("nodes=%d", tree.Count(root)), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_ = tree.Rows(root, open, tree.FlattenOptions{})
			}
		})
	}
}

func BenchmarkTreeViewFrame(b *testing.B) {
	v := benchView(b, generateHierarchy(20, 10, 3))
	v.View()
	v.flush()

	b.ReportAllocs()
	for b.Loop() {
		v.View()
		v.flush()
	}
}

func BenchmarkScrollLargeTree(b *testing.B) {
	v := benchView(b, generateHierarchy(20, 10, 3))
	v.View()
	v.flush()

	b.ReportAllocs()
	for b.Loop() {
		v.ScrollBy(wheelStep)
		v.applyScroll()
		v.View()
		v.flush()
		if v.ScrollTop() >= v.Positioner().TotalHeight()-v.height {
			v.ScrollBy(-v.ScrollTop())
			v.applyScroll()
		}
	}
}

func BenchmarkExpandCollapseAll(b *testing.B) {
	v := benchView(b, generateHierarchy(10, 10, 3))

	b.ReportAllocs()
	for b.Loop() {
		v.CollapseAll()
		v.ExpandAll()
	}
}

func TestGenerateHierarchy(t *testing.T) {
	root := generateHierarchy(2, 3, 2)
	// 2 roots, each with 3 parents of 3 leaves
	if n := tree.Count(root); n != 2+2*3+2*3*3 {
		t.Errorf("unexpected node count %d", n)
	}
	if !strings.HasPrefix(root.Children[0].ID, "root-") {
		t.Errorf("unexpected first id %q", root.Children[0].ID)
	}
}
