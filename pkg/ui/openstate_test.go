package ui

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/vtree/pkg/tree"
)

func stateTree() *tree.Node {
	return tree.NewRoot(
		testParent("a", testLeaf("a1", "")),
		testParent("b", testParent("bb", testLeaf("bbb", ""))),
		testLeaf("c", ""),
	)
}

func TestOpenStoreSavesOnlyDeviations(t *testing.T) {
	root := stateTree()
	open := tree.NewOpenSet()
	open.Default = tree.DepthDefault(root, 1) // a and b open by default

	open.SetOpen("a", false) // deviates
	open.SetOpen("b", true)  // matches the default
	open.SetOpen("bb", true) // deviates
	open.SetOpen("c", true)  // leaf, never stored

	path := filepath.Join(t.TempDir(), "state", "open-state.json")
	store := OpenStore{Path: path}
	store.Save(root, open)

	state, err := ReadOpenState(path)
	if err != nil {
		t.Fatal(err)
	}
	if state.Version != OpenStateVersion {
		t.Errorf("expected version %d, got %d", OpenStateVersion, state.Version)
	}
	if len(state.Open) != 2 || state.Open["a"] != false || state.Open["bb"] != true {
		t.Errorf("unexpected stored entries %v", state.Open)
	}
}

func TestOpenStoreRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open-state.json")
	data := `{"version":1,"open":{"a":false,"bb":true,"gone":true,"c":true}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	root := stateTree()
	open := tree.NewOpenSet()
	open.Default = tree.DepthDefault(root, 1)
	OpenStore{Path: path}.Restore(root, open)

	if open.IsOpen("a") || !open.IsOpen("b") || !open.IsOpen("bb") {
		t.Errorf("unexpected restored state a=%v b=%v bb=%v", open.IsOpen("a"), open.IsOpen("b"), open.IsOpen("bb"))
	}
	explicit := open.Explicit()
	if _, ok := explicit["gone"]; ok {
		t.Error("expected unknown ids to be ignored")
	}
	if _, ok := explicit["c"]; ok {
		t.Error("expected leaves to be ignored")
	}
}

func TestOpenStoreCorruptFileFallsBack(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	path := filepath.Join(t.TempDir(), "open-state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := (OpenStore{Path: path}).Load(); got != nil {
		t.Errorf("expected no entries from a corrupt file, got %v", got)
	}
	if !strings.Contains(buf.String(), "warning: invalid open state file") {
		t.Errorf("expected a warning, got %q", buf.String())
	}

	buf.Reset()
	if got := (OpenStore{Path: filepath.Join(t.TempDir(), "missing.json")}).Load(); got != nil {
		t.Errorf("expected no entries for a missing file, got %v", got)
	}
	if buf.Len() != 0 {
		t.Errorf("expected a missing file to be silent, got %q", buf.String())
	}
}

func TestReadOpenStateRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open-state.json")
	if err := os.WriteFile(path, []byte(`{"version":99,"open":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadOpenState(path); err == nil {
		t.Error("expected an error for an unsupported version")
	}
}

func TestOpenStoreWithoutPathIsNoop(t *testing.T) {
	root := stateTree()
	open := tree.NewOpenSet()
	open.SetOpen("a", true)
	OpenStore{}.Save(root, open)
	if (OpenStore{}).Load() != nil {
		t.Error("expected nothing to load without a path")
	}
}
