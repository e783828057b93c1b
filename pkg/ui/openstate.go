package ui

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/vtree/pkg/tree"
)

// OpenStateVersion is the current schema version of the open state file.
const OpenStateVersion = 1

// OpenStateFile is the persisted open/closed state of tree nodes. Only
// entries that differ from the default policy are stored.
//
// Example file:
//
//	{
//	  "version": 1,
//	  "open": {
//	    "docs": false,
//	    "docs/api": true
//	  }
//	}
type OpenStateFile struct {
	Version int             `json:"version"`
	Open    map[string]bool `json:"open"`
}

// OpenStore saves and restores open state for one file path. An empty path
// disables persistence.
type OpenStore struct {
	Path string
}

// Save writes the entries of open that deviate from its default policy.
// Failures are logged, never returned: losing open state is not worth
// interrupting the user for.
func (s OpenStore) Save(root *tree.Node, open *tree.OpenSet) {
	if s.Path == "" {
		return
	}
	state := OpenStateFile{Version: OpenStateVersion, Open: deviations(root, open)}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Printf("warning: failed to marshal open state: %v", err)
		return
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("warning: failed to create state directory %s: %v", dir, err)
		return
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		log.Printf("warning: failed to write open state to %s: %v", s.Path, err)
	}
}

// Load reads the stored entries. A missing file yields no entries; a
// corrupt file is reported and ignored.
func (s OpenStore) Load() map[string]bool {
	if s.Path == "" {
		return nil
	}
	state, err := ReadOpenState(s.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("warning: invalid open state file, using defaults: %v", err)
		}
		return nil
	}
	return state.Open
}

// Restore applies the stored entries for parents that exist in root.
func (s OpenStore) Restore(root *tree.Node, open *tree.OpenSet) {
	entries := s.Load()
	if len(entries) == 0 {
		return
	}
	idx := tree.Index(root)
	known := make(map[string]bool, len(entries))
	for id, isOpen := range entries {
		if n, ok := idx[id]; ok && n.IsParent() && !n.IsRoot() {
			known[id] = isOpen
		}
	}
	open.Restore(known)
}

// ReadOpenState decodes an open state file.
func ReadOpenState(path string) (OpenStateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OpenStateFile{}, err
	}
	var state OpenStateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return OpenStateFile{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	if state.Version > OpenStateVersion {
		return OpenStateFile{}, fmt.Errorf("%s: unsupported version %d", path, state.Version)
	}
	return state, nil
}

// deviations returns the explicit entries of open that differ from what
// the default policy would say, for parents present in root.
func deviations(root *tree.Node, open *tree.OpenSet) map[string]bool {
	idx := tree.Index(root)
	out := make(map[string]bool)
	for id, isOpen := range open.Explicit() {
		n, ok := idx[id]
		if !ok || !n.IsParent() || n.IsRoot() {
			continue
		}
		def := open.Default != nil && open.Default(id)
		if isOpen != def {
			out[id] = isOpen
		}
	}
	return out
}
