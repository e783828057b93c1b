package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Tree.Measure() {
		t.Error("expected measurement to be enabled by default")
	}
	if got := cfg.Tree.Indent(); got == nil || *got != DefaultIndentSize {
		t.Errorf("expected default indent %d, got %v", DefaultIndentSize, got)
	}
	if cfg.Tree.OverscanLines() != DefaultOverscan {
		t.Errorf("expected overscan %d, got %d", DefaultOverscan, cfg.Tree.OverscanLines())
	}
	if cfg.GraphQL.Endpoint != DefaultGraphQLEndpoint {
		t.Errorf("expected endpoint %q, got %q", DefaultGraphQLEndpoint, cfg.GraphQL.Endpoint)
	}
	if cfg.GraphQL.Enabled() {
		t.Error("expected graphql source disabled without a query")
	}
	if !cfg.Tree.Persist() {
		t.Error("expected open state persistence by default")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Tree.FixedRowHeight != DefaultRowHeight {
		t.Errorf("expected default config, got fixed height %d", cfg.Tree.FixedRowHeight)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
tree:
  show_root: true
  indent_size: 0
  should_measure: false
  fixed_row_height: 2
  overscan: 5
  default_open_depth: 0

sources:
  - ~/trees/work.json
  - /abs/tree.db

graphql:
  query: "{ nodes { id } }"
  variables:
    limit: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Tree.ShowRoot {
		t.Error("expected show_root")
	}
	if cfg.Tree.Indent() != nil {
		t.Error("expected indent_size 0 to disable indentation")
	}
	if cfg.Tree.Measure() {
		t.Error("expected should_measure false")
	}
	if cfg.Tree.FixedRowHeight != 2 || cfg.Tree.OverscanLines() != 5 || cfg.Tree.OpenDepth() != 0 {
		t.Errorf("unexpected tree config %+v", cfg.Tree)
	}
	if cfg.Tree.EstimatedRowHeight != DefaultRowHeight {
		t.Errorf("expected estimated height default, got %d", cfg.Tree.EstimatedRowHeight)
	}

	home, _ := os.UserHomeDir()
	if cfg.Sources[0] != filepath.Join(home, "trees/work.json") {
		t.Errorf("expected expanded source path, got %q", cfg.Sources[0])
	}
	if !cfg.GraphQL.Enabled() || cfg.GraphQL.Endpoint != DefaultGraphQLEndpoint {
		t.Errorf("unexpected graphql config %+v", cfg.GraphQL)
	}
	if cfg.GraphQL.Variables["limit"] != 10 {
		t.Errorf("expected variable limit=10, got %v", cfg.GraphQL.Variables["limit"])
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	indent := 4
	measure := false
	cfg := DefaultConfig()
	cfg.Tree.IndentSize = &indent
	cfg.Tree.ShouldMeasure = &measure
	cfg.Sources = []string{"/data/a.jsonl"}

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if got := loaded.Tree.Indent(); got == nil || *got != 4 {
		t.Errorf("expected indent 4, got %v", got)
	}
	if loaded.Tree.Measure() {
		t.Error("expected should_measure false after round trip")
	}
	if !slices.Equal(loaded.Sources, cfg.Sources) {
		t.Errorf("expected sources %v, got %v", cfg.Sources, loaded.Sources)
	}
}

func TestResolveSources(t *testing.T) {
	cfg := Config{Sources: []string{"/a.json", " /b.db "}}
	got := cfg.ResolveSources("/a.json", "", "/c.yaml")
	want := []string{"/a.json", "/b.db", "/c.yaml"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~/", filepath.Join(home, "")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := ConfigDir()
	expected := filepath.Join(dir, "vt")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if ConfigPath() != filepath.Join(expected, "config.yaml") {
		t.Errorf("unexpected config path %q", ConfigPath())
	}
}

func TestDataDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got := DataDir()
	expected := filepath.Join(dir, "vt")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestStateDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	got := StateDir()
	expected := filepath.Join(dir, "vt")
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
	if OpenStatePath() != filepath.Join(expected, "open-state.json") {
		t.Errorf("unexpected open state path %q", OpenStatePath())
	}
}
