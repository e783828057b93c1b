// Package config handles loading and saving vt configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/vt/config.yaml
//   - Data:    ~/.local/share/vt/
//   - State:   ~/.local/state/vt/ (open/closed state of tree nodes)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is absent from the file.
const (
	DefaultIndentSize      = 2
	DefaultRowHeight       = 1
	DefaultOverscan        = 3
	DefaultGraphQLEndpoint = "http://localhost:3000/tr-graphql"
	defaultOpenStateFile   = "open-state.json"
	defaultConfigFileName  = "config.yaml"
	defaultDirectoryName   = "vt"
	defaultOpenDepth       = 1
)

// TreeConfig holds the tree view settings.
type TreeConfig struct {
	ShowRoot bool `yaml:"show_root,omitempty"`
	// IndentSize is the left margin per nesting level in columns. Absent
	// means DefaultIndentSize; 0 disables indentation.
	IndentSize *int `yaml:"indent_size,omitempty"`
	// ShouldMeasure enables measuring rendered rows. Absent means true.
	ShouldMeasure      *bool `yaml:"should_measure,omitempty"`
	FixedRowHeight     int   `yaml:"fixed_row_height,omitempty"`     // authoritative when should_measure is false
	EstimatedRowHeight int   `yaml:"estimated_row_height,omitempty"` // before first measurement
	AdaptiveEstimate   bool  `yaml:"adaptive_estimate,omitempty"`
	Overscan           *int  `yaml:"overscan,omitempty"`
	DefaultOpenDepth   *int  `yaml:"default_open_depth,omitempty"` // parents shallower than this start open
	PersistOpenState   *bool `yaml:"persist_open_state,omitempty"`
}

// GraphQLConfig configures the remote query source.
type GraphQLConfig struct {
	Endpoint  string         `yaml:"endpoint,omitempty"`
	Query     string         `yaml:"query,omitempty"`
	Variables map[string]any `yaml:"variables,omitempty"`
}

// Enabled reports whether a query is configured.
func (g GraphQLConfig) Enabled() bool {
	return strings.TrimSpace(g.Query) != ""
}

// Config is the top-level configuration for vt.
type Config struct {
	Tree    TreeConfig    `yaml:"tree,omitempty"`
	Sources []string      `yaml:"sources,omitempty"` // files or sqlite databases
	GraphQL GraphQLConfig `yaml:"graphql,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Tree: TreeConfig{
			FixedRowHeight:     DefaultRowHeight,
			EstimatedRowHeight: DefaultRowHeight,
		},
		GraphQL: GraphQLConfig{
			Endpoint: DefaultGraphQLEndpoint,
		},
	}
}

// Indent returns the per-level indent, or nil when indentation is disabled.
func (t TreeConfig) Indent() *int {
	if t.IndentSize == nil {
		n := DefaultIndentSize
		return &n
	}
	if *t.IndentSize <= 0 {
		return nil
	}
	n := *t.IndentSize
	return &n
}

// Measure reports whether rows are measured.
func (t TreeConfig) Measure() bool {
	return t.ShouldMeasure == nil || *t.ShouldMeasure
}

// Persist reports whether open state is saved between runs.
func (t TreeConfig) Persist() bool {
	return t.PersistOpenState == nil || *t.PersistOpenState
}

// OverscanLines returns the overscan in lines.
func (t TreeConfig) OverscanLines() int {
	if t.Overscan == nil || *t.Overscan < 0 {
		return DefaultOverscan
	}
	return *t.Overscan
}

// OpenDepth returns the default open depth.
func (t TreeConfig) OpenDepth() int {
	if t.DefaultOpenDepth == nil || *t.DefaultOpenDepth < 0 {
		return defaultOpenDepth
	}
	return *t.DefaultOpenDepth
}

// ConfigDir returns the XDG config directory for vt.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, defaultDirectoryName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", defaultDirectoryName)
}

// DataDir returns the XDG data directory for vt.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, defaultDirectoryName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", defaultDirectoryName)
}

// StateDir returns the XDG state directory for vt.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, defaultDirectoryName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", defaultDirectoryName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, defaultConfigFileName)
}

// OpenStatePath returns the full path to the persisted open state.
func OpenStatePath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, defaultOpenStateFile)
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Tree.FixedRowHeight <= 0 {
		cfg.Tree.FixedRowHeight = DefaultRowHeight
	}
	if cfg.Tree.EstimatedRowHeight <= 0 {
		cfg.Tree.EstimatedRowHeight = DefaultRowHeight
	}
	if cfg.GraphQL.Endpoint == "" {
		cfg.GraphQL.Endpoint = DefaultGraphQLEndpoint
	}

	// Expand ~ in source paths
	for i := range cfg.Sources {
		cfg.Sources[i] = expandHome(cfg.Sources[i])
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ResolveSources returns the configured sources followed by extra ones, with
// ~ expanded and duplicates removed.
func (c Config) ResolveSources(extra ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range append(append([]string{}, c.Sources...), extra...) {
		s = expandHome(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
