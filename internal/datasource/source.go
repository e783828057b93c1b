// Package datasource loads tree items from files, SQLite databases and a
// remote GraphQL endpoint.
package datasource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SourceType identifies the type of data source
type SourceType string

const (
	SourceTypeJSON    SourceType = "json"
	SourceTypeJSONL   SourceType = "jsonl"
	SourceTypeYAML    SourceType = "yaml"
	SourceTypeSQLite  SourceType = "sqlite"
	SourceTypeGraphQL SourceType = "graphql"
)

// ErrUnknownFormat is returned when a path's format cannot be detected.
var ErrUnknownFormat = errors.New("unknown source format")

// sqliteHeader starts every SQLite database file.
var sqliteHeader = []byte("SQLite format 3\x00")

// DataSource is one place items are loaded from.
type DataSource struct {
	Type SourceType `json:"type"`
	// Path is a file path, or the endpoint for GraphQL sources.
	Path string `json:"path"`
	// Query and Variables are used by GraphQL sources only.
	Query     string         `json:"query,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s)", s.Path, s.Type)
}

// Watchable reports whether the source is a local file that can be watched.
func (s DataSource) Watchable() bool {
	return s.Type != SourceTypeGraphQL
}

// DetectSource determines the type of a local source from its extension,
// falling back to sniffing the SQLite header.
func DetectSource(path string) (DataSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	src := DataSource{Path: abs}

	switch strings.ToLower(filepath.Ext(abs)) {
	case ".json":
		src.Type = SourceTypeJSON
	case ".jsonl", ".ndjson":
		src.Type = SourceTypeJSONL
	case ".yaml", ".yml":
		src.Type = SourceTypeYAML
	case ".db", ".sqlite", ".sqlite3":
		src.Type = SourceTypeSQLite
	default:
		ok, err := isSQLiteFile(abs)
		if err != nil {
			return src, fmt.Errorf("detecting %s: %w", path, err)
		}
		if !ok {
			return src, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
		}
		src.Type = SourceTypeSQLite
	}
	return src, nil
}

// DetectSources detects every path, stopping at the first failure.
func DetectSources(paths []string) ([]DataSource, error) {
	out := make([]DataSource, 0, len(paths))
	for _, p := range paths {
		src, err := DetectSource(p)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func isSQLiteFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, sqliteHeader), nil
}
