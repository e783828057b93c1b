package datasource

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func createNodesDB(t *testing.T, schema string, inserts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	for _, stmt := range inserts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestSQLiteReaderLoadItems(t *testing.T) {
	path := createNodesDB(t,
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, parent_id TEXT, title TEXT, body TEXT, kind TEXT, position INTEGER)`,
		`INSERT INTO nodes VALUES ('p', NULL, 'Parent', NULL, 'parent', 0)`,
		`INSERT INTO nodes VALUES ('c2', 'p', 'Second', '**bold**', 'leaf', 2)`,
		`INSERT INTO nodes VALUES ('c1', 'p', 'First', NULL, 'leaf', 1)`,
	)

	r, err := NewSQLiteReader(DataSource{Type: SourceTypeSQLite, Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx := context.Background()
	items, err := r.LoadItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	n, err := r.CountNodes(ctx)
	if err != nil || n != 3 {
		t.Errorf("expected count 3, got %d (err=%v)", n, err)
	}

	root := BuildTree(items)
	p := root.Children[0]
	if p.ID != "p" || len(p.Children) != 2 || p.Children[0].ID != "c1" {
		t.Errorf("expected p with c1 before c2, got %+v", p)
	}
}

func TestSQLiteReaderMinimalSchema(t *testing.T) {
	path := createNodesDB(t,
		`CREATE TABLE nodes (id TEXT PRIMARY KEY, parent_id TEXT, title TEXT)`,
		`INSERT INTO nodes VALUES ('a', NULL, 'A')`,
		`INSERT INTO nodes VALUES ('b', 'a', 'B')`,
	)
	items, err := LoadFromSource(context.Background(), DataSource{Type: SourceTypeSQLite, Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[1].ParentID != "a" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestNewSQLiteReaderRejectsOtherTypes(t *testing.T) {
	if _, err := NewSQLiteReader(DataSource{Type: SourceTypeJSON, Path: "x.json"}); err == nil {
		t.Error("expected error for non-sqlite source")
	}
}
