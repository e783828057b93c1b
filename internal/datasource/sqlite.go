package datasource

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// nodesQuery reads the nodes table. Missing optional columns are handled by
// loadItemsSimple.
const nodesQuery = `
	SELECT id, COALESCE(parent_id, ''), COALESCE(title, ''), COALESCE(body, ''),
	       COALESCE(kind, ''), COALESCE(position, 0)
	FROM nodes
	ORDER BY COALESCE(parent_id, ''), COALESCE(position, 0), rowid
`

// SQLiteReader provides read access to a tree stored in a SQLite nodes table:
//
//	CREATE TABLE nodes (
//	    id        TEXT PRIMARY KEY,
//	    parent_id TEXT,
//	    title     TEXT,
//	    body      TEXT,
//	    kind      TEXT,     -- 'leaf' or 'parent'
//	    position  INTEGER
//	);
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	// Open in read-only mode so a running writer is never blocked
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&_journal_mode=WAL", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	return &SQLiteReader{
		db:   db,
		path: source.Path,
	}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadItems reads every row of the nodes table.
func (r *SQLiteReader) LoadItems(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, nodesQuery)
	if err != nil {
		// Older schemas without kind/position columns
		return r.loadItemsSimple(ctx)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ParentID, &it.Title, &it.Body, &it.Kind, &it.Position); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading nodes from %s: %w", r.path, err)
	}
	return items, nil
}

func (r *SQLiteReader) loadItemsSimple(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, COALESCE(parent_id, ''), COALESCE(title, '') FROM nodes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying nodes in %s: %w", r.path, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ParentID, &it.Title); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountNodes returns the number of rows in the nodes table.
func (r *SQLiteReader) CountNodes(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting nodes: %w", err)
	}
	return n, nil
}
