package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"faceharvest/pkg/faces"
	"faceharvest/pkg/harvest"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT    NOT NULL,
	source      TEXT    NOT NULL,
	idx         INTEGER NOT NULL,
	path        TEXT    NOT NULL,
	x           INTEGER NOT NULL,
	y           INTEGER NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	created_at  DATETIME NOT NULL,
	UNIQUE (run_id, source, idx)
);
CREATE INDEX IF NOT EXISTS idx_artifacts_source ON artifacts(source);

CREATE TABLE IF NOT EXISTS harvests (
	run_id      TEXT PRIMARY KEY,
	query       TEXT    NOT NULL,
	directory   TEXT    NOT NULL,
	discovered  INTEGER NOT NULL,
	saved       INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  DATETIME NOT NULL
);
`

// Catalog is a SQLite index of harvest runs and the face crops they produced
type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens or creates the catalog database at path
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	return &Catalog{db: db, path: path}, nil
}

// Close closes the database connection
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Path returns the database file path
func (c *Catalog) Path() string {
	return c.path
}

// Record stores one artifact. Re-recording the same run, source and index
// replaces the earlier row.
func (c *Catalog) Record(ctx context.Context, runID string, a faces.FaceArtifact) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO artifacts (run_id, source, idx, path, x, y, width, height, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, a.Source, a.Index, a.Path, a.Box.X, a.Box.Y, a.Box.Width, a.Box.Height, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording artifact %s: %w", a.Path, err)
	}
	return nil
}

// ListBySource returns every artifact recorded for source, oldest run first
func (c *Catalog) ListBySource(ctx context.Context, source string) ([]faces.FaceArtifact, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT source, idx, path, x, y, width, height
		FROM artifacts WHERE source = ? ORDER BY id`, source)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	var out []faces.FaceArtifact
	for rows.Next() {
		var a faces.FaceArtifact
		if err := rows.Scan(&a.Source, &a.Index, &a.Path, &a.Box.X, &a.Box.Y, &a.Box.Width, &a.Box.Height); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of recorded artifacts
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM artifacts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting artifacts: %w", err)
	}
	return n, nil
}

// RecordHarvest stores the summary of a harvest run
func (c *Catalog) RecordHarvest(ctx context.Context, r harvest.Report) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO harvests (run_id, query, directory, discovered, saved, failed, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Query, r.Directory, r.Discovered, r.Saved, r.Failed, r.Duration.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording harvest %s: %w", r.RunID, err)
	}
	return nil
}

// Harvests returns recorded harvest runs, most recent first
func (c *Catalog) Harvests(ctx context.Context) ([]harvest.Report, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT run_id, query, directory, discovered, saved, failed, duration_ms
		FROM harvests ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("querying harvests: %w", err)
	}
	defer rows.Close()

	var out []harvest.Report
	for rows.Next() {
		var r harvest.Report
		var ms int64
		if err := rows.Scan(&r.RunID, &r.Query, &r.Directory, &r.Discovered, &r.Saved, &r.Failed, &ms); err != nil {
			return nil, fmt.Errorf("scanning harvest: %w", err)
		}
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
