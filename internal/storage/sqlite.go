package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tac_codec/internal/model"
)

// SQLiteArchive is the local archive of every parsed report.
type SQLiteArchive struct {
	db *sql.DB
}

// OpenSQLite opens or creates the archive at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteArchive{db: db}, nil
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

func createSQLiteSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		received_at TEXT NOT NULL,
		kind TEXT NOT NULL,
		aerodrome TEXT,
		issue_time TEXT,
		status TEXT NOT NULL,
		issue_count INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		blob BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_kind ON reports(kind);
	CREATE INDEX IF NOT EXISTS idx_reports_aerodrome ON reports(aerodrome);
	CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
	CREATE INDEX IF NOT EXISTS idx_reports_received ON reports(received_at);

	-- FTS5 virtual table for full-text search on the report text.
	CREATE VIRTUAL TABLE IF NOT EXISTS reports_fts USING fts5(
		source,
		content='reports',
		content_rowid='id'
	);

	CREATE TRIGGER IF NOT EXISTS reports_ai AFTER INSERT ON reports BEGIN
		INSERT INTO reports_fts(rowid, source) VALUES (new.id, new.source);
	END;

	CREATE TRIGGER IF NOT EXISTS reports_ad AFTER DELETE ON reports BEGIN
		INSERT INTO reports_fts(reports_fts, rowid, source) VALUES('delete', old.id, old.source);
	END;
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Insert stores rec and returns its row ID.
func (a *SQLiteArchive) Insert(ctx context.Context, rec Record) (int64, error) {
	blob, err := encodeBlob(rec)
	if err != nil {
		return 0, err
	}

	result, err := a.db.ExecContext(ctx, `
		INSERT INTO reports (received_at, kind, aerodrome, issue_time, status, issue_count, source, blob)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ReceivedAt.UTC().Format(time.RFC3339Nano), string(rec.Kind), rec.Aerodrome, rec.IssueTime,
		string(rec.Status), len(rec.Issues), rec.Source, blob)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	return result.LastInsertId()
}

// Save implements Store.
func (a *SQLiteArchive) Save(ctx context.Context, rec Record) error {
	_, err := a.Insert(ctx, rec)
	return err
}

// QueryParams filters archived reports.
type QueryParams struct {
	ID        int64
	Kind      model.Kind
	Aerodrome string
	Status    string
	FullText  string // FTS5 match on the report text.
	Limit     int    // Max results (default 100).
	Offset    int
	OrderDesc bool
}

// Query returns the archived reports matching p, ordered by ID.
func (a *SQLiteArchive) Query(ctx context.Context, p QueryParams) ([]Record, error) {
	var conditions []string
	var args []any

	if p.ID != 0 {
		conditions = append(conditions, "r.id = ?")
		args = append(args, p.ID)
	}
	if p.Kind != "" {
		conditions = append(conditions, "r.kind = ?")
		args = append(args, string(p.Kind))
	}
	if p.Aerodrome != "" {
		conditions = append(conditions, "r.aerodrome = ?")
		args = append(args, strings.ToUpper(p.Aerodrome))
	}
	if p.Status != "" {
		conditions = append(conditions, "r.status = ?")
		args = append(args, p.Status)
	}

	query := `SELECT r.id, r.blob FROM reports r`
	if p.FullText != "" {
		query += ` JOIN reports_fts fts ON r.id = fts.rowid`
		conditions = append([]string{"reports_fts MATCH ?"}, conditions...)
		args = append([]any{p.FullText}, args...)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	direction := "ASC"
	if p.OrderDesc {
		direction = "DESC"
	}
	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" ORDER BY r.id %s LIMIT %d OFFSET %d", direction, limit, p.Offset)

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec, err := decodeBlob(blob)
		if err != nil {
			return nil, fmt.Errorf("report %d: %w", id, err)
		}
		rec.ID = id
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetByID returns one report, or nil if there is none.
func (a *SQLiteArchive) GetByID(ctx context.Context, id int64) (*Record, error) {
	recs, err := a.Query(ctx, QueryParams{ID: id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// Stats are aggregate counts over the archive.
type Stats struct {
	Total    int            `json:"total"`
	ByKind   map[string]int `json:"by_kind"`
	ByStatus map[string]int `json:"by_status"`
}

// GetStats counts archived reports by kind and status.
func (a *SQLiteArchive) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByKind: map[string]int{}, ByStatus: map[string]int{}}
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	for column, into := range map[string]map[string]int{"kind": stats.ByKind, "status": stats.ByStatus} {
		rows, err := a.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM reports GROUP BY %s`, column, column))
		if err != nil {
			return nil, fmt.Errorf("count by %s: %w", column, err)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan row: %w", err)
			}
			into[key] = n
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}
