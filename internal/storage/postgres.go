package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	URL      string
	MaxConns int32
}

// PostgresStore keeps the latest report per aerodrome and kind.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CreateSchema creates the latest_reports table.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS latest_reports (
		aerodrome       TEXT NOT NULL,
		kind            TEXT NOT NULL,
		issue_time      TEXT,
		status          TEXT NOT NULL,
		source          TEXT NOT NULL,
		report          JSONB,
		issues          JSONB,
		received_at     TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (aerodrome, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_latest_reports_received ON latest_reports(received_at);
	`)
	return err
}

// Save upserts rec unless a newer report for the same aerodrome and kind
// is already stored. Reports without an aerodrome are skipped.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	if rec.Aerodrome == "" {
		return nil
	}
	reportJSON, err := json.Marshal(rec.Report())
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	issuesJSON, err := json.Marshal(rec.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO latest_reports (aerodrome, kind, issue_time, status, source, report, issues, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (aerodrome, kind) DO UPDATE SET
			issue_time = EXCLUDED.issue_time,
			status = EXCLUDED.status,
			source = EXCLUDED.source,
			report = EXCLUDED.report,
			issues = EXCLUDED.issues,
			received_at = EXCLUDED.received_at
		WHERE latest_reports.received_at <= EXCLUDED.received_at
	`, rec.Aerodrome, string(rec.Kind), rec.IssueTime, string(rec.Status), rec.Source, reportJSON, issuesJSON, rec.ReceivedAt)
	if err != nil {
		return fmt.Errorf("upsert latest report: %w", err)
	}
	return nil
}

// Latest returns the newest report for an aerodrome and kind, or nil.
func (s *PostgresStore) Latest(ctx context.Context, aerodrome string, kind model.Kind) (*Record, error) {
	rec := Record{Aerodrome: aerodrome, Kind: kind}
	var status string
	var reportJSON, issuesJSON []byte

	err := s.pool.QueryRow(ctx, `
		SELECT issue_time, status, source, report, issues, received_at
		FROM latest_reports WHERE aerodrome = $1 AND kind = $2
	`, aerodrome, string(kind)).Scan(&rec.IssueTime, &status, &rec.Source, &reportJSON, &issuesJSON, &rec.ReceivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Status = conversion.Status(status)

	if err := json.Unmarshal(issuesJSON, &rec.Issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	switch kind {
	case model.KindTAF:
		rec.TAF = &model.TAF{}
		err = json.Unmarshal(reportJSON, rec.TAF)
	default:
		rec.METAR = &model.METAR{}
		err = json.Unmarshal(reportJSON, rec.METAR)
	}
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rec, nil
}
