package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Addr     string
	Database string
	User     string
	Password string

	// BatchSize is how many records are buffered before a flush (default 500).
	BatchSize int
}

// ClickHouseStore records parse outcomes and their issues for analytics.
// Records are buffered and written in batches.
type ClickHouseStore struct {
	conn      driver.Conn
	batchSize int

	mu      sync.Mutex
	pending []Record
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	size := cfg.BatchSize
	if size <= 0 {
		size = 500
	}
	return &ClickHouseStore{conn: conn, batchSize: size}, nil
}

// CreateSchema creates the ClickHouse tables.
func (s *ClickHouseStore) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS parse_outcomes (
			received_at     DateTime64(3),
			kind            LowCardinality(String),
			aerodrome       LowCardinality(String),
			issue_time      String,
			status          LowCardinality(String),
			issue_count     UInt16,
			source          String
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(received_at)
		ORDER BY (kind, aerodrome, received_at)`,

		`CREATE TABLE IF NOT EXISTS parse_issues (
			received_at     DateTime64(3),
			kind            LowCardinality(String),
			aerodrome       LowCardinality(String),
			issue_kind      LowCardinality(String),
			message         String,
			token           String,
			token_index     Int16
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(received_at)
		ORDER BY (issue_kind, kind, received_at)`,
	}

	for _, q := range queries {
		if err := s.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Save buffers rec and flushes once a batch is full.
func (s *ClickHouseStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	s.pending = append(s.pending, rec)
	full := len(s.pending) >= s.batchSize
	s.mu.Unlock()
	if full {
		return s.Flush(ctx)
	}
	return nil
}

// Flush writes the buffered records.
func (s *ClickHouseStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	recs := s.pending
	s.pending = nil
	s.mu.Unlock()
	return s.InsertBatch(ctx, recs)
}

// InsertBatch writes recs and their issues in one batch per table.
func (s *ClickHouseStore) InsertBatch(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	outcomes, err := s.conn.PrepareBatch(ctx, `INSERT INTO parse_outcomes (received_at, kind, aerodrome, issue_time, status, issue_count, source)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	issues, err := s.conn.PrepareBatch(ctx, `INSERT INTO parse_issues (received_at, kind, aerodrome, issue_kind, message, token, token_index)`)
	if err != nil {
		_ = outcomes.Abort()
		return fmt.Errorf("prepare batch: %w", err)
	}

	nIssues := 0
	for _, r := range recs {
		err := outcomes.Append(r.ReceivedAt, string(r.Kind), r.Aerodrome, r.IssueTime, string(r.Status), uint16(len(r.Issues)), r.Source)
		if err != nil {
			_ = outcomes.Abort()
			_ = issues.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
		for _, is := range r.Issues {
			err := issues.Append(r.ReceivedAt, string(r.Kind), r.Aerodrome, string(is.Kind), is.Message, is.Token, int16(is.Index))
			if err != nil {
				_ = outcomes.Abort()
				_ = issues.Abort()
				return fmt.Errorf("append to batch: %w", err)
			}
			nIssues++
		}
	}

	if err := outcomes.Send(); err != nil {
		_ = issues.Abort()
		return fmt.Errorf("send batch: %w", err)
	}
	if nIssues == 0 {
		return issues.Abort()
	}
	if err := issues.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// IssueCounts returns issue counts per issue kind since the given time.
func (s *ClickHouseStore) IssueCounts(ctx context.Context, since time.Time) (map[string]uint64, error) {
	rows, err := s.conn.Query(ctx, "SELECT issue_kind, count() FROM parse_issues WHERE received_at >= ? GROUP BY issue_kind", since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]uint64)
	for rows.Next() {
		var kind string
		var count uint64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan issue counts: %w", err)
		}
		counts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issue counts: %w", err)
	}
	return counts, nil
}

// Close flushes pending records and closes the connection.
func (s *ClickHouseStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flushErr := s.Flush(ctx)
	if err := s.conn.Close(); err != nil {
		return err
	}
	return flushErr
}
