// Package storage archives parsed TAC reports. SQLite keeps a local,
// searchable archive of every report; PostgreSQL keeps the latest report
// per aerodrome and kind; ClickHouse keeps parse outcomes and issues for
// analytics.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tac_codec/internal/codec"
	"tac_codec/internal/conversion"
	"tac_codec/internal/model"
)

// Record is one archived report with its parse outcome.
type Record struct {
	ID         int64             `msgpack:"-"`
	ReceivedAt time.Time         `msgpack:"received_at"`
	Kind       model.Kind        `msgpack:"kind"`
	Aerodrome  string            `msgpack:"aerodrome"`
	IssueTime  string            `msgpack:"issue_time"`
	Status     conversion.Status `msgpack:"status"`
	Source     string            `msgpack:"source"`
	Issues     conversion.Issues `msgpack:"issues"`
	METAR      *model.METAR      `msgpack:"metar,omitempty"`
	TAF        *model.TAF        `msgpack:"taf,omitempty"`
}

// NewRecord builds a record from a parse result.
func NewRecord(r *codec.Report, receivedAt time.Time) Record {
	rec := Record{
		ReceivedAt: receivedAt.UTC(),
		Kind:       r.Kind,
		Aerodrome:  r.Aerodrome(),
		Status:     r.Status,
		Source:     r.Source,
		Issues:     r.Issues,
		METAR:      r.METAR,
		TAF:        r.TAF,
	}
	switch {
	case r.METAR != nil && r.METAR.IssueTime != nil:
		rec.IssueTime = r.METAR.IssueTime.String()
	case r.TAF != nil && r.TAF.IssueTime != nil:
		rec.IssueTime = r.TAF.IssueTime.String()
	}
	return rec
}

// Report returns the archived report object.
func (r Record) Report() any {
	if r.METAR != nil {
		return r.METAR
	}
	if r.TAF != nil {
		return r.TAF
	}
	return nil
}

// Store is implemented by every archive backend.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Close() error
}

// Config holds the settings of every backend. Empty settings disable a backend.
type Config struct {
	SQLitePath string
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
}

// DB fans a record out to every opened backend.
type DB struct {
	SQLite *SQLiteArchive
	PG     *PostgresStore
	CH     *ClickHouseStore
}

// Open opens the configured backends and creates their schemas.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	d := &DB{}
	if cfg.SQLitePath != "" {
		a, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		d.SQLite = a
	}
	if cfg.Postgres.URL != "" {
		pg, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		d.PG = pg
		if err := pg.CreateSchema(ctx); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
	}
	if cfg.ClickHouse.Addr != "" {
		ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		d.CH = ch
		if err := ch.CreateSchema(ctx); err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return d, nil
}

func (d *DB) stores() []Store {
	var out []Store
	if d.SQLite != nil {
		out = append(out, d.SQLite)
	}
	if d.PG != nil {
		out = append(out, d.PG)
	}
	if d.CH != nil {
		out = append(out, d.CH)
	}
	return out
}

// Save writes rec to every backend. A failing backend does not stop the others.
func (d *DB) Save(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range d.stores() {
		if err := s.Save(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every backend.
func (d *DB) Close() error {
	var errs []error
	for _, s := range d.stores() {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Enabled reports whether any backend is open.
func (d *DB) Enabled() bool {
	return len(d.stores()) > 0
}
