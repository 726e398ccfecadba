package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yourorg/cma-api/internal/events"
)

type Store struct{ DB *sql.DB }

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Close() error { return s.DB.Close() }

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS comparable_searches (
		search_id      TEXT PRIMARY KEY,
		trace_id       TEXT,
		query          TEXT NOT NULL DEFAULT '',
		criteria       BOOLEAN NOT NULL DEFAULT false,
		strategy       TEXT,
		tier           TEXT,
		provider_calls INTEGER NOT NULL DEFAULT 0,
		results        INTEGER NOT NULL DEFAULT 0,
		geohash        TEXT,
		duration_ms    BIGINT NOT NULL DEFAULT 0,
		searched_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_comparable_searches_at ON comparable_searches(searched_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_comparable_searches_geohash ON comparable_searches(geohash);`,
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, q := range migrations {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// RecordSearch inserts one audit row. Replays of the same search id are ignored.
func (s *Store) RecordSearch(ctx context.Context, evt events.SearchCompleted) error {
	if s == nil || s.DB == nil {
		return errors.New("nil db")
	}
	if evt.SearchID == "" {
		return errors.New("record search: empty search id")
	}
	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO comparable_searches
			(search_id, trace_id, query, criteria, strategy, tier, provider_calls, results, geohash, duration_ms, searched_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (search_id) DO NOTHING`,
		evt.SearchID, nullString(evt.TraceID), evt.Query, evt.Criteria, nullString(evt.Strategy), nullString(evt.Tier),
		evt.ProviderCalls, evt.Results, nullString(evt.Geohash), evt.DurationMS, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record search %s: %w", evt.SearchID, err)
	}
	return nil
}

// RecentSearches lists audited searches, newest first.
func (s *Store) RecentSearches(ctx context.Context, limit int) ([]events.SearchCompleted, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT search_id, trace_id, query, criteria, strategy, tier, provider_calls, results, geohash, duration_ms, searched_at
		FROM comparable_searches
		ORDER BY searched_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.SearchCompleted
	for rows.Next() {
		var (
			e                       events.SearchCompleted
			trace, strat, tier, geo sql.NullString
		)
		if err := rows.Scan(&e.SearchID, &trace, &e.Query, &e.Criteria, &strat, &tier, &e.ProviderCalls, &e.Results, &geo, &e.DurationMS, &e.At); err != nil {
			return nil, err
		}
		e.TraceID, e.Strategy, e.Tier, e.Geohash = trace.String, strat.String, tier.String, geo.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
