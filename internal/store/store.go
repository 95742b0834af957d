// Package store persists scoreboard snapshots to SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver.
	_ "modernc.org/sqlite" // SQLite driver.

	"github.com/verte-zerg/nbtscore/internal/model"
)

// Store wraps database access for snapshot data.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens or creates the database behind url and applies migrations.
func Open(url string) (*Store, error) {
	target, err := ParseURL(url)
	if err != nil {
		return nil, err
	}
	if target.Path != "" {
		if err := os.MkdirAll(filepath.Dir(target.Path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if target.Dialect == SQLite {
		// Pragmas apply per connection and sqlite serializes writers anyway.
		db.SetMaxOpenConns(1)
	}
	store := &Store{db: db, dialect: target.Dialect}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect reports the SQL flavour of the open database.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) migrate() error {
	var stmts []string
	switch s.dialect {
	case Postgres:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS players (
				player_name TEXT PRIMARY KEY
			);`,
			`CREATE TABLE IF NOT EXISTS objectives (
				objective_name TEXT PRIMARY KEY,
				display_name TEXT NOT NULL,
				criteria_name TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS stats (
				id BIGSERIAL PRIMARY KEY,
				score BIGINT NOT NULL,
				player_name TEXT NOT NULL REFERENCES players(player_name),
				objective_name TEXT NOT NULL REFERENCES objectives(objective_name),
				time TIMESTAMPTZ NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_stats_time ON stats(time);`,
		}
	default:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS players (
				player_name TEXT PRIMARY KEY
			);`,
			`CREATE TABLE IF NOT EXISTS objectives (
				objective_name TEXT PRIMARY KEY,
				display_name TEXT NOT NULL,
				criteria_name TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS stats (
				id INTEGER PRIMARY KEY,
				score INTEGER NOT NULL,
				player_name TEXT NOT NULL REFERENCES players(player_name),
				objective_name TEXT NOT NULL REFERENCES objectives(objective_name),
				time TEXT NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_stats_time ON stats(time);`,
		}
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveSnapshot persists st with timestamp ts inside a single transaction.
func (s *Store) SaveSnapshot(ctx context.Context, st *model.Stats, ts time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if err = Persist(ctx, tx, s.dialect, st, ts); err != nil {
		return err
	}
	return tx.Commit()
}

// History returns stored observations matching cfg, oldest first. With
// cfg.Last set only the most recent rows are kept.
func (s *Store) History(ctx context.Context, cfg model.HistoryConfig) ([]model.Observation, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Player != "" {
		clauses = append(clauses, "player_name = ?")
		args = append(args, cfg.Player)
	}
	if cfg.Objective != "" {
		clauses = append(clauses, "objective_name = ?")
		args = append(args, cfg.Objective)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "time >= ?")
		args = append(args, s.dialect.timeValue(*cfg.Since))
	}
	order := "ASC"
	limit := ""
	if cfg.Last > 0 {
		order = "DESC"
		limit = " LIMIT ?"
		args = append(args, cfg.Last)
	}
	query := fmt.Sprintf(`SELECT time, player_name, objective_name, score
		FROM stats
		WHERE %s
		ORDER BY time %s, id %s%s`, strings.Join(clauses, " AND "), order, order, limit)
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Observation
	for rows.Next() {
		var obs model.Observation
		var at string
		if err := rows.Scan(&at, &obs.Player, &obs.Objective, &obs.Score); err != nil {
			return nil, err
		}
		if obs.Time, err = parseTime(at); err != nil {
			return nil, err
		}
		result = append(result, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 {
		slices.Reverse(result)
	}
	return result, nil
}

// Snapshots lists every stored snapshot time with its observation count,
// oldest first.
func (s *Store) Snapshots(ctx context.Context) ([]model.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT time, COUNT(*) FROM stats GROUP BY time ORDER BY time ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var at string
		if err := rows.Scan(&at, &snap.Rows); err != nil {
			return nil, err
		}
		if snap.Time, err = parseTime(at); err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
