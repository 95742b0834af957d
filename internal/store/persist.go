package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verte-zerg/nbtscore/internal/model"
)

// Execer runs one statement. *sql.DB, *sql.Tx and *sql.Conn satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const (
	insertPlayer    = `INSERT INTO players (player_name) VALUES (?) ON CONFLICT DO NOTHING`
	insertObjective = `INSERT INTO objectives (objective_name, display_name, criteria_name) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`
	insertStat      = `INSERT INTO stats (score, player_name, objective_name, time) VALUES (?, ?, ?, ?)`
)

// Persist writes a snapshot through exec one statement at a time: players and
// objectives are inserted idempotently, then one observation row per score is
// appended with ts. A zero ts means now. The first failure stops the run and
// nothing already written is undone here.
func Persist(ctx context.Context, exec Execer, d Dialect, st *model.Stats, ts time.Time) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	playerQuery := d.Rebind(insertPlayer)
	for _, player := range st.Players() {
		if _, err := exec.ExecContext(ctx, playerQuery, player); err != nil {
			return fmt.Errorf("failed to insert player %q: %w", player, err)
		}
	}

	objectiveQuery := d.Rebind(insertObjective)
	for _, name := range st.ObjectiveNames() {
		obj, _ := st.Objective(name)
		if _, err := exec.ExecContext(ctx, objectiveQuery, name, obj.DisplayName, obj.CriteriaName); err != nil {
			return fmt.Errorf("failed to insert objective %q: %w", name, err)
		}
	}

	statQuery := d.Rebind(insertStat)
	at := d.timeValue(ts)
	for _, name := range st.ScoreGroupNames() {
		for _, ps := range st.Scores(name) {
			if _, err := exec.ExecContext(ctx, statQuery, ps.Score, ps.PlayerName, name, at); err != nil {
				return fmt.Errorf("failed to insert score of %q for %q: %w", ps.PlayerName, name, err)
			}
		}
	}
	return nil
}
