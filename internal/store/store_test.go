package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/nbtscore/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "scores.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return st
}

func TestSaveSnapshotAppendsObservations(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	first := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	if err := st.SaveSnapshot(ctx, snapshotStats(), first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := st.SaveSnapshot(ctx, snapshotStats(), second); err != nil {
		t.Fatalf("save again: %v", err)
	}

	var players, objectives int
	if err := st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&players); err != nil {
		t.Fatalf("count players: %v", err)
	}
	if err := st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM objectives`).Scan(&objectives); err != nil {
		t.Fatalf("count objectives: %v", err)
	}
	if players != 2 || objectives != 2 {
		t.Fatalf("expected idempotent identities, got %d players %d objectives", players, objectives)
	}

	snaps, err := st.Snapshots(ctx)
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != 2 || snaps[0].Rows != 3 || snaps[1].Rows != 3 {
		t.Fatalf("unexpected snapshots %+v", snaps)
	}
	if !snaps[0].Time.Equal(first) || !snaps[1].Time.Equal(second) {
		t.Fatalf("unexpected snapshot times %v %v", snaps[0].Time, snaps[1].Time)
	}
}

func TestSaveSnapshotRejectsOrphanGroup(t *testing.T) {
	st := openTemp(t)
	orphan := model.NewStats(nil, map[string][]model.PlayerScore{
		"ghost": {{PlayerName: "Alice", Score: 1}},
	})
	if err := st.SaveSnapshot(context.Background(), orphan, time.Now()); err == nil {
		t.Fatalf("expected foreign key failure")
	}
	snaps, err := st.Snapshots(context.Background())
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != 0 {
		t.Fatalf("expected rollback, got %+v", snaps)
	}
}

func TestHistoryFilters(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := st.SaveSnapshot(ctx, snapshotStats(), base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	all, err := st.History(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(all) != 9 {
		t.Fatalf("expected 9 observations, got %d", len(all))
	}

	alice, err := st.History(ctx, model.HistoryConfig{Player: "Alice", Objective: "deaths"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(alice) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(alice))
	}
	for i, obs := range alice {
		if obs.Score != 3 || !obs.Time.Equal(base.Add(time.Duration(i)*time.Hour)) {
			t.Fatalf("unexpected observation %d: %+v", i, obs)
		}
	}

	since := base.Add(90 * time.Minute)
	recent, err := st.History(ctx, model.HistoryConfig{Objective: "kills", Since: &since})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(recent) != 1 || !recent[0].Time.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("unexpected since filter result %+v", recent)
	}

	last, err := st.History(ctx, model.HistoryConfig{Player: "Bob", Last: 2})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(last) != 2 || !last[0].Time.Before(last[1].Time) || !last[1].Time.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("unexpected last result %+v", last)
	}
}
