package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/nbtscore/internal/model"
)

func leaderboard() *model.Stats {
	return model.NewStats(
		map[string]model.Objective{"kills": {CriteriaName: "playerKillCount", DisplayName: "Kills"}},
		map[string][]model.PlayerScore{
			"kills": {
				{PlayerName: "dave", Score: 4},
				{PlayerName: "bob", Score: 10},
				{PlayerName: "carol", Score: 10},
				{PlayerName: "alice", Score: 7},
				{PlayerName: "bob", Score: 99},
			},
		},
	)
}

func TestTopPlayersRanksWithTies(t *testing.T) {
	ranked, err := TopPlayers(leaderboard(), "kills", 0)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []Ranked{
		{Rank: 1, Player: "bob", Score: 10},
		{Rank: 1, Player: "carol", Score: 10},
		{Rank: 3, Player: "alice", Score: 7},
		{Rank: 4, Player: "dave", Score: 4},
	}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(ranked))
	}
	for i := range want {
		if ranked[i] != want[i] {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], ranked[i])
		}
	}
}

func TestTopPlayersLimit(t *testing.T) {
	ranked, err := TopPlayers(leaderboard(), "kills", 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(ranked) != 2 || ranked[1].Player != "carol" {
		t.Fatalf("unexpected limited ranking: %+v", ranked)
	}
}

func TestTopPlayersUnknownObjective(t *testing.T) {
	if _, err := TopPlayers(leaderboard(), "missing", 0); err == nil {
		t.Fatalf("expected error for unknown objective")
	}
}

func TestRenderTop(t *testing.T) {
	st := leaderboard()
	ranked, err := TopPlayers(st, "kills", 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	obj, _ := st.Objective("kills")
	var buf bytes.Buffer
	if err := RenderTop(&buf, obj, ranked); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := strings.Join([]string{
		"Kills",
		"Rank  Player  Score",
		"   1  bob        10",
		"   1  carol      10",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%q", got)
	}
}
