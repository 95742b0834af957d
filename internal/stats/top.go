package stats

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/verte-zerg/nbtscore/internal/model"
)

// Ranked is one line of an objective leaderboard.
type Ranked struct {
	Rank   int
	Player string
	Score  int64
}

// TopPlayers ranks the players of one objective by score, highest first, ties
// broken by name. Tied scores share a rank. Only the first entry per player
// counts, matching the CSV export. n <= 0 returns every player.
func TopPlayers(st *model.Stats, objective string, n int) ([]Ranked, error) {
	if _, ok := st.Objective(objective); !ok {
		return nil, fmt.Errorf("unknown objective %q", objective)
	}
	seen := map[string]struct{}{}
	var items []Ranked
	for _, ps := range st.Scores(objective) {
		if _, ok := seen[ps.PlayerName]; ok {
			continue
		}
		seen[ps.PlayerName] = struct{}{}
		items = append(items, Ranked{Player: ps.PlayerName, Score: ps.Score})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score == items[j].Score {
			return items[i].Player < items[j].Player
		}
		return items[i].Score > items[j].Score
	})
	for i := range items {
		if i > 0 && items[i].Score == items[i-1].Score {
			items[i].Rank = items[i-1].Rank
			continue
		}
		items[i].Rank = i + 1
	}
	if n > 0 && n < len(items) {
		items = items[:n]
	}
	return items, nil
}

// RenderTop prints a leaderboard for one objective.
func RenderTop(w io.Writer, obj model.Objective, ranked []Ranked) error {
	title := obj.DisplayName
	if title == "" {
		title = obj.CriteriaName
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(w, "No scores recorded.")
		return err
	}
	rows := make([][]string, 0, len(ranked))
	for _, r := range ranked {
		rows = append(rows, []string{strconv.Itoa(r.Rank), r.Player, strconv.FormatInt(r.Score, 10)})
	}
	for _, line := range formatTable([]string{"Rank", "Player", "Score"}, rows, map[int]bool{0: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
