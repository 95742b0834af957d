// Package model defines shared data structures.
package model

import (
	"slices"
	"sort"
	"time"
)

// Objective is a named scoring category with its display metadata.
type Objective struct {
	CriteriaName      string
	DisplayAutoUpdate int8
	DisplayName       string
	RenderType        string
}

// PlayerScore is one player's value under one objective.
type PlayerScore struct {
	Locked     int8
	PlayerName string
	Score      int64
}

// Stats is a decoded scoreboard snapshot. It is read-only once built.
type Stats struct {
	objectives   map[string]Objective
	playerScores map[string][]PlayerScore
}

// NewStats takes ownership of both maps. Callers must not modify them afterwards.
func NewStats(objectives map[string]Objective, playerScores map[string][]PlayerScore) *Stats {
	if objectives == nil {
		objectives = map[string]Objective{}
	}
	if playerScores == nil {
		playerScores = map[string][]PlayerScore{}
	}
	return &Stats{objectives: objectives, playerScores: playerScores}
}

// Objective looks up an objective by identifier.
func (s *Stats) Objective(name string) (Objective, bool) {
	obj, ok := s.objectives[name]
	return obj, ok
}

// Scores returns a copy of the score list recorded under an objective identifier.
func (s *Stats) Scores(name string) []PlayerScore {
	return slices.Clone(s.playerScores[name])
}

// ScoreFor returns the first score recorded for player under objective.
func (s *Stats) ScoreFor(objective, player string) (int64, bool) {
	for _, ps := range s.playerScores[objective] {
		if ps.PlayerName == player {
			return ps.Score, true
		}
	}
	return 0, false
}

// ObjectiveNames returns the objective identifiers in sorted order.
func (s *Stats) ObjectiveNames() []string {
	return sortedKeys(s.objectives)
}

// ScoreGroupNames returns the identifiers that have score lists, sorted. It may
// contain identifiers with no matching objective.
func (s *Stats) ScoreGroupNames() []string {
	return sortedKeys(s.playerScores)
}

// Players returns every player name with at least one score, sorted and
// deduplicated.
func (s *Stats) Players() []string {
	var players []string
	for _, scores := range s.playerScores {
		for _, ps := range scores {
			players = append(players, ps.PlayerName)
		}
	}
	sort.Strings(players)
	return slices.Compact(players)
}

// ObjectiveCount returns the number of objectives.
func (s *Stats) ObjectiveCount() int {
	return len(s.objectives)
}

// ScoreCount returns the number of score entries across all groups.
func (s *Stats) ScoreCount() int {
	total := 0
	for _, scores := range s.playerScores {
		total += len(scores)
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Observation is one persisted score row read back from the store.
type Observation struct {
	Time      time.Time
	Player    string
	Objective string
	Score     int64
}

// Snapshot summarizes one persisted snapshot time.
type Snapshot struct {
	Time time.Time
	Rows int
}

// HistoryConfig defines filters for reading observations back.
type HistoryConfig struct {
	Player    string
	Objective string
	Since     *time.Time
	Last      int
}
