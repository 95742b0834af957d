// Package stats pivots scoreboard stats into tables and renders them.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/nbtscore/internal/model"
)

const (
	playersHeader = "Players"
	missingScore  = "0"
)

// Matrix is the dense player x objective view of a snapshot. Objectives holds
// the identifier behind each score column, in column order.
type Matrix struct {
	Header     []string
	Objectives []string
	Rows       [][]string
}

// BuildMatrix pivots the score lists into one row per player and one column per
// objective. Columns follow the sorted objective identifiers, rows follow
// Stats.Players, and absent scores are "0". Score groups without an objective
// are not represented.
func BuildMatrix(st *model.Stats) Matrix {
	titles := st.ObjectiveNames()
	header := make([]string, 0, len(titles)+1)
	header = append(header, playersHeader)
	for _, title := range titles {
		obj, ok := st.Objective(title)
		if !ok {
			panic(fmt.Sprintf("stats: objective %q listed but not found", title))
		}
		header = append(header, obj.DisplayName)
	}

	players := st.Players()
	rows := make([][]string, 0, len(players))
	for _, player := range players {
		row := make([]string, 0, len(titles)+1)
		row = append(row, player)
		for _, title := range titles {
			score, ok := st.ScoreFor(title, player)
			if !ok {
				row = append(row, missingScore)
				continue
			}
			row = append(row, strconv.FormatInt(score, 10))
		}
		rows = append(rows, row)
	}
	return Matrix{Header: header, Objectives: titles, Rows: rows}
}

// WriteCSV writes the pivoted matrix as comma-separated values.
func WriteCSV(w io.Writer, st *model.Stats) error {
	m := BuildMatrix(st)
	cw := csv.NewWriter(w)
	if err := cw.Write(m.Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range m.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
