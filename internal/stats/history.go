package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/nbtscore/internal/model"
)

const sparkChars = " .:-=+*#%@"

const historyTimeLayout = "2006-01-02 15:04:05Z07:00"

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []int64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if minVal == maxVal {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	span := float64(maxVal) - float64(minVal)
	var b strings.Builder
	for _, v := range values {
		pos := (float64(v) - float64(minVal)) / span
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderHistory prints persisted observations in time order and, when they
// form a single player/objective series, a sparkline of the scores.
func RenderHistory(w io.Writer, obs []model.Observation) error {
	if len(obs) == 0 {
		_, err := fmt.Fprintln(w, "No observations found.")
		return err
	}
	rows := make([][]string, 0, len(obs))
	values := make([]int64, 0, len(obs))
	series := map[[2]string]struct{}{}
	for _, o := range obs {
		rows = append(rows, []string{
			o.Time.UTC().Format(historyTimeLayout),
			o.Player,
			o.Objective,
			strconv.FormatInt(o.Score, 10),
		})
		values = append(values, o.Score)
		series[[2]string{o.Player, o.Objective}] = struct{}{}
	}
	for _, line := range formatTable([]string{"Time", "Player", "Objective", "Score"}, rows, map[int]bool{3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if len(series) == 1 && len(values) > 1 {
		if _, err := fmt.Fprintf(w, "\nTrend: %s\n", Sparkline(values)); err != nil {
			return err
		}
	}
	return nil
}

// RenderSnapshots prints each persisted snapshot time with its row count.
func RenderSnapshots(w io.Writer, snaps []model.Snapshot) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(w, "No snapshots found.")
		return err
	}
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{s.Time.UTC().Format(time.RFC3339), strconv.Itoa(s.Rows)})
	}
	for _, line := range formatTable([]string{"Snapshot", "Rows"}, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
