package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/nbtscore/internal/model"
)

// TableOptions controls terminal table rendering.
type TableOptions struct {
	// ForceColor styles the header even when w is not a terminal.
	ForceColor bool
}

// RenderTable prints the pivoted matrix as an aligned table.
func RenderTable(w io.Writer, st *model.Stats, opts TableOptions) error {
	m := BuildMatrix(st)
	if len(m.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No player scores found.")
		return err
	}
	rightAlign := map[int]bool{}
	for i := 1; i < len(m.Header); i++ {
		rightAlign[i] = true
	}
	lines := formatTable(m.Header, m.Rows, rightAlign)
	style := newStyler(w, opts.ForceColor)
	for i, line := range lines {
		if i == 0 {
			line = style.header(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	padding := width - displayWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

// displayWidth counts terminal cells, so wide runes in player names line up.
func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
