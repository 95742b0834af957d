// Package browse provides the Bubble Tea scoreboard browser.
package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/nbtscore/internal/model"
	"github.com/verte-zerg/nbtscore/internal/stats"
)

const maxColumnWidth = 24

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea scoreboard browser.
type Model struct {
	title  string
	matrix stats.Matrix

	table   table.Model
	visible int

	filterMode bool
	filter     textinput.Model
	query      string

	width  int
	height int
}

// NewModel builds a browser over the pivoted scoreboard.
func NewModel(title string, st *model.Stats) *Model {
	m := &Model{
		title:  title,
		matrix: stats.BuildMatrix(st),
		filter: newFilterInput(),
	}
	m.table = table.New(
		table.WithColumns(buildColumns(m.matrix)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(tableStyles())
	m.applyQuery("")
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "/":
			m.filterMode = true
			m.filter.SetValue(m.query)
			m.filter.CursorEnd()
			return m, m.filter.Focus()
		case "esc":
			m.applyQuery("")
			return m, nil
		case "g", "home":
			m.table.GotoTop()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyQuery("")
		return m, nil
	case tea.KeyEnter:
		m.filterMode = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyQuery(m.filter.Value())
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	header := titleStyle.Render(m.title)
	body := tableMutedStyle.Render(m.table.View())
	if len(m.matrix.Rows) == 0 {
		body = "No player scores found."
	}
	return strings.Join([]string{header, body, m.renderFooter()}, "\n")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.filter.View() + "\n" + headerStyle.Render("enter: keep filter  esc: clear")
	}
	status := fmt.Sprintf("Showing %d of %d players", m.visible, len(m.matrix.Rows))
	if m.query != "" {
		status += fmt.Sprintf("  filter=%q", m.query)
	}
	help := "Scroll: up/down/pgup/pgdn  Filter: /  Clear: esc  Quit: q"
	return headerStyle.Render(status) + "\n" + headerStyle.Render(help)
}

// VisibleRows returns the rows currently shown.
func (m *Model) VisibleRows() []table.Row {
	return m.table.Rows()
}

func (m *Model) applyQuery(query string) {
	m.query = strings.TrimSpace(query)
	rows := filterRows(m.matrix.Rows, m.query)
	m.table.SetRows(rows)
	m.table.GotoTop()
	m.visible = len(rows)
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.table.SetWidth(m.width)
	chrome := lipgloss.Height(titleStyle.Render("X")) + 2
	m.table.SetHeight(max(1, m.height-chrome))
	m.filter.Width = max(10, m.width-lipgloss.Width(m.filter.Prompt)-2)
}

func filterRows(rows [][]string, query string) []table.Row {
	needle := strings.ToLower(query)
	out := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		if needle != "" && !strings.Contains(strings.ToLower(row[0]), needle) {
			continue
		}
		out = append(out, table.Row(row))
	}
	return out
}

func buildColumns(m stats.Matrix) []table.Column {
	columns := make([]table.Column, len(m.Header))
	for i, title := range m.Header {
		width := runewidth.StringWidth(title)
		for _, row := range m.Rows {
			if w := runewidth.StringWidth(row[i]); w > width {
				width = w
			}
		}
		columns[i] = table.Column{Title: title, Width: min(width, maxColumnWidth)}
	}
	return columns
}

func newFilterInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "Player: "
	input.Placeholder = "name"
	input.CharLimit = 64
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
