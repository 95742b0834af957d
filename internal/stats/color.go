package stats

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

type styler struct {
	headerStyle *lipgloss.Style
}

func newStyler(w io.Writer, force bool) styler {
	if !shouldUseColor(w, force) {
		return styler{}
	}
	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(termenv.ANSI256))
	renderer.SetColorProfile(termenv.ANSI256)
	style := renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("179"))
	return styler{headerStyle: &style}
}

func (s styler) header(line string) string {
	if s.headerStyle == nil {
		return line
	}
	return s.headerStyle.Render(line)
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
