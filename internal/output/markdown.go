package output

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Report width bounds. Reports are capped so tables stay readable on
// very wide terminals and never wrap into noise on very narrow ones.
const (
	minReportWidth = 24
	maxReportWidth = 100
)

// RenderReport renders a markdown status report for the terminal.
// Rendering is best effort: if glamour fails, the raw markdown comes
// back instead so the report is never swallowed.
func RenderReport(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(reportWidth()),
	)
	if err != nil {
		return text
	}
	rendered, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

// reportWidth measures stdout, falling back to $COLUMNS and then 80,
// clamped to the report bounds.
func reportWidth() int {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	} else if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		width = cols
	}

	if width < minReportWidth {
		return minReportWidth
	}
	if width > maxReportWidth {
		return maxReportWidth
	}
	return width
}
