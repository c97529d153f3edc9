package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/anatolykoptev/go_hoover/internal/engine/analysis"
	"github.com/anatolykoptev/go_hoover/internal/engine/extract"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	countStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// renderMarkdown pretty-prints Markdown for a terminal; on failure the raw
// Markdown is returned.
func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// summaryBox is the short per-video summary printed to stderr.
func summaryBox(r *analysis.AnalysisResult) string {
	var lines []string
	lines = append(lines, titleStyle.Render(r.Metadata.Title))
	lines = append(lines, labelStyle.Render("channel  ")+r.Metadata.ChannelTitle)
	lines = append(lines, labelStyle.Render("method   ")+r.ExtractionMethod)
	for _, c := range extract.AllCategories {
		n := r.Summary.ByCategory[c]
		if n == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", countStyle.Render(fmt.Sprintf("%3d", n)), c.Label()))
	}
	lines = append(lines, fmt.Sprintf("%s URLs", countStyle.Render(fmt.Sprintf("%3d", r.Summary.URLs))))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func printBatchLine(w io.Writer, i, n int, it analysis.BatchItem) {
	prefix := labelStyle.Render("[" + strconv.Itoa(i+1) + "/" + strconv.Itoa(n) + "]")
	if it.Error != nil {
		fmt.Fprintf(w, "%s %s %s (%s)\n", prefix, errStyle.Render("✗"), it.Input, it.Error.Kind)
		return
	}
	fmt.Fprintf(w, "%s %s %s: %d entities\n", prefix, okStyle.Render("✓"), it.Result.Metadata.VideoID, it.Result.Summary.TotalEntities)
}
