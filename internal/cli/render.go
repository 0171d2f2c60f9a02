package cli

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"planner/internal/planner"
)

const columnWidth = 28

// accents maps the accent names used in column files to ANSI colors.
var accents = map[string]string{
	"blue":   "33",
	"purple": "135",
	"red":    "196",
	"yellow": "220",
	"green":  "42",
	"gray":   "240",
}

func accentColor(name string) lipgloss.Color {
	if c, ok := accents[strings.ToLower(name)]; ok {
		return lipgloss.Color(c)
	}
	if name != "" {
		// Raw ANSI or hex value.
		return lipgloss.Color(name)
	}
	return lipgloss.Color(accents["gray"])
}

// RenderBoard draws the columns side by side with their items in order.
func RenderBoard(v planner.BoardView) string {
	subtle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	rendered := make([]string, 0, len(v.Columns()))
	for _, col := range v.Columns() {
		accent := accentColor(col.Accent)
		items := v.Items(col.ID)

		title := lipgloss.NewStyle().Bold(true).Foreground(accent).
			Render(strings.TrimSpace(col.Title + " (" + strconv.Itoa(len(items)) + ")"))

		lines := []string{title, ""}
		if len(items) == 0 {
			lines = append(lines, subtle.Render("empty"))
		}
		for _, it := range items {
			lines = append(lines, "• "+it.Label())
			lines = append(lines, subtle.Render("  "+it.ID.String()[:8]))
		}

		rendered = append(rendered, lipgloss.NewStyle().
			Width(columnWidth).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// RenderJSON prints the board order, the same shape a save sends.
func RenderJSON(v planner.BoardView) (string, error) {
	out, err := json.MarshalIndent(v.Snapshot(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RenderNotices formats notices one per line, errors in red.
func RenderNotices(notices []planner.Notice) string {
	styles := map[planner.NoticeLevel]lipgloss.Style{
		planner.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		planner.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		planner.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	lines := make([]string, len(notices))
	for i, n := range notices {
		lines[i] = styles[n.Level].Render(n.Level.String() + ": " + n.Message)
	}
	return strings.Join(lines, "\n")
}
