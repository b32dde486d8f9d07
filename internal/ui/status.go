package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/tasks"
)

// FormatProgress renders one pipeline update as a status line.
func FormatProgress(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.Delivered:
		return styles.OK(u.Message)
	case tasks.Failed:
		return styles.Err(u.Message)
	case tasks.Skipped:
		return styles.Warn(u.Message)
	default:
		return styles.Help(fmt.Sprintf("[%s] %s", u.Phase, u.Message))
	}
}

// FormatSummary renders the totals of a run followed by each failed line.
func FormatSummary(s tasks.Summary) string {
	var b strings.Builder

	b.WriteString(styles.Title("Summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Processed: %d\n", s.Processed)
	fmt.Fprintf(&b, "%s %d\n", styles.OK("Delivered:"), s.Delivered)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, "%s %d\n", styles.Warn("Skipped:"), s.Skipped)
	}
	if s.Failed > 0 {
		fmt.Fprintf(&b, "%s %d\n", styles.Err("Failed:"), s.Failed)
		for _, f := range s.Failures {
			fmt.Fprintf(&b, "  %s %v\n", f.Ref, f.Err)
		}
	}

	return b.String()
}

// HistoryTable renders retrievals as a bordered table.
func HistoryTable(rows []*models.Retrieval) string {
	if len(rows) == 0 {
		return styles.Help("No retrievals recorded.")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(NewStyle("#626262")).
		Headers("#", "Track", "Format", "Mode", "Destination", "ID").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return NewBold("#7D56F4").Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, r := range rows {
		track := r.Name()
		if line := r.ArtistLine(); line != "" {
			track = line + " - " + track
		}
		t.Row(strconv.Itoa(r.Sequence()), track, r.Format(), string(r.Mode()), r.Destination(), r.ID())
	}

	return t.String()
}
