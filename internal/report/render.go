package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"canvaslytics/internal/canvas"
	"canvaslytics/internal/store"
)

// Render pretty-prints markdown for the terminal.
func Render(markdown string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("building renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(18)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Status bundles what the status subcommand shows. Quota is the API
// quota snapshot recorded when the last run finished.
type Status struct {
	DBPath  string
	Counts  map[string]int64
	LastRun *store.Run
	Quota   *canvas.Metrics
}

// StatusView renders a styled status summary.
func StatusView(s Status) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("canvaslytics status"))
	b.WriteString("\n\n")
	row(&b, "database", s.DBPath)

	if s.LastRun != nil {
		r := s.LastRun
		style := okStyle
		switch r.Status {
		case "failed":
			style = errStyle
		case "running":
			style = warnStyle
		}
		row(&b, "last run", fmt.Sprintf("%s %s", r.ID, style.Render(r.Status)))
		row(&b, "started", r.StartedAt.Format(time.RFC3339))
		row(&b, "extracted", fmt.Sprintf("%d courses, %d students, %d pages",
			r.Courses, r.Students, r.Pages))
		if r.Error != "" {
			row(&b, "error", errStyle.Render(r.Error))
		}
	} else {
		row(&b, "last run", "none")
	}

	if len(s.Counts) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("tables"))
		b.WriteString("\n\n")
		names := make([]string, 0, len(s.Counts))
		for name := range s.Counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			row(&b, name, fmt.Sprintf("%d", s.Counts[name]))
		}
	}

	if s.Quota != nil {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("api quota"))
		b.WriteString("\n\n")
		row(&b, "remaining", fmt.Sprintf("%.1f", s.Quota.QuotaRemaining))
		row(&b, "cost consumed", fmt.Sprintf("%.1f", s.Quota.CostConsumed))
		row(&b, "calls", fmt.Sprintf("%d (%d retries)", s.Quota.TotalCalls, s.Quota.TotalRetries))
	}

	return b.String()
}

// RankingView renders the career ranking as a styled terminal table.
func RankingView(careers []store.CareerScore) string {
	if len(careers) == 0 {
		return warnStyle.Render("no career scores; run `canvaslytics careers` first")
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("career ranking"))
	b.WriteString("\n\n")
	for i, c := range careers {
		fmt.Fprintf(&b, "%2d. %-12s %6.1f  (mean CPS %.1f over %d courses)\n",
			i+1, c.Career, c.Score, c.MeanCPS, c.Courses)
	}
	return b.String()
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}
