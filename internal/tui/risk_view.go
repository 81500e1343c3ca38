package tui

import (
	"fmt"
	"strings"

	"codenav/internal/app"

	"github.com/charmbracelet/lipgloss"
)

// renderRisk draws the risk distribution panel: the three-bucket tally with
// percentage bars, the top risk reasons, and the top files scaled against
// the worst file's score.
func renderRisk(t Theme, sum app.RiskSummary, width int) string {
	var b strings.Builder

	b.WriteString(t.Muted.Render(fmt.Sprintf("%d snippets analyzed", sum.Snippets)))
	b.WriteString("\n\n")

	barW := maxInt(8, width-18)
	writeBucket := func(label string, style lipgloss.Style, count, pct int) {
		bar := percentBar(pct, barW)
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			style.Render(fmt.Sprintf("%-6s", label)),
			style.Render(bar),
			t.Muted.Render(fmt.Sprintf("%d (%d%%)", count, pct)),
		))
	}
	writeBucket("Low", t.RiskLow, sum.Counts.Low, sum.LowPct)
	writeBucket("Medium", t.RiskMedium, sum.Counts.Medium, sum.MediumPct)
	writeBucket("High", t.RiskHigh, sum.Counts.High, sum.HighPct)

	b.WriteString("\n")
	b.WriteString(t.PaneTitle.Render("Top signals"))
	b.WriteString("\n")
	if len(sum.TopReasons) == 0 {
		b.WriteString(t.Muted.Render("Run a query to populate risk insights."))
		b.WriteString("\n")
	} else {
		for _, rc := range sum.TopReasons {
			b.WriteString(fmt.Sprintf("%s %s\n",
				t.Muted.Render(fmt.Sprintf("%3d×", rc.Count)),
				truncate(rc.Reason, maxInt(8, width-6)),
			))
		}
	}

	b.WriteString("\n")
	b.WriteString(t.PaneTitle.Render("Top risky files"))
	b.WriteString("\n")
	if len(sum.TopFiles) == 0 {
		b.WriteString(t.Muted.Render("Run a query to populate top risky files."))
	} else {
		for i, fs := range sum.TopFiles {
			share := 0
			if sum.MaxFileScore > 0 {
				share = fs.Score * 100 / sum.MaxFileScore
			}
			b.WriteString(truncate(fs.File, maxInt(8, width-6)))
			b.WriteString("  " + t.Muted.Render(fmt.Sprintf("%d/5", fs.Score)))
			b.WriteString("\n")
			b.WriteString(riskBarStyle(t, fs.Score).Render(percentBar(share, barW)))
			if i != len(sum.TopFiles)-1 {
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func riskBarStyle(t Theme, score int) lipgloss.Style {
	switch app.ClassifyScore(score) {
	case app.SeverityHigh:
		return t.RiskHigh
	case app.SeverityMedium:
		return t.RiskMedium
	default:
		return t.RiskLow
	}
}

func percentBar(pct, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
