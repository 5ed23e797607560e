package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/okonma/citymood/collector"
	"github.com/okonma/citymood/db/service"
)

var (
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Bold(true)
	cityStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#89dceb"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	neutralStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c2e7"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
)

// RenderCycleSummary formats a finished collection cycle for the terminal.
func RenderCycleSummary(stats collector.CycleStats) string {
	var sb strings.Builder

	header := fmt.Sprintf("Collection finished in %s", stats.Duration.Round(time.Second))
	sb.WriteString(headerStyle.Render(header) + "\n")
	sb.WriteString(fmt.Sprintf("  %d posts, %d comments across %d cities\n",
		stats.Posts, stats.Comments, stats.Cities))
	if stats.Skipped > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  %d items skipped (too short to score)", stats.Skipped)) + "\n")
	}

	for _, city := range stats.PerCity {
		line := fmt.Sprintf("  %s: %d posts, %d comments",
			cityStyle.Render(city.City), city.Posts, city.Comments)
		if city.Failed {
			line = fmt.Sprintf("  %s: %s", cityStyle.Render(city.City), failedStyle.Render("fetch failed"))
		} else if city.Errors > 0 {
			line += dimStyle.Render(fmt.Sprintf(" (%d errors)", city.Errors))
		}
		sb.WriteString(line + "\n")
	}

	return sb.String()
}

// RenderCitySummary formats one city's aggregate sentiment.
func RenderCitySummary(summary service.SentimentSummary) string {
	var sb strings.Builder

	name := summary.City
	if name == "" {
		name = "All cities"
	}
	sb.WriteString(cityStyle.Bold(true).Render(name) + "\n")

	if summary.TotalPosts == 0 {
		sb.WriteString(dimStyle.Render("  no posts collected yet") + "\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  %s %d (%.1f%%)  %s %d (%.1f%%)  %s %d (%.1f%%)\n",
		positiveStyle.Render("positive"), summary.PositiveCount, summary.PositivePct,
		neutralStyle.Render("neutral"), summary.NeutralCount, summary.NeutralPct,
		negativeStyle.Render("negative"), summary.NegativeCount, summary.NegativePct))
	sb.WriteString(fmt.Sprintf("  avg compound %.3f over %d posts, avg score %.1f\n",
		summary.AvgCompound, summary.TotalPosts, summary.AvgScore))

	return sb.String()
}
