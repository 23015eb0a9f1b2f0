package playerview

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/vplay/internal/ui/styles"
)

const (
	filledBlock = "━"
	emptyBlock  = "─"
)

// RenderProgressBar renders a line bar for percent (0..100).
// Format: ▶  1:23  ━━━━━─────  4:56
func RenderProgressBar(status string, position, duration float64, percent, width int) string {
	posStr := FormatSeconds(position)
	durStr := FormatSeconds(duration)

	fixedWidth := lipgloss.Width(status) + 2 + lipgloss.Width(posStr) + 2 + 2 + lipgloss.Width(durStr)
	barWidth := width - fixedWidth

	if barWidth < 3 {
		// Too narrow for bar, just show times
		return status + "  " + posStr + " / " + durStr
	}

	percent = min(max(percent, 0), 100)
	filled := barWidth * percent / 100

	s := styles.T().S()
	bar := styles.GradientBar(filledBlock, filled, barWidth) +
		s.BarEmpty.Render(strings.Repeat(emptyBlock, barWidth-filled))

	return status + "  " + posStr + "  " + bar + "  " + durStr
}

// FormatSeconds renders seconds as m:ss, or h:mm:ss past the hour.
// Unknown values (negative, NaN, Inf) render as --:--.
func FormatSeconds(sec float64) string {
	if sec < 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return "--:--"
	}
	total := int(sec)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
