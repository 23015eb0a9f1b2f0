// internal/app/view.go
package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/vplay/internal/keymap"
	"github.com/llehouerou/vplay/internal/ui/playerview"
	"github.com/llehouerou/vplay/internal/ui/styles"
)

// helpContexts is the display order of the full help.
var helpContexts = []string{"playback", "surface", "global"}

// View implements tea.Model.
func (m Model) View() string {
	if m.Width == 0 {
		return ""
	}
	s := m.Display
	s.Attached = m.attached
	s.Banner = m.Banner
	out := playerview.Render(s, m.Width, m.Keys, m.Help)
	if m.ShowHelp {
		out = lipgloss.JoinVertical(lipgloss.Left, out, renderHelp())
	}
	return out
}

func renderHelp() string {
	st := styles.T().S()
	var b strings.Builder
	for _, ctx := range helpContexts {
		for _, kb := range keymap.ByContext(ctx) {
			keys := strings.Join(kb.Keys, "/")
			if kb.Action == keymap.ActionPlayPause {
				keys = "space/p"
			}
			b.WriteString("  ")
			b.WriteString(st.Title.Render(padRight(keys, 14)))
			b.WriteString(st.Muted.Render(kb.Description))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s + " "
}
