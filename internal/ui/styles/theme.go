// Package styles holds the colour palette and shared lipgloss styles.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/vplay/internal/playback"
)

// Theme defines the color palette and pre-built styles for the player.
type Theme struct {
	// Brand/accent colors
	Primary   lipgloss.Color // Purple - title, filled progress
	Secondary lipgloss.Color // Gold/orange - gradient end

	// Text hierarchy (most to least prominent)
	FgBase   lipgloss.Color
	FgMuted  lipgloss.Color
	FgSubtle lipgloss.Color

	Border lipgloss.Color

	// Status colors
	Success lipgloss.Color // Green - playing
	Error   lipgloss.Color // Red - engine fault
	Warning lipgloss.Color // Yellow/orange - paused, seeking

	styles *Styles
}

// Styles contains pre-built lipgloss styles for common UI patterns.
type Styles struct {
	Base     lipgloss.Style
	Muted    lipgloss.Style
	Subtle   lipgloss.Style
	Title    lipgloss.Style
	Frame    lipgloss.Style // Rounded border around the player
	BarFull  lipgloss.Style
	BarEmpty lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
}

var defaultTheme = Theme{
	Primary:   lipgloss.Color("#a78bfa"),
	Secondary: lipgloss.Color("#f1a208"),

	FgBase:   lipgloss.Color("#c0c0c0"),
	FgMuted:  lipgloss.Color("#808080"),
	FgSubtle: lipgloss.Color("#585858"),

	Border: lipgloss.Color("#585858"),

	Success: lipgloss.Color("#42b883"),
	Error:   lipgloss.Color("#ff5555"),
	Warning: lipgloss.Color("#f1a208"),
}

// T returns the default theme.
func T() *Theme {
	return &defaultTheme
}

// S returns the pre-built styles for this theme.
func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = t.buildStyles()
	}
	return t.styles
}

// StateStyle returns the style used for the status label of s.
func (t *Theme) StateStyle(s playback.State) lipgloss.Style {
	st := t.S()
	switch s {
	case playback.StatePlaying:
		return st.Success
	case playback.StatePaused, playback.StateSeeking:
		return st.Warning
	case playback.StateError:
		return st.Error
	default:
		return st.Muted
	}
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)

	return &Styles{
		Base:   base,
		Muted:  lipgloss.NewStyle().Foreground(t.FgMuted),
		Subtle: lipgloss.NewStyle().Foreground(t.FgSubtle),
		Title:  base.Bold(true),
		Frame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 2),
		BarFull:  lipgloss.NewStyle().Foreground(t.Primary),
		BarEmpty: lipgloss.NewStyle().Foreground(t.FgSubtle),
		Success:  lipgloss.NewStyle().Foreground(t.Success),
		Error:    lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		Warning:  lipgloss.NewStyle().Foreground(t.Warning),
	}
}
