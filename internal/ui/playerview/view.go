package playerview

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/llehouerou/vplay/internal/keymap"
	"github.com/llehouerou/vplay/internal/playback"
	"github.com/llehouerou/vplay/internal/ui/styles"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"
	stopSymbol  = "■"
	seekSymbol  = "⇥"
	errSymbol   = "✗"
)

// State holds everything needed to render the player.
type State struct {
	Player     playback.State
	Source     string
	Label      string // replaces the file name in the title when set
	Position   float64
	Duration   float64
	Percentage int
	Attached   bool   // a render target is attached
	Banner     string // one-line notice, e.g. resume info
	Err        string // last user-facing error
}

// Height returns the number of rows Render produces.
func Height() int {
	return 7 // 5 content rows + 2 border rows
}

// Render returns the player view for the given width.
func Render(s State, width int, r *keymap.Resolver, h help.Model) string {
	innerWidth := max(width-6, 10) // border + padding
	t := styles.T()
	st := t.S()
	c := Affordances(s.Player)

	title := s.Label
	if title == "" {
		title = Title(s.Source)
	}
	titleLine := styles.ApplyBoldGradient(ansi.Truncate(title, innerWidth, "…"), t.Primary, t.Secondary)

	status := t.StateStyle(s.Player).Render(s.Player.String())
	target := st.Muted.Render("display: detached")
	if s.Attached {
		target = st.Muted.Render("display: attached")
	}
	statusLine := row(status, target, innerWidth)

	percent := s.Percentage
	position := s.Position
	if c.ResetProgress {
		percent, position = 0, 0
	}
	duration := s.Duration
	if duration <= 0 {
		duration = -1
	}
	bar := RenderProgressBar(symbol(s.Player), position, duration, percent, innerWidth)

	notice := ""
	switch {
	case s.Err != "":
		notice = st.Error.Render(ansi.Truncate(s.Err, innerWidth, "…"))
	case s.Banner != "":
		notice = st.Subtle.Render(ansi.Truncate(s.Banner, innerWidth, "…"))
	}

	h.Width = innerWidth
	footer := h.ShortHelpView(helpBindings(r, c, s.Attached))

	content := strings.Join([]string{titleLine, statusLine, bar, notice, footer}, "\n")
	return st.Frame.Width(width - 2).Render(content)
}

// Title derives a display title from a source URI.
func Title(source string) string {
	if source == "" {
		return "No source"
	}
	base := filepath.Base(strings.TrimPrefix(source, "file://"))
	if base == "." || base == "/" {
		return source
	}
	return base
}

func symbol(s playback.State) string {
	switch s {
	case playback.StatePlaying:
		return playSymbol
	case playback.StatePaused:
		return pauseSymbol
	case playback.StateSeeking:
		return seekSymbol
	case playback.StateError:
		return errSymbol
	default:
		return stopSymbol
	}
}

// row places left and right at opposite ends of width.
func row(left, right string, width int) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}
