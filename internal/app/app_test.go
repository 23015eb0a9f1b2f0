// internal/app/app_test.go
package app

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/vplay/internal/playback"
)

func newTestModel(p *fakePlayer, autoStart bool) Model {
	return New(p, nil, Options{Source: testSource, SeekStep: 0.05, AutoStart: autoStart})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	result, ok := next.(Model)
	require.True(t, ok, "Update should return Model")
	return result, cmd
}

func key(k string) tea.KeyMsg {
	switch k {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func TestUpdate_WindowSize_AttachesAndStarts(t *testing.T) {
	p := &fakePlayer{}
	m := newTestModel(p, true)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, 80, m.Width)
	assert.Equal(t, []string{"attach", "start"}, p.Calls())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, m.Width)
	assert.Equal(t, []string{"attach", "start"}, p.Calls(), "resize must not re-attach")
}

func TestUpdate_WindowSize_NoAutoStart(t *testing.T) {
	p := &fakePlayer{}
	m := newTestModel(p, false)
	_, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Equal(t, []string{"attach"}, p.Calls())
}

func TestUpdate_AttachFailureShowsError(t *testing.T) {
	p := &fakePlayer{err: playback.ErrReleased}
	m := newTestModel(p, true)
	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.NotNil(t, cmd)
	assert.Equal(t, []string{"attach"}, p.Calls())
	assert.Contains(t, m.Display.Err, "attach display")
}

func TestHandleKey_Playback(t *testing.T) {
	p := &fakePlayer{duration: 60}
	m := newTestModel(p, false)

	m, _ = update(t, m, key(" "))
	m, _ = update(t, m, key("s"))
	m, _ = update(t, m, key("5"))
	_, _ = update(t, m, key("x"))

	assert.Equal(t, []string{"toggle", "stop", "seek"}, p.Calls())
	assert.Equal(t, []float64{0.5}, p.Seeks())
}

func TestHandleKey_RelativeSeek(t *testing.T) {
	p := &fakePlayer{duration: 60}
	m := newTestModel(p, false)
	m.Display.Position = 30

	m, _ = update(t, m, key("right"))
	m.Display.Position = 1
	_, _ = update(t, m, key("left"))

	seeks := p.Seeks()
	require.Len(t, seeks, 2)
	assert.InDelta(t, 0.55, seeks[0], 1e-9)
	assert.InDelta(t, 0.0, seeks[1], 1e-9, "seek back clamps at the start")
}

func TestHandleKey_SeekUnknownDuration(t *testing.T) {
	p := &fakePlayer{}
	m := newTestModel(p, false)

	m, cmd := update(t, m, key("right"))
	assert.NotNil(t, cmd)
	assert.Empty(t, p.Calls())
	assert.Equal(t, "Failed to seek: length not known yet", m.Display.Err)
}

func TestHandleKey_ToggleSurface(t *testing.T) {
	p := &fakePlayer{}
	m := newTestModel(p, false)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m, _ = update(t, m, key("d"))
	assert.False(t, m.attached)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 90, Height: 24})
	m, _ = update(t, m, key("d"))
	assert.True(t, m.attached)

	assert.Equal(t, []string{"attach", "lost", "attach"}, p.Calls())
}

func TestHandleKey_Quit(t *testing.T) {
	m := newTestModel(&fakePlayer{}, false)
	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_PlaybackEvents(t *testing.T) {
	m := newTestModel(&fakePlayer{}, false)

	m, _ = update(t, m, PlaybackEventMsg{Event: playback.StateChange{
		Previous: playback.StateNone, Current: playback.StatePlaying, Trigger: playback.TriggerStart,
	}})
	m, _ = update(t, m, PlaybackEventMsg{Event: playback.ProgressChange{Position: 15, Duration: 60, Percentage: 25}})
	assert.Equal(t, playback.StatePlaying, m.Display.Player)
	assert.Equal(t, 25, m.Display.Percentage)
	assert.InDelta(t, 15.0, m.Display.Position, 1e-9)

	m, _ = update(t, m, PlaybackEventMsg{Event: playback.StateChange{
		Previous: playback.StatePlaying, Current: playback.StateError, Trigger: playback.TriggerFault,
	}})
	assert.Equal(t, "Playback failed: clip.mp3", m.Display.Err)

	m, _ = update(t, m, ClearErrorMsg{Version: m.errVersion})
	assert.NotEmpty(t, m.Display.Err, "fault message stays")
}

func TestUpdate_ClearError(t *testing.T) {
	p := &fakePlayer{err: errors.New("boom")}
	m := newTestModel(p, false)

	m, _ = update(t, m, key("s"))
	first := m.errVersion
	m, _ = update(t, m, key("s"))

	m, _ = update(t, m, ClearErrorMsg{Version: first})
	assert.NotEmpty(t, m.Display.Err, "stale clear must not hide a newer error")
	m, _ = update(t, m, ClearErrorMsg{Version: m.errVersion})
	assert.Empty(t, m.Display.Err)
}

func TestUpdate_SessionClosedQuits(t *testing.T) {
	m := newTestModel(&fakePlayer{}, false)
	_, cmd := update(t, m, SessionClosedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView(t *testing.T) {
	m := newTestModel(&fakePlayer{}, false)
	assert.Empty(t, m.View(), "nothing to draw before the first size")

	m.Banner = "Stopped at 0:30 1 hour ago"
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	out := ansi.Strip(m.View())
	assert.Contains(t, out, "clip.mp3")
	assert.Contains(t, out, "display: attached")
	assert.Contains(t, out, "Stopped at 0:30 1 hour ago")
	assert.NotContains(t, out, "Detach/attach display")

	m, _ = update(t, m, key("?"))
	assert.Contains(t, ansi.Strip(m.View()), "Detach/attach display")
}
