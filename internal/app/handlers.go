// internal/app/handlers.go
package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/vplay/internal/errmsg"
	"github.com/llehouerou/vplay/internal/keymap"
	"github.com/llehouerou/vplay/internal/playback"
)

// handleKey dispatches a key through the resolver.
func (m *Model) handleKey(key string) tea.Cmd {
	switch m.Keys.Resolve(key) {
	case keymap.ActionQuit:
		return tea.Quit
	case keymap.ActionHelp:
		m.ShowHelp = !m.ShowHelp
		return nil
	case keymap.ActionPlayPause:
		m.started = true
		return m.check(errmsg.OpPlaybackPlay, m.Player.RequestToggle())
	case keymap.ActionStop:
		return m.check(errmsg.OpPlaybackStop, m.Player.RequestStop())
	case keymap.ActionSeekForward:
		return m.seekBy(m.SeekStep)
	case keymap.ActionSeekBack:
		return m.seekBy(-m.SeekStep)
	case keymap.ActionSeekPercent:
		return m.seekTo(float64(key[0]-'0') / 10)
	case keymap.ActionToggleSurface:
		if m.attached {
			return m.detach()
		}
		m.detached = false
		return m.attach()
	}
	return nil
}

func (m *Model) seekBy(step float64) tea.Cmd {
	dur := m.Player.Duration()
	if dur <= 0 {
		return m.showError(errmsg.Format(errmsg.OpPlaybackSeek, playback.ErrUnknownDuration))
	}
	return m.seekTo(m.Display.Position/dur + step)
}

func (m *Model) seekTo(fraction float64) tea.Cmd {
	fraction = min(max(fraction, 0), 1)
	return m.check(errmsg.OpPlaybackSeek, m.Player.RequestSeek(fraction))
}

// attach hands the terminal surface to the controller.
func (m *Model) attach() tea.Cmd {
	if err := m.Player.NotifyTargetAvailable(m.surface); err != nil {
		return m.showError(errmsg.Format(errmsg.OpSurfaceAttach, err))
	}
	m.attached = true
	return nil
}

// detach withdraws the surface, which stops playback.
func (m *Model) detach() tea.Cmd {
	if err := m.Player.NotifyTargetLost(); err != nil {
		return m.showError(errmsg.Format(errmsg.OpSurfaceDetach, err))
	}
	m.attached = false
	m.detached = true
	return nil
}

func (m *Model) check(op errmsg.Op, err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return m.showError(errmsg.Format(op, err))
}
