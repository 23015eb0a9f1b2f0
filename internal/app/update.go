// internal/app/update.go
package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/vplay/internal/errmsg"
	"github.com/llehouerou/vplay/internal/playback"
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case tea.KeyMsg:
		cmd := m.handleKey(msg.String())
		return m, cmd

	case PlaybackEventMsg:
		m.applyEvent(msg.Event)
		return m, m.WatchEvents()

	case SessionClosedMsg:
		return m, tea.Quit

	case ClearErrorMsg:
		if msg.Version == m.errVersion && m.Display.Player != playback.StateError {
			m.Display.Err = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.Width = msg.Width
	m.Height = msg.Height
	m.Help.Width = msg.Width

	if m.attached || m.detached {
		return m, nil
	}
	if cmd := m.attach(); cmd != nil {
		return m, cmd
	}
	if m.AutoStart && !m.started {
		m.started = true
		if err := m.Player.RequestStart(); err != nil {
			return m, m.showError(errmsg.Format(errmsg.OpPlaybackStart, err))
		}
	}
	return m, nil
}

func (m *Model) applyEvent(e playback.Event) {
	switch e := e.(type) {
	case playback.StateChange:
		m.Display.Player = e.Current
		if e.Current == playback.StateError {
			m.Display.Err = errmsg.PlaybackFailed(m.Display.Source)
		}
	case playback.ProgressChange:
		m.Display.Position = e.Position
		m.Display.Duration = e.Duration
		m.Display.Percentage = e.Percentage
	}
}

// showError displays text and schedules its removal.
func (m *Model) showError(text string) tea.Cmd {
	m.errVersion++
	m.Display.Err = text
	return ClearErrorCmd(m.errVersion)
}
