// internal/app/commands.go
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/vplay/internal/playback"
)

const errorDisplayTime = 4 * time.Second

// WatchEvents returns a command that waits for the next controller event.
func (m Model) WatchEvents() tea.Cmd {
	if m.Sub == nil {
		return nil
	}
	return waitForChannel(m.Sub.Events, func(e playback.Event, ok bool) tea.Msg {
		if !ok {
			return SessionClosedMsg{}
		}
		return PlaybackEventMsg{Event: e}
	})
}

// ClearErrorCmd returns a command that sends ClearErrorMsg after a delay.
func ClearErrorCmd(version int) tea.Cmd {
	return tea.Tick(errorDisplayTime, func(_ time.Time) tea.Msg {
		return ClearErrorMsg{Version: version}
	})
}

// waitForChannel creates a command that waits for a value from a channel and converts it to a message.
// onResult receives the value and a boolean indicating if the channel is still open (false means channel closed).
func waitForChannel[T any](ch <-chan T, onResult func(T, bool) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		result, ok := <-ch
		return onResult(result, ok)
	}
}
