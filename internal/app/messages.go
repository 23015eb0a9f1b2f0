// Package app wires the playback controller to its surfaces: the terminal
// UI, resume history, desktop notifications, MPRIS and metrics.
package app

import "github.com/llehouerou/vplay/internal/playback"

// PlaybackEventMsg carries one controller event into the UI loop.
type PlaybackEventMsg struct {
	Event playback.Event
}

// SessionClosedMsg is sent when the controller subscription ends.
type SessionClosedMsg struct{}

// ClearErrorMsg clears the error line after a delay. Version guards against
// clearing a newer error.
type ClearErrorMsg struct {
	Version int
}
