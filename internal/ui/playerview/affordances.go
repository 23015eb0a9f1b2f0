// Package playerview renders the terminal player: title, status, progress
// bar and the controls available in the current state.
package playerview

import "github.com/llehouerou/vplay/internal/playback"

// Controls describes which controls are usable in a given state.
type Controls struct {
	PlayPause      bool
	PlayPauseLabel string // "Play", "Pause" or "Error"
	Stop           bool
	Seek           bool
	// ResetProgress means the progress display returns to zero.
	ResetProgress bool
}

// Affordances projects a playback state onto the player controls.
func Affordances(s playback.State) Controls {
	switch s {
	case playback.StatePlaying:
		return Controls{PlayPause: true, PlayPauseLabel: "Pause", Stop: true, Seek: true}
	case playback.StatePaused:
		return Controls{PlayPause: true, PlayPauseLabel: "Play", Stop: true, Seek: true}
	case playback.StateSeeking:
		return Controls{PlayPauseLabel: "Pause"}
	case playback.StateError:
		return Controls{PlayPauseLabel: "Error"}
	default: // None, End
		return Controls{PlayPause: true, PlayPauseLabel: "Play", ResetProgress: true}
	}
}
