// internal/playback/state.go
package playback

import "github.com/llehouerou/vplay/internal/engine"

// State represents the playback state of a session.
//
// The numeric values are the engine ordinals: the engine reports state by
// number only, so the two enumerations must stay aligned.
//
// Valid transitions (see transitionTable):
//   - None, End        → Playing (start, source and surface present)
//   - Playing          → Paused  (pause)
//   - Paused           → Playing (resume)
//   - Playing, Paused  → Seeking (seek), then back to the prior state
//   - Playing, Paused, Seeking → None (stop)
//   - Playing          → End     (engine reports end of stream)
//   - anything but Error → Error (engine fault)
//
// Error is absorbing: recovering requires a new session.
type State int

const (
	StateNone    State = engine.OrdinalNone
	StatePlaying State = engine.OrdinalPlaying
	StatePaused  State = engine.OrdinalPaused
	StateEnd     State = engine.OrdinalEnd
	StateSeeking State = engine.OrdinalSeeking
	StateError   State = engine.OrdinalError
)

// StateFromOrdinal maps an engine ordinal to a State. Unknown ordinals map to
// StateNone rather than being treated as faults.
func StateFromOrdinal(ordinal int) State {
	if ordinal < int(StateNone) || ordinal > int(StateError) {
		return StateNone
	}
	return State(ordinal)
}

// Ordinal returns the engine ordinal for s.
func (s State) Ordinal() int { return int(s) }

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateEnd:
		return "End"
	case StateSeeking:
		return "Seeking"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true if media is loaded (playing, paused or seeking).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused || s == StateSeeking
}

// CanStart returns true if a Start command would be accepted from s.
func (s State) CanStart() bool {
	return s == StateNone || s == StateEnd
}
