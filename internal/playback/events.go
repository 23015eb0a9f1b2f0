package playback

import "math"

// Event is a notification delivered on Subscription.Events. It is either a
// StateChange or a ProgressChange.
type Event interface {
	event()
}

// StateChange is emitted once per applied transition, in transition order.
type StateChange struct {
	Previous State
	Current  State
	Trigger  Trigger
}

// ProgressChange is emitted by the progress monitor while playing, only when
// the duration is known.
type ProgressChange struct {
	Position   float64 // seconds
	Duration   float64 // seconds
	Percentage int     // 0..100
}

func (StateChange) event()    {}
func (ProgressChange) event() {}

// Percentage returns floor(position/duration*100) clamped to [0, 100].
// It reports false when the duration is unknown (<= 0).
func Percentage(position, duration float64) (int, bool) {
	if duration <= 0 || math.IsNaN(duration) {
		return 0, false
	}
	p := math.Floor(position / duration * 100)
	if math.IsNaN(p) {
		return 0, true
	}
	return int(min(max(p, 0), 100)), true
}
