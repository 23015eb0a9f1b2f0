// Package engine defines the boundary between the playback controller and the
// native decode/render engine that owns the actual media state.
package engine

// Handle identifies one engine context. The zero value is never handed out.
type Handle uint64

// InvalidHandle is returned when Init fails.
const InvalidHandle Handle = 0

// Surface is an opaque render target. The engine draws into it; the
// controller only tracks whether one is attached.
type Surface interface {
	SurfaceID() string
}

// State ordinals reported by Engine.State. The mapping is fixed: the
// controller communicates with the engine by number, never by name.
const (
	OrdinalNone = iota
	OrdinalPlaying
	OrdinalPaused
	OrdinalEnd
	OrdinalSeeking
	OrdinalError
)

// Engine is the imperative playback context. Mutating operations report
// failures through the state ordinal (OrdinalError), never through return
// values. Read operations (State, Position, Duration) must be safe to call
// concurrently with a mutation in flight.
type Engine interface {
	Init() (Handle, error)
	Release(h Handle)
	Play(h Handle, uri string, target Surface)
	SetPause(h Handle, paused bool)
	Stop(h Handle)
	Seek(h Handle, seconds float64)

	// Duration returns the media length in seconds; <= 0 means unknown.
	Duration(h Handle) float64
	// State returns the current ordinal, nominally 0..5.
	State(h Handle) int
	// Position returns the playback position in seconds.
	Position(h Handle) float64
}

// StateReporter is implemented by engines that push state changes instead of
// waiting to be polled. fn may be called from any goroutine, including the
// engine's own audio thread, so it must not block. Passing nil detaches.
type StateReporter interface {
	SetStateListener(h Handle, fn func(ordinal int))
}
