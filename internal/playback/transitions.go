package playback

// Trigger is an event that may move the state machine.
type Trigger int

const (
	TriggerStart Trigger = iota
	TriggerPause
	TriggerResume
	TriggerStop
	TriggerSeek
	TriggerSeekPlaying // seek acknowledged, playback continues
	TriggerSeekPaused  // seek acknowledged, playback stays paused
	TriggerFault
	TriggerEndOfStream
)

func (t Trigger) String() string {
	switch t {
	case TriggerStart:
		return "start"
	case TriggerPause:
		return "pause"
	case TriggerResume:
		return "resume"
	case TriggerStop:
		return "stop"
	case TriggerSeek:
		return "seek"
	case TriggerSeekPlaying:
		return "seek_playing"
	case TriggerSeekPaused:
		return "seek_paused"
	case TriggerFault:
		return "fault"
	case TriggerEndOfStream:
		return "end_of_stream"
	default:
		return "unknown"
	}
}

// Transition is a single allowed edge in the state machine.
type Transition struct {
	From    State
	Trigger Trigger
	To      State
}

var transitionTable = []Transition{
	// Start path
	{From: StateNone, Trigger: TriggerStart, To: StatePlaying},
	{From: StateEnd, Trigger: TriggerStart, To: StatePlaying},

	// Pause / resume
	{From: StatePlaying, Trigger: TriggerPause, To: StatePaused},
	{From: StatePaused, Trigger: TriggerResume, To: StatePlaying},

	// Stop
	{From: StatePlaying, Trigger: TriggerStop, To: StateNone},
	{From: StatePaused, Trigger: TriggerStop, To: StateNone},
	{From: StateSeeking, Trigger: TriggerStop, To: StateNone},

	// Seek and its acknowledgement
	{From: StatePlaying, Trigger: TriggerSeek, To: StateSeeking},
	{From: StatePaused, Trigger: TriggerSeek, To: StateSeeking},
	{From: StateSeeking, Trigger: TriggerSeekPlaying, To: StatePlaying},
	{From: StateSeeking, Trigger: TriggerSeekPaused, To: StatePaused},

	// Engine reports
	{From: StatePlaying, Trigger: TriggerEndOfStream, To: StateEnd},
	{From: StateNone, Trigger: TriggerFault, To: StateError},
	{From: StatePlaying, Trigger: TriggerFault, To: StateError},
	{From: StatePaused, Trigger: TriggerFault, To: StateError},
	{From: StateEnd, Trigger: TriggerFault, To: StateError},
	{From: StateSeeking, Trigger: TriggerFault, To: StateError},
}

// Next returns the destination of trigger from state, and false when the
// table has no such edge.
func Next(from State, trigger Trigger) (State, bool) {
	for _, tr := range transitionTable {
		if tr.From == from && tr.Trigger == trigger {
			return tr.To, true
		}
	}
	return from, false
}

// Transitions returns a copy of the transition table.
func Transitions() []Transition {
	out := make([]Transition, len(transitionTable))
	copy(out, transitionTable)
	return out
}
