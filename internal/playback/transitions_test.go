package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStates = []State{StateNone, StatePlaying, StatePaused, StateEnd, StateSeeking, StateError}

var allTriggers = []Trigger{
	TriggerStart, TriggerPause, TriggerResume, TriggerStop, TriggerSeek,
	TriggerSeekPlaying, TriggerSeekPaused, TriggerFault, TriggerEndOfStream,
}

func TestNext_AllowedEdges(t *testing.T) {
	tests := []struct {
		from    State
		trigger Trigger
		want    State
	}{
		{StateNone, TriggerStart, StatePlaying},
		{StateEnd, TriggerStart, StatePlaying},
		{StatePlaying, TriggerPause, StatePaused},
		{StatePaused, TriggerResume, StatePlaying},
		{StatePlaying, TriggerStop, StateNone},
		{StatePaused, TriggerStop, StateNone},
		{StateSeeking, TriggerStop, StateNone},
		{StatePlaying, TriggerSeek, StateSeeking},
		{StatePaused, TriggerSeek, StateSeeking},
		{StateSeeking, TriggerSeekPlaying, StatePlaying},
		{StateSeeking, TriggerSeekPaused, StatePaused},
		{StatePlaying, TriggerEndOfStream, StateEnd},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.trigger.String(), func(t *testing.T) {
			got, ok := Next(tt.from, tt.trigger)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_FaultFromEveryStateButError(t *testing.T) {
	for _, s := range allStates {
		got, ok := Next(s, TriggerFault)
		if s == StateError {
			assert.False(t, ok, "Error must be absorbing")
			continue
		}
		assert.True(t, ok, "fault from %v", s)
		assert.Equal(t, StateError, got)
	}
}

func TestNext_ErrorIsAbsorbing(t *testing.T) {
	for _, tr := range allTriggers {
		got, ok := Next(StateError, tr)
		assert.False(t, ok, "trigger %v left Error", tr)
		assert.Equal(t, StateError, got)
	}
}

func TestNext_RejectedEdgesKeepState(t *testing.T) {
	tests := []struct {
		from    State
		trigger Trigger
	}{
		{StatePlaying, TriggerStart},
		{StatePaused, TriggerStart},
		{StateNone, TriggerPause},
		{StatePaused, TriggerPause},
		{StatePlaying, TriggerResume},
		{StateNone, TriggerStop},
		{StateEnd, TriggerStop},
		{StateNone, TriggerSeek},
		{StateEnd, TriggerSeek},
		{StatePaused, TriggerEndOfStream},
		{StateEnd, TriggerEndOfStream},
	}
	for _, tt := range tests {
		got, ok := Next(tt.from, tt.trigger)
		assert.False(t, ok, "%v/%v", tt.from, tt.trigger)
		assert.Equal(t, tt.from, got)
	}
}

func TestTransitionTable_NoDuplicatesOrSelfLoops(t *testing.T) {
	seen := map[[2]int]bool{}
	for _, tr := range Transitions() {
		key := [2]int{int(tr.From), int(tr.Trigger)}
		assert.False(t, seen[key], "duplicate edge %v/%v", tr.From, tr.Trigger)
		seen[key] = true
		assert.NotEqual(t, tr.From, tr.To, "self loop %v/%v", tr.From, tr.Trigger)
	}
}

func TestTrigger_String(t *testing.T) {
	for _, tr := range allTriggers {
		assert.NotEqual(t, "unknown", tr.String())
	}
	assert.Equal(t, "unknown", Trigger(42).String())
}
