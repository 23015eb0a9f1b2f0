// internal/playback/state_test.go
package playback

import (
	"testing"

	"github.com/llehouerou/vplay/internal/engine"
)

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateNone, "None"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{StateEnd, "End"},
		{StateSeeking, "Seeking"},
		{StateError, "Error"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateFromOrdinal_MatchesEngineContract(t *testing.T) {
	tests := []struct {
		ordinal int
		want    State
	}{
		{engine.OrdinalNone, StateNone},
		{engine.OrdinalPlaying, StatePlaying},
		{engine.OrdinalPaused, StatePaused},
		{engine.OrdinalEnd, StateEnd},
		{engine.OrdinalSeeking, StateSeeking},
		{engine.OrdinalError, StateError},
		{0, StateNone},
		{5, StateError},
	}
	for _, tt := range tests {
		if got := StateFromOrdinal(tt.ordinal); got != tt.want {
			t.Errorf("StateFromOrdinal(%d) = %v, want %v", tt.ordinal, got, tt.want)
		}
		if got := tt.want.Ordinal(); got != tt.ordinal {
			t.Errorf("%v.Ordinal() = %d, want %d", tt.want, got, tt.ordinal)
		}
	}
}

func TestStateFromOrdinal_OutOfRangeIsNone(t *testing.T) {
	for _, ordinal := range []int{-1, 6, 99, 1 << 20} {
		if got := StateFromOrdinal(ordinal); got != StateNone {
			t.Errorf("StateFromOrdinal(%d) = %v, want None", ordinal, got)
		}
	}
}

func TestState_IsActive(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateNone, false},
		{StatePlaying, true},
		{StatePaused, true},
		{StateEnd, false},
		{StateSeeking, true},
		{StateError, false},
	}
	for _, tt := range tests {
		if got := tt.state.IsActive(); got != tt.want {
			t.Errorf("%v.IsActive() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestState_CanStart(t *testing.T) {
	for _, s := range []State{StateNone, StatePlaying, StatePaused, StateEnd, StateSeeking, StateError} {
		want := s == StateNone || s == StateEnd
		if got := s.CanStart(); got != want {
			t.Errorf("%v.CanStart() = %v, want %v", s, got, want)
		}
	}
}
