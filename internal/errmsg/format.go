// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/llehouerou/vplay/internal/playback"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackPause  Op = "pause playback"
	OpPlaybackResume Op = "resume playback"
	OpPlaybackStop   Op = "stop playback"
	OpPlaybackSeek   Op = "seek"
	OpPlaybackPlay   Op = "play"

	// Session operations
	OpSourceSet     Op = "set source"
	OpSurfaceAttach Op = "attach display"
	OpSurfaceDetach Op = "detach display"
	OpRelease       Op = "release player"

	// History operations
	OpHistoryOpen Op = "open playback history"
	OpHistorySave Op = "save playback position"

	// Initialization
	OpConfigLoad Op = "load configuration"
	OpInitialize Op = "initialize player"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %s", op, describe(err))
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %s", op, context, describe(err))
}

// PlaybackFailed is the message shown when the engine reports a fault.
func PlaybackFailed(source string) string {
	if source == "" {
		return "Playback failed"
	}
	return "Playback failed: " + filepath.Base(source)
}

// describe replaces controller sentinels with plain wording.
func describe(err error) string {
	switch {
	case errors.Is(err, playback.ErrReleased):
		return "player is shutting down"
	case errors.Is(err, playback.ErrUnknownDuration):
		return "length not known yet"
	case errors.Is(err, playback.ErrInvalidFraction):
		return "position out of range"
	case errors.Is(err, playback.ErrEmptySource):
		return "no file given"
	default:
		return err.Error()
	}
}
