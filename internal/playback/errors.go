package playback

import "errors"

var (
	// ErrReleased is returned by submissions made after Release has begun.
	ErrReleased = errors.New("playback: controller released")
	// ErrUnknownDuration is returned by RequestSeek while the duration is <= 0.
	ErrUnknownDuration = errors.New("playback: duration unknown")
	// ErrInvalidFraction is returned by RequestSeek for fractions outside [0, 1].
	ErrInvalidFraction = errors.New("playback: seek fraction out of range")
	// ErrEmptySource is returned by SetSource for an empty URI.
	ErrEmptySource = errors.New("playback: empty source")
)
