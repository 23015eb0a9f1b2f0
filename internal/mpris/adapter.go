package mpris

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/vplay/internal/engine"
	"github.com/llehouerou/vplay/internal/playback"
)

// Player is the part of *playback.Controller the bus adapter drives.
type Player interface {
	State() playback.State
	Position() float64
	Duration() float64
	Source() string
	RequestStart() error
	RequestPause() error
	RequestResume() error
	RequestStop() error
	RequestToggle() error
	RequestSeek(fraction float64) error
}

var _ Player = (*playback.Controller)(nil)

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - the TUI owns the lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "vplay", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/wav", "audio/ogg", "audio/opus", "audio/mp4"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter.
type playerAdapter struct {
	player   Player
	tags     engine.Tags
	coverDir string // where embedded covers are written, "" to skip
}

func (p *playerAdapter) Next() error {
	return nil // Single source
}

func (p *playerAdapter) Previous() error {
	return nil // Single source
}

func (p *playerAdapter) Pause() error {
	if p.player.State() != playback.StatePlaying {
		return nil
	}
	return p.player.RequestPause()
}

func (p *playerAdapter) PlayPause() error {
	return p.player.RequestToggle()
}

func (p *playerAdapter) Stop() error {
	return p.player.RequestStop()
}

func (p *playerAdapter) Play() error {
	switch p.player.State() {
	case playback.StatePaused:
		return p.player.RequestResume()
	case playback.StateNone, playback.StateEnd:
		return p.player.RequestStart()
	default:
		return nil
	}
}

// Seek moves by offset relative to the current position.
func (p *playerAdapter) Seek(offset types.Microseconds) error {
	dur := p.player.Duration()
	if dur <= 0 {
		return playback.ErrUnknownDuration
	}
	target := p.player.Position() + microsToSeconds(offset)
	return p.player.RequestSeek(clampFraction(target / dur))
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	dur := p.player.Duration()
	if dur <= 0 {
		return playback.ErrUnknownDuration
	}
	pos := microsToSeconds(position)
	if pos < 0 || pos > dur {
		return nil // ignored per MPRIS
	}
	return p.player.RequestSeek(pos / dur)
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported: the source is fixed per session
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.player.State()), nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	source := p.player.Source()
	if source == "" {
		return types.Metadata{}, nil
	}

	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(source)),
		Length:      secondsToMicros(p.player.Duration()),
		Title:       p.tags.DisplayTitle(source),
		Album:       p.tags.Album,
		TrackNumber: p.tags.Track,
		Artist:      nonEmpty(p.tags.Artist),
	}

	if path, err := engine.ResolvePath(source); err == nil {
		art := FindArtwork(path)
		if art == "" && p.coverDir != "" {
			art = WriteCover(p.coverDir, source, p.tags)
		}
		if art != "" {
			meta.ArtUrl = "file://" + art
		}
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetVolume(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Position() (int64, error) {
	return int64(secondsToMicros(p.player.Position())), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return false, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.player.Source() != "" && p.player.State() != playback.StateError, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return p.player.State() == playback.StatePlaying, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	s := p.player.State()
	return (s == playback.StatePlaying || s == playback.StatePaused) && p.player.Duration() > 0, nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return p.player.State() != playback.StateError, nil
}

func playbackStatus(s playback.State) types.PlaybackStatus {
	switch s {
	case playback.StatePlaying, playback.StateSeeking:
		return types.PlaybackStatusPlaying
	case playback.StatePaused:
		return types.PlaybackStatusPaused
	default:
		return types.PlaybackStatusStopped
	}
}

func microsToSeconds(us types.Microseconds) float64 {
	return float64(us) / 1e6
}

func secondsToMicros(s float64) types.Microseconds {
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return types.Microseconds(s * 1e6)
}

func clampFraction(f float64) float64 {
	return min(max(f, 0), 1)
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

func formatTrackID(source string) string {
	h := fnv.New64a()
	h.Write([]byte(source))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/vplay/%x", h.Sum64())
}
