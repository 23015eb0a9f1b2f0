package app

import (
	"strings"
	"sync"

	"github.com/llehouerou/vplay/internal/engine"
	"github.com/llehouerou/vplay/internal/playback"
)

const testSource = "file:///media/clip.mp3"

// fakePlayer records requests without a controller behind it.
type fakePlayer struct {
	mu       sync.Mutex
	calls    []string
	seeks    []float64
	state    playback.State
	duration float64
	err      error
}

func (p *fakePlayer) record(call string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	return p.err
}

func (p *fakePlayer) State() playback.State { return p.state }
func (p *fakePlayer) Duration() float64     { return p.duration }
func (p *fakePlayer) Source() string        { return testSource }
func (p *fakePlayer) RequestStart() error   { return p.record("start") }
func (p *fakePlayer) RequestStop() error    { return p.record("stop") }
func (p *fakePlayer) RequestToggle() error  { return p.record("toggle") }

func (p *fakePlayer) RequestSeek(fraction float64) error {
	p.mu.Lock()
	p.seeks = append(p.seeks, fraction)
	p.mu.Unlock()
	return p.record("seek")
}

func (p *fakePlayer) NotifyTargetAvailable(s engine.Surface) error {
	if !strings.HasPrefix(s.SurfaceID(), "tty-") {
		return p.record("attach:" + s.SurfaceID())
	}
	return p.record("attach")
}

func (p *fakePlayer) NotifyTargetLost() error { return p.record("lost") }

func (p *fakePlayer) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePlayer) Seeks() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.seeks...)
}

// fakeSeeker records resume seeks.
type fakeSeeker struct {
	fractions []float64
	err       error
}

func (s *fakeSeeker) RequestSeek(fraction float64) error {
	s.fractions = append(s.fractions, fraction)
	return s.err
}

type testSurface string

func (s testSurface) SurfaceID() string { return string(s) }
