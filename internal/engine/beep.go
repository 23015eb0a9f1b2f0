package engine

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog"

	vlog "github.com/llehouerou/vplay/internal/log"
)

const resampleQuality = 4

var (
	ErrUnsupportedScheme = errors.New("unsupported uri scheme")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Beep is an audio-only Engine built on gopxl/beep. The render target is
// accepted and ignored: audio output goes to the default speaker. The speaker
// is a process-wide resource, so every context shares it.
type Beep struct {
	mu          sync.Mutex
	next        Handle
	contexts    map[Handle]*beepContext
	speakerRate beep.SampleRate
	speakerOn   bool
	log         zerolog.Logger
}

type beepContext struct {
	ordinal  atomic.Int32
	gen      atomic.Uint64
	listener atomic.Pointer[func(int)]

	mu     sync.RWMutex // guards the fields below
	stream beep.StreamSeekCloser
	ctrl   *beep.Ctrl
	format beep.Format
}

// NewBeep creates a beep-backed engine.
func NewBeep() *Beep {
	return &Beep{
		contexts: make(map[Handle]*beepContext),
		log:      vlog.WithComponent("engine"),
	}
}

func (b *Beep) Init() (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.contexts[b.next] = &beepContext{}
	return b.next, nil
}

func (b *Beep) Release(h Handle) {
	c := b.context(h)
	if c == nil {
		return
	}
	c.listener.Store(nil)
	b.stop(c)
	b.mu.Lock()
	delete(b.contexts, h)
	b.mu.Unlock()
}

func (b *Beep) Play(h Handle, uri string, target Surface) {
	c := b.context(h)
	if c == nil {
		return
	}
	b.stop(c)

	stream, format, err := openStream(uri)
	if err != nil {
		b.log.Error().Err(err).Str("uri", uri).Msg("open source")
		c.set(OrdinalError)
		return
	}
	rate, err := b.ensureSpeaker(format.SampleRate)
	if err != nil {
		_ = stream.Close()
		b.log.Error().Err(err).Msg("init speaker")
		c.set(OrdinalError)
		return
	}

	ctrl := &beep.Ctrl{Streamer: stream}
	var out beep.Streamer = ctrl
	if format.SampleRate != rate {
		out = beep.Resample(resampleQuality, format.SampleRate, rate, ctrl)
	}

	c.mu.Lock()
	c.stream = stream
	c.ctrl = ctrl
	c.format = format
	gen := c.gen.Add(1)
	c.mu.Unlock()

	if target != nil {
		b.log.Debug().Str("surface", target.SurfaceID()).Msg("surface ignored by audio engine")
	}
	c.set(OrdinalPlaying)

	// The callback runs on the speaker goroutine with the speaker lock held:
	// it may only touch atomics.
	speaker.Play(beep.Seq(out, beep.Callback(func() {
		if c.gen.Load() != gen {
			return
		}
		if stream.Err() != nil {
			c.set(OrdinalError)
			return
		}
		c.set(OrdinalEnd)
	})))
}

func (b *Beep) SetPause(h Handle, paused bool) {
	c := b.context(h)
	if c == nil {
		return
	}
	c.mu.RLock()
	ctrl := c.ctrl
	c.mu.RUnlock()
	if ctrl == nil {
		return
	}
	speaker.Lock()
	ctrl.Paused = paused
	speaker.Unlock()
	if paused {
		c.set(OrdinalPaused)
	} else {
		c.set(OrdinalPlaying)
	}
}

func (b *Beep) Stop(h Handle) {
	if c := b.context(h); c != nil {
		b.stop(c)
	}
}

func (b *Beep) Seek(h Handle, seconds float64) {
	c := b.context(h)
	if c == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stream == nil {
		return
	}
	target := c.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	speaker.Lock()
	target = min(max(target, 0), c.stream.Len())
	err := c.stream.Seek(target)
	speaker.Unlock()
	if err != nil {
		b.log.Error().Err(err).Float64("seconds", seconds).Msg("seek")
		c.set(OrdinalError)
	}
}

func (b *Beep) Duration(h Handle) float64 {
	c := b.context(h)
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stream == nil {
		return 0
	}
	speaker.Lock()
	n := c.stream.Len()
	speaker.Unlock()
	return c.format.SampleRate.D(n).Seconds()
}

func (b *Beep) State(h Handle) int {
	c := b.context(h)
	if c == nil {
		return OrdinalNone
	}
	return int(c.ordinal.Load())
}

func (b *Beep) Position(h Handle) float64 {
	c := b.context(h)
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stream == nil {
		return 0
	}
	speaker.Lock()
	n := c.stream.Position()
	speaker.Unlock()
	return c.format.SampleRate.D(n).Seconds()
}

// SetStateListener implements StateReporter.
func (b *Beep) SetStateListener(h Handle, fn func(int)) {
	c := b.context(h)
	if c == nil {
		return
	}
	if fn == nil {
		c.listener.Store(nil)
		return
	}
	c.listener.Store(&fn)
}

func (b *Beep) context(h Handle) *beepContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contexts[h]
}

func (b *Beep) stop(c *beepContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return
	}
	c.gen.Add(1)
	speaker.Clear()
	_ = c.stream.Close()
	c.stream = nil
	c.ctrl = nil
	c.set(OrdinalNone)
}

// ensureSpeaker initializes the speaker on first use and returns its rate.
func (b *Beep) ensureSpeaker(rate beep.SampleRate) (beep.SampleRate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.speakerOn {
		return b.speakerRate, nil
	}
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return 0, err
	}
	b.speakerOn = true
	b.speakerRate = rate
	return rate, nil
}

func (c *beepContext) set(ordinal int) {
	c.ordinal.Store(int32(ordinal)) //nolint:gosec // ordinals are 0..5
	if fn := c.listener.Load(); fn != nil {
		(*fn)(ordinal)
	}
}

// ResolvePath turns a source URI into a local file path. Bare paths and
// file: URIs (file:/a, file:///a) are accepted.
func ResolvePath(uri string) (string, error) {
	if !strings.Contains(uri, ":") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "":
		return uri, nil
	case "file":
		if u.Path == "" {
			return u.Opaque, nil
		}
		return u.Path, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

func openStream(uri string) (beep.StreamSeekCloser, beep.Format, error) {
	path, err := ResolvePath(uri)
	if err != nil {
		return nil, beep.Format{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".flac", ".wav", ".ogg", ".oga", ".opus", ".m4a", ".mp4":
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".mp3":
		stream, format, err = decodeMP3(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".m4a", ".mp4":
		stream, format, err = decodeM4A(f)
	default:
		stream, format, err = decodeOgg(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, err
	}
	return stream, format, nil
}

// Verify Beep implements Engine and StateReporter at compile time.
var (
	_ Engine        = (*Beep)(nil)
	_ StateReporter = (*Beep)(nil)
)
