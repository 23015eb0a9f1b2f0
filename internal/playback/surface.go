package playback

import (
	"sync"

	"github.com/llehouerou/vplay/internal/engine"
)

// surfaceGate tracks the source and render target. Start may only reach the
// engine once both are known. Writes happen on the worker; reads may come
// from any goroutine.
type surfaceGate struct {
	mu      sync.RWMutex
	source  string
	target  engine.Surface
	started bool // a Start has been accepted; the source is frozen
}

// setSource records uri. A source can be set once, before the first
// accepted Start.
func (g *surfaceGate) setSource(uri string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.source != "" || g.started {
		return false
	}
	g.source = uri
	return true
}

// setTarget records or clears (nil) the render target.
func (g *surfaceGate) setTarget(s engine.Surface) {
	g.mu.Lock()
	g.target = s
	g.mu.Unlock()
}

// admit returns what Start needs, and false when either is missing. On
// success the source is frozen.
func (g *surfaceGate) admit() (string, engine.Surface, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.source == "" || g.target == nil {
		return "", nil, false
	}
	g.started = true
	return g.source, g.target, true
}

func (g *surfaceGate) Source() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.source
}

func (g *surfaceGate) Target() engine.Surface {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.target
}
