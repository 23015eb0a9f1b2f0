// internal/engine/mock.go
package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// Op names recorded by Mock.
const (
	OpPlay     = "play"
	OpSetPause = "setPause"
	OpStop     = "stop"
	OpSeek     = "seek"
	OpRelease  = "release"
)

// Call is one mutating call observed by Mock.
type Call struct {
	Op      string
	URI     string
	Surface Surface
	Paused  bool
	Seconds float64
}

// Mock is a thread-safe test double for Engine.
type Mock struct {
	mu       sync.Mutex
	next     Handle
	live     map[Handle]bool
	calls    []Call
	ordinal  int
	duration float64
	position float64
	delay    time.Duration
	failOn   map[string]bool
	panicOn  map[string]bool
	listener func(int)

	inFlight   atomic.Int32
	overlaps   atomic.Int32
	reads      atomic.Int64
	released   atomic.Int32
	afterClose atomic.Int32
}

// NewMock creates a new mock engine in the None state.
func NewMock() *Mock {
	return &Mock{
		live:    make(map[Handle]bool),
		failOn:  make(map[string]bool),
		panicOn: make(map[string]bool),
	}
}

func (m *Mock) Init() (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.live[m.next] = true
	return m.next, nil
}

func (m *Mock) Release(h Handle) {
	m.enter()
	defer m.exit()

	m.mu.Lock()
	if !m.live[h] {
		m.afterClose.Add(1)
	}
	delete(m.live, h)
	m.calls = append(m.calls, Call{Op: OpRelease})
	m.mu.Unlock()
	m.released.Add(1)
}

func (m *Mock) Play(h Handle, uri string, target Surface) {
	m.mutate(h, Call{Op: OpPlay, URI: uri, Surface: target}, OrdinalPlaying)
}

func (m *Mock) SetPause(h Handle, paused bool) {
	next := OrdinalPlaying
	if paused {
		next = OrdinalPaused
	}
	m.mutate(h, Call{Op: OpSetPause, Paused: paused}, next)
}

func (m *Mock) Stop(h Handle) {
	m.mutate(h, Call{Op: OpStop}, OrdinalNone)
	m.mu.Lock()
	m.position = 0
	m.mu.Unlock()
}

// Seek moves the position. A seek made after the stream ended resumes it.
func (m *Mock) Seek(h Handle, seconds float64) {
	m.mutate(h, Call{Op: OpSeek, Seconds: seconds}, -1)
	m.mu.Lock()
	m.position = seconds
	if m.ordinal == OrdinalEnd {
		m.ordinal = OrdinalPlaying
	}
	m.mu.Unlock()
}

func (m *Mock) Duration(_ Handle) float64 {
	m.reads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) State(_ Handle) int {
	m.reads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ordinal
}

func (m *Mock) Position(_ Handle) float64 {
	m.reads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// SetStateListener implements StateReporter.
func (m *Mock) SetStateListener(_ Handle, fn func(int)) {
	m.mu.Lock()
	m.listener = fn
	m.mu.Unlock()
}

// mutate records c, sleeps for the configured delay, then moves to next
// (ignored when negative) or to OrdinalError when the op is set to fail.
func (m *Mock) mutate(h Handle, c Call, next int) {
	m.enter()
	defer m.exit()

	m.mu.Lock()
	if !m.live[h] {
		m.afterClose.Add(1)
	}
	m.calls = append(m.calls, c)
	delay := m.delay
	shouldPanic := m.panicOn[c.Op]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if shouldPanic {
		panic("engine: simulated crash in " + c.Op)
	}

	m.mu.Lock()
	switch {
	case m.failOn[c.Op]:
		m.ordinal = OrdinalError
	case next >= 0:
		m.ordinal = next
	}
	m.mu.Unlock()
}

func (m *Mock) enter() {
	if m.inFlight.Add(1) > 1 {
		m.overlaps.Add(1)
	}
}

func (m *Mock) exit() { m.inFlight.Add(-1) }

// Test helpers

// SetDuration sets the value returned by Duration.
func (m *Mock) SetDuration(seconds float64) {
	m.mu.Lock()
	m.duration = seconds
	m.mu.Unlock()
}

// SetPosition sets the value returned by Position.
func (m *Mock) SetPosition(seconds float64) {
	m.mu.Lock()
	m.position = seconds
	m.mu.Unlock()
}

// SetOrdinal changes the engine-side state without notifying the listener,
// as if the engine moved on its own and waits to be polled.
func (m *Mock) SetOrdinal(ordinal int) {
	m.mu.Lock()
	m.ordinal = ordinal
	m.mu.Unlock()
}

// Emit changes the engine-side state and pushes it to the listener.
func (m *Mock) Emit(ordinal int) {
	m.mu.Lock()
	m.ordinal = ordinal
	fn := m.listener
	m.mu.Unlock()
	if fn != nil {
		fn(ordinal)
	}
}

// SetCallDelay makes every mutating call take d.
func (m *Mock) SetCallDelay(d time.Duration) {
	m.mu.Lock()
	m.delay = d
	m.mu.Unlock()
}

// FailOn makes op leave the engine in OrdinalError.
func (m *Mock) FailOn(op string) {
	m.mu.Lock()
	m.failOn[op] = true
	m.mu.Unlock()
}

// PanicOn makes op panic after recording the call.
func (m *Mock) PanicOn(op string) {
	m.mu.Lock()
	m.panicOn[op] = true
	m.mu.Unlock()
}

// Calls returns a copy of every mutating call, release included.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Ops returns the op names of Calls, in order.
func (m *Mock) Ops() []string {
	calls := m.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Overlaps returns how many mutating calls started while another was running.
func (m *Mock) Overlaps() int { return int(m.overlaps.Load()) }

// Reads returns the number of State/Position/Duration calls.
func (m *Mock) Reads() int64 { return m.reads.Load() }

// Released returns how many times Release was called.
func (m *Mock) Released() int { return int(m.released.Load()) }

// CallsAfterRelease counts mutating calls made on a handle that was not live.
func (m *Mock) CallsAfterRelease() int { return int(m.afterClose.Load()) }

// HasListener reports whether a state listener is attached.
func (m *Mock) HasListener() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listener != nil
}

// Verify Mock implements Engine and StateReporter at compile time.
var (
	_ Engine        = (*Mock)(nil)
	_ StateReporter = (*Mock)(nil)
)
