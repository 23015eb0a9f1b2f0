// internal/playback/controller.go
package playback

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/vplay/internal/engine"
	vlog "github.com/llehouerou/vplay/internal/log"
)

// Options configures a Controller. The zero value is usable.
type Options struct {
	// ProgressInterval is the sampling period while playing.
	// Defaults to DefaultProgressInterval.
	ProgressInterval time.Duration
	// Logger defaults to the "playback" component logger.
	Logger *zerolog.Logger
	// Metrics may be nil.
	Metrics *Metrics
}

// Controller owns one engine context and drives it from a single worker.
//
// Request* and Notify* methods never block on the engine: they queue a
// command and return. Commands run one at a time, in submission order.
// State changes and progress samples are delivered on subscriptions.
type Controller struct {
	eng     engine.Engine
	handle  engine.Handle
	log     zerolog.Logger
	metrics *Metrics

	state    atomic.Int32
	duration atomic.Uint64 // float64 bits, 0 until known

	gate    surfaceGate
	exec    *executor
	monitor *progressMonitor
	events  hub

	// engMu orders presentation-thread reads against teardown: reads hold
	// it shared, teardown holds it while releasing the context.
	engMu       sync.RWMutex
	released    bool
	releaseOnce sync.Once
}

// New acquires an engine context and starts the worker.
func New(eng engine.Engine, opts Options) (*Controller, error) {
	h, err := eng.Init()
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}

	c := &Controller{
		eng:     eng,
		handle:  h,
		metrics: opts.Metrics,
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	} else {
		c.log = vlog.WithComponent("playback")
	}
	c.monitor = newProgressMonitor(opts.ProgressInterval, c.sampleProgress, c.log, c.metrics)
	c.exec = newExecutor(c.recoverTask)

	if r, ok := eng.(engine.StateReporter); ok {
		r.SetStateListener(h, c.reportEngineState)
	}
	return c, nil
}

// State returns the current state. It never blocks.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// EngineState returns the state the engine reports right now, with
// out-of-range ordinals read as StateNone.
func (c *Controller) EngineState() State {
	s := StateNone
	c.read(func() { s = StateFromOrdinal(c.eng.State(c.handle)) })
	return s
}

// Duration returns the media length in seconds, or 0 while unknown. Once
// known it is cached.
func (c *Controller) Duration() float64 {
	return c.refreshDuration()
}

// Position returns the playback position in seconds.
func (c *Controller) Position() float64 {
	var pos float64
	c.read(func() { pos = c.eng.Position(c.handle) })
	return pos
}

// read runs fn unless the engine context has been released. Release waits
// for reads in progress.
func (c *Controller) read(fn func()) {
	c.engMu.RLock()
	defer c.engMu.RUnlock()
	if !c.released {
		fn()
	}
}

// Source returns the configured source URI, or "" if none.
func (c *Controller) Source() string { return c.gate.Source() }

// HasSurface reports whether a render target is attached.
func (c *Controller) HasSurface() bool { return c.gate.Target() != nil }

// Subscribe returns a new event subscription. Call Close when done with it
// before the controller is released.
func (c *Controller) Subscribe() *Subscription {
	return c.events.subscribe()
}

// Submit queues cmd for the worker.
func (c *Controller) Submit(cmd Command) error {
	return c.exec.submit(func() { c.execute(cmd) })
}

func (c *Controller) RequestStart() error  { return c.Submit(Start()) }
func (c *Controller) RequestPause() error  { return c.Submit(SetPause(true)) }
func (c *Controller) RequestResume() error { return c.Submit(SetPause(false)) }
func (c *Controller) RequestStop() error   { return c.Submit(Stop()) }

// RequestSeek seeks to fraction (0..1) of the duration.
func (c *Controller) RequestSeek(fraction float64) error {
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidFraction, fraction)
	}
	d := c.refreshDuration()
	if d <= 0 {
		return ErrUnknownDuration
	}
	return c.Submit(Seek(fraction * d))
}

// RequestToggle pauses while playing, resumes while paused, and starts
// otherwise. The choice is made on the worker, against the state at that
// point in the queue.
func (c *Controller) RequestToggle() error {
	return c.exec.submit(func() {
		switch c.State() {
		case StatePlaying:
			c.execute(SetPause(true))
		case StatePaused:
			c.execute(SetPause(false))
		case StateNone, StateEnd:
			c.execute(Start())
		default:
			c.log.Debug().Stringer("state", c.State()).Msg("toggle ignored")
		}
	})
}

// NotifyTargetAvailable attaches s as the render target. It does not start
// playback.
func (c *Controller) NotifyTargetAvailable(s engine.Surface) error {
	return c.Submit(SetSurface(s))
}

// NotifyTargetLost stops playback and detaches the render target. Both
// commands are queued together, behind whatever is already queued.
func (c *Controller) NotifyTargetLost() error {
	stop, detach := Stop(), SetSurface(nil)
	return c.exec.submit(
		func() { c.execute(stop) },
		func() { c.execute(detach) },
	)
}

// SetSource configures the media URI. Only the first source set before the
// first accepted start is kept.
func (c *Controller) SetSource(uri string) error {
	if uri == "" {
		return ErrEmptySource
	}
	return c.Submit(SetSource(uri))
}

// Release drains every queued command, stops the progress monitor, releases
// the engine context and closes all subscriptions. Submissions made after
// Release begins fail with ErrReleased. Release waits for the worker to
// finish or ctx to end; later calls wait the same way.
func (c *Controller) Release(ctx context.Context) error {
	c.releaseOnce.Do(func() {
		c.exec.close(c.teardown)
	})
	select {
	case <-c.exec.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("release: %w", ctx.Err())
	}
}

// teardown is the worker's last task.
func (c *Controller) teardown() {
	defer c.events.close()
	c.monitor.Stop()
	if r, ok := c.eng.(engine.StateReporter); ok {
		r.SetStateListener(c.handle, nil)
	}
	c.engMu.Lock()
	c.released = true
	c.eng.Release(c.handle)
	c.engMu.Unlock()
	c.log.Debug().Msg("engine released")
}

// execute runs on the worker.
func (c *Controller) execute(cmd Command) {
	var result string
	switch cmd.Kind {
	case CmdStart:
		result = c.start()
	case CmdSetPause:
		result = c.setPause(cmd.Pause)
	case CmdStop:
		result = c.stop()
	case CmdSeek:
		result = c.seek(cmd.Position)
	case CmdSetSurface:
		c.gate.setTarget(cmd.Surface)
		result = resultApplied
	case CmdSetSource:
		result = resultApplied
		if !c.gate.setSource(cmd.URI) {
			result = resultRejected
		}
	default:
		result = resultRejected
	}

	c.metrics.command(cmd.Kind, result)
	if result == resultRejected {
		c.log.Debug().
			Stringer("command", cmd).
			Stringer("state", c.State()).
			Msg("command rejected")
	}
}

func (c *Controller) start() string {
	if _, ok := Next(c.State(), TriggerStart); !ok {
		return resultRejected
	}
	uri, target, ok := c.gate.admit()
	if !ok {
		return resultRejected
	}
	c.eng.Play(c.handle, uri, target)
	if c.faulted() {
		return resultFault
	}
	c.refreshDuration()
	c.apply(TriggerStart)
	return resultApplied
}

func (c *Controller) setPause(paused bool) string {
	trigger := TriggerResume
	if paused {
		trigger = TriggerPause
	}
	if _, ok := Next(c.State(), trigger); !ok {
		return resultRejected
	}
	c.eng.SetPause(c.handle, paused)
	if c.faulted() {
		return resultFault
	}
	c.apply(trigger)
	return resultApplied
}

func (c *Controller) stop() string {
	if _, ok := Next(c.State(), TriggerStop); !ok {
		return resultRejected
	}
	c.eng.Stop(c.handle)
	if c.faulted() {
		return resultFault
	}
	c.apply(TriggerStop)
	return resultApplied
}

func (c *Controller) seek(seconds float64) string {
	prior := c.State()
	if _, ok := Next(prior, TriggerSeek); !ok {
		return resultRejected
	}
	settle := TriggerSeekPlaying
	if prior == StatePaused {
		settle = TriggerSeekPaused
	}

	c.apply(TriggerSeek)
	c.eng.Seek(c.handle, max(seconds, 0))
	if c.faulted() {
		return resultFault
	}
	c.apply(settle)
	return resultApplied
}

// faulted reads the engine state after a mutating call and moves to Error
// when the engine reports a fault.
func (c *Controller) faulted() bool {
	if StateFromOrdinal(c.eng.State(c.handle)) != StateError {
		return false
	}
	c.apply(TriggerFault)
	return true
}

// apply moves the state machine along trigger. The progress monitor is
// stopped before leaving Playing is published, and started after entering
// Playing is published. It runs on the worker only.
func (c *Controller) apply(trigger Trigger) bool {
	from := c.State()
	to, ok := Next(from, trigger)
	if !ok {
		return false
	}
	if from == StatePlaying {
		c.monitor.Stop()
	}
	c.state.Store(int32(to)) //nolint:gosec // states are 0..5
	c.metrics.transition(from, to)
	c.log.Debug().
		Stringer("from", from).
		Stringer("to", to).
		Stringer("trigger", trigger).
		Msg("transition")
	c.events.publish(StateChange{Previous: from, Current: to, Trigger: trigger})
	if to == StatePlaying {
		c.monitor.Start()
	}
	return true
}

// reportEngineState feeds an engine-observed ordinal back to the worker.
// It may be called from any goroutine and never blocks.
func (c *Controller) reportEngineState(ordinal int) {
	s := StateFromOrdinal(ordinal)
	if s != StateEnd && s != StateError {
		return
	}
	_ = c.exec.submit(func() { c.handleEngineReport(s) })
}

// handleEngineReport applies a report only if the engine still holds the
// reported state. Commands queued ahead of it may have moved the engine on.
func (c *Controller) handleEngineReport(s State) {
	if now := StateFromOrdinal(c.eng.State(c.handle)); now != s {
		c.log.Debug().
			Stringer("reported", s).
			Stringer("engine", now).
			Msg("stale engine report dropped")
		return
	}
	trigger := TriggerFault
	if s == StateEnd {
		trigger = TriggerEndOfStream
	}
	if c.apply(trigger) {
		c.log.Debug().Stringer("engine", s).Msg("engine report applied")
	}
}

// recoverTask runs on the worker after a task panicked.
func (c *Controller) recoverTask(v any) {
	c.log.Error().Interface("panic", v).Msg("command panicked")
	c.apply(TriggerFault)
}

// sampleProgress runs on the monitor goroutine. It only reads the engine.
func (c *Controller) sampleProgress() {
	dur := c.refreshDuration()
	pos := c.eng.Position(c.handle)
	ordinal := c.eng.State(c.handle)
	c.metrics.sample()

	c.reportEngineState(ordinal)

	pct, ok := Percentage(pos, dur)
	if !ok {
		return
	}
	c.events.publish(ProgressChange{Position: pos, Duration: dur, Percentage: pct})
}

func (c *Controller) refreshDuration() float64 {
	var d float64
	c.read(func() { d = c.eng.Duration(c.handle) })
	if d > 0 && !math.IsInf(d, 0) {
		c.duration.Store(math.Float64bits(d))
		return d
	}
	return math.Float64frombits(c.duration.Load())
}
