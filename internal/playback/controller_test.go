package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/vplay/internal/engine"
)

func TestController_CommandsReachEngineInOrderWithoutOverlap(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(120)
		m.SetCallDelay(10 * time.Millisecond)
		c, sub := readyController(t, m)

		cmds := []Command{
			Start(), SetPause(true), SetPause(false), Seek(10),
			SetPause(true), Seek(5), SetPause(false), Stop(),
		}
		for _, cmd := range cmds {
			require.NoError(t, c.Submit(cmd))
		}
		drain(sub)
		release(t, c, sub)

		want := []string{
			engine.OpPlay, engine.OpSetPause, engine.OpSetPause, engine.OpSeek,
			engine.OpSetPause, engine.OpSeek, engine.OpSetPause, engine.OpStop,
			engine.OpRelease,
		}
		assert.Equal(t, want, m.Ops())
		assert.Zero(t, m.Overlaps())

		calls := m.Calls()
		assert.Equal(t, "file:///media/clip.mp3", calls[0].URI)
		assert.Equal(t, testSurface("main"), calls[0].Surface)
		assert.True(t, calls[1].Paused)
		assert.False(t, calls[2].Paused)
		assert.InDelta(t, 10.0, calls[3].Seconds, 1e-9)
		assert.InDelta(t, 5.0, calls[5].Seconds, 1e-9)
		assert.Equal(t, StateNone, c.State())
	})
}

func TestController_StartWithoutSourceAndTargetIsNoop(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		surface engine.Surface
	}{
		{name: "neither"},
		{name: "source only", source: "clip.wav"},
		{name: "surface only", surface: testSurface("main")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				m := engine.NewMock()
				c := newTestController(t, m, Options{})
				sub := c.Subscribe()
				if tt.source != "" {
					require.NoError(t, c.SetSource(tt.source))
				}
				if tt.surface != nil {
					require.NoError(t, c.NotifyTargetAvailable(tt.surface))
				}
				require.NoError(t, c.RequestStart())

				events := drain(sub)
				assert.Empty(t, events)
				assert.Equal(t, StateNone, c.State())
				assert.Empty(t, m.Ops())

				release(t, c, sub)
				assert.Equal(t, []string{engine.OpRelease}, m.Ops())
			})
		})
	}
}

func TestController_SurfaceArrivingLaterAllowsStart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		c := newTestController(t, m, Options{})
		require.NoError(t, c.SetSource("clip.flac"))
		require.NoError(t, c.RequestStart())
		require.NoError(t, c.NotifyTargetAvailable(testSurface("late")))
		synctest.Wait()
		assert.Equal(t, StateNone, c.State())
		assert.True(t, c.HasSurface())

		require.NoError(t, c.RequestStart())
		synctest.Wait()
		assert.Equal(t, StatePlaying, c.State())
		release(t, c)
	})
}

func TestController_PauseStopsProgressAndResumeRestartsIt(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(120)
		m.SetPosition(60)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		time.Sleep(2 * time.Second)
		require.NoError(t, c.RequestPause())
		events := drain(sub)

		assert.Equal(t, []State{StatePlaying, StatePaused}, currents(events))
		assert.Positive(t, progressAfter(events, StatePlaying))
		assert.Zero(t, progressAfter(events, StatePaused))
		assert.Equal(t, StatePaused, c.State())
		assert.False(t, c.monitor.Running())

		time.Sleep(5 * time.Second)
		assert.Empty(t, drain(sub), "no samples while paused")

		require.NoError(t, c.RequestResume())
		time.Sleep(2 * time.Second)
		events = drain(sub)
		assert.Equal(t, []State{StatePlaying}, currents(events))
		assert.Positive(t, progressCount(events))
		assert.IsType(t, StateChange{}, events[0], "state change precedes samples")

		release(t, c, sub)
	})
}

func TestController_ProgressPercentage(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(120)
		m.SetPosition(60)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		events := drain(sub)
		require.Len(t, events, 2)
		p, ok := events[1].(ProgressChange)
		require.True(t, ok)
		assert.Equal(t, 50, p.Percentage)
		assert.InDelta(t, 60.0, p.Position, 1e-9)
		assert.InDelta(t, 120.0, p.Duration, 1e-9)

		release(t, c, sub)
	})
}

func TestController_SamplesEveryInterval(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(100)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		drain(sub)
		time.Sleep(DefaultProgressInterval - time.Millisecond)
		assert.Empty(t, drain(sub))

		time.Sleep(time.Millisecond)
		assert.Equal(t, 1, progressCount(drain(sub)))

		time.Sleep(10 * DefaultProgressInterval)
		assert.Equal(t, 10, progressCount(drain(sub)))
		release(t, c, sub)
	})
}

func TestController_UnknownDurationEmitsNoProgress(t *testing.T) {
	for _, d := range []float64{0, -1} {
		t.Run(fmt.Sprint(d), func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				m := engine.NewMock()
				m.SetDuration(d)
				m.SetPosition(42)
				c, sub := readyController(t, m)

				require.NoError(t, c.RequestStart())
				time.Sleep(5 * time.Second)
				events := drain(sub)

				assert.Equal(t, []State{StatePlaying}, currents(events))
				assert.Zero(t, progressCount(events))
				assert.ErrorIs(t, c.RequestSeek(0.5), ErrUnknownDuration)
				release(t, c, sub)
			})
		})
	}
}

func TestController_DurationIsCachedOnceKnown(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		c := newTestController(t, m, Options{})
		assert.Zero(t, c.Duration())

		m.SetDuration(90)
		assert.InDelta(t, 90.0, c.Duration(), 1e-9)
		m.SetDuration(0)
		assert.InDelta(t, 90.0, c.Duration(), 1e-9)
		release(t, c)
	})
}

func TestController_TargetLostStopsAfterInFlightCommand(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetCallDelay(time.Second)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		synctest.Wait() // play is now in flight
		require.NoError(t, c.NotifyTargetLost())
		require.NoError(t, c.RequestStart())
		time.Sleep(3 * time.Second)

		events := drain(sub)
		assert.Equal(t, []string{engine.OpPlay, engine.OpStop}, m.Ops())
		assert.Equal(t, []State{StatePlaying, StateNone}, currents(events))
		assert.Equal(t, StateNone, c.State())
		assert.False(t, c.HasSurface())
		release(t, c, sub)
	})
}

func TestController_TargetLostWhileIdle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		c, sub := readyController(t, m)

		require.NoError(t, c.NotifyTargetLost())
		assert.Empty(t, drain(sub))
		assert.Equal(t, StateNone, c.State())
		assert.False(t, c.HasSurface())
		assert.Empty(t, m.Ops())
		release(t, c, sub)
	})
}

func TestController_OutOfRangeOrdinalReadsAsNone(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(10)
		c, sub := readyController(t, m)

		m.SetOrdinal(99)
		assert.Equal(t, StateNone, c.EngineState())
		m.Emit(99)
		assert.Equal(t, StateNone, c.State())

		require.NoError(t, c.RequestStart())
		drain(sub)
		m.SetOrdinal(99)
		time.Sleep(2 * time.Second)
		drain(sub)
		assert.Equal(t, StatePlaying, c.State())
		assert.Equal(t, StateNone, c.EngineState())
		release(t, c, sub)
	})
}

func TestController_FaultOnPlayMovesToError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.FailOn(engine.OpPlay)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		events := drain(sub)
		require.Equal(t, []StateChange{{Previous: StateNone, Current: StateError, Trigger: TriggerFault}},
			stateChanges(events))

		require.NoError(t, c.RequestStart())
		require.NoError(t, c.RequestStop())
		assert.Empty(t, drain(sub))
		assert.Equal(t, StateError, c.State())
		assert.Equal(t, []string{engine.OpPlay}, m.Ops())
		release(t, c, sub)
	})
}

func TestController_FaultDetectedBySampling(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(60)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		drain(sub)
		m.SetOrdinal(engine.OrdinalError)
		time.Sleep(DefaultProgressInterval)
		events := drain(sub)

		assert.Equal(t, StateError, c.State())
		assert.Equal(t, []State{StateError}, currents(events))
		assert.False(t, c.monitor.Running())
		release(t, c, sub)
	})
}

func TestController_EndOfStreamPushedByEngine(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(60)
		c, sub := readyController(t, m)
		require.True(t, m.HasListener())

		require.NoError(t, c.RequestStart())
		drain(sub)
		m.Emit(engine.OrdinalEnd)
		events := drain(sub)
		assert.Equal(t, []StateChange{{Previous: StatePlaying, Current: StateEnd, Trigger: TriggerEndOfStream}},
			stateChanges(events))
		assert.False(t, c.monitor.Running())

		require.NoError(t, c.RequestStart())
		drain(sub)
		assert.Equal(t, StatePlaying, c.State())
		assert.Equal(t, []string{engine.OpPlay, engine.OpPlay}, m.Ops())
		release(t, c, sub)
	})
}

func TestController_EndReportOvertakenBySeekIsDropped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(60)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		drain(sub)
		m.SetCallDelay(time.Second)
		require.NoError(t, c.RequestSeek(0.1))
		synctest.Wait() // seek is now in flight
		m.Emit(engine.OrdinalEnd)
		time.Sleep(2 * time.Second)
		events := drain(sub)

		assert.Equal(t, []State{StateSeeking, StatePlaying}, currents(events))
		assert.Equal(t, StatePlaying, c.State())
		assert.Equal(t, StatePlaying, c.EngineState())
		assert.True(t, c.monitor.Running())
		release(t, c, sub)
	})
}

func TestController_EndReportOvertakenByRestartIsDropped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(60)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		drain(sub)
		m.SetCallDelay(time.Second)
		require.NoError(t, c.RequestStop())
		synctest.Wait() // stop is now in flight
		require.NoError(t, c.RequestStart())
		m.Emit(engine.OrdinalEnd)
		time.Sleep(3 * time.Second)
		events := drain(sub)

		assert.Equal(t, []State{StateNone, StatePlaying}, currents(events))
		assert.Equal(t, StatePlaying, c.State())
		assert.Equal(t, []string{engine.OpPlay, engine.OpStop, engine.OpPlay}, m.Ops())
		release(t, c, sub)
	})
}

// slowReads blocks the first Position read until unblock is closed.
type slowReads struct {
	*engine.Mock
	once    sync.Once
	entered chan struct{}
	unblock chan struct{}
}

func (e *slowReads) Position(h engine.Handle) float64 {
	e.once.Do(func() {
		close(e.entered)
		<-e.unblock
	})
	return e.Mock.Position(h)
}

func TestController_ReleaseWaitsForReadsInProgress(t *testing.T) {
	eng := &slowReads{
		Mock:    engine.NewMock(),
		entered: make(chan struct{}),
		unblock: make(chan struct{}),
	}
	nop := zerolog.Nop()
	c, err := New(eng, Options{Logger: &nop})
	require.NoError(t, err)

	read := make(chan float64, 1)
	go func() { read <- c.Position() }()
	<-eng.entered

	released := make(chan error, 1)
	go func() { released <- c.Release(context.Background()) }()
	assert.Never(t, func() bool { return eng.Released() > 0 }, 100*time.Millisecond, 5*time.Millisecond)

	close(eng.unblock)
	require.NoError(t, <-released)
	<-read
	assert.Equal(t, 1, eng.Released())
	assert.Zero(t, eng.CallsAfterRelease())
	assert.Zero(t, c.Position())
	assert.Equal(t, StateNone, c.EngineState())
}

func TestController_PanicInEngineCallIsAFault(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		reg := prometheus.NewRegistry()
		metrics := NewMetrics(reg)
		c := newTestController(t, m, Options{Metrics: metrics})
		require.NoError(t, c.SetSource("clip.mp3"))
		require.NoError(t, c.NotifyTargetAvailable(testSurface("main")))
		m.PanicOn(engine.OpSetPause)

		require.NoError(t, c.RequestStart())
		require.NoError(t, c.RequestPause())
		require.NoError(t, c.RequestStop())
		synctest.Wait()

		assert.Equal(t, StateError, c.State())
		assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.commands.WithLabelValues("stop", resultRejected)), 1e-9)
		release(t, c)
	})
}

func TestController_SeekSettlesBackToPriorState(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(120)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		require.NoError(t, c.RequestSeek(0.25))
		require.NoError(t, c.RequestPause())
		require.NoError(t, c.RequestSeek(1))
		events := drain(sub)

		want := []StateChange{
			{Previous: StateNone, Current: StatePlaying, Trigger: TriggerStart},
			{Previous: StatePlaying, Current: StateSeeking, Trigger: TriggerSeek},
			{Previous: StateSeeking, Current: StatePlaying, Trigger: TriggerSeekPlaying},
			{Previous: StatePlaying, Current: StatePaused, Trigger: TriggerPause},
			{Previous: StatePaused, Current: StateSeeking, Trigger: TriggerSeek},
			{Previous: StateSeeking, Current: StatePaused, Trigger: TriggerSeekPaused},
		}
		assert.Equal(t, want, stateChanges(events))

		calls := m.Calls()
		require.Len(t, calls, 4)
		assert.InDelta(t, 30.0, calls[1].Seconds, 1e-9)
		assert.InDelta(t, 120.0, calls[3].Seconds, 1e-9)
		release(t, c, sub)
	})
}

func TestController_SeekRejections(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(120)
		c, sub := readyController(t, m)

		for _, f := range []float64{-0.1, 1.5} {
			assert.ErrorIs(t, c.RequestSeek(f), ErrInvalidFraction)
		}
		require.NoError(t, c.RequestSeek(0.5)) // idle: no edge
		assert.Empty(t, drain(sub))
		assert.Empty(t, m.Ops())
		release(t, c, sub)
	})
}

func TestController_SeekFaultMovesToError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(120)
		m.FailOn(engine.OpSeek)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		require.NoError(t, c.RequestSeek(0.5))
		events := drain(sub)
		assert.Equal(t, []State{StatePlaying, StateSeeking, StateError}, currents(events))
		release(t, c, sub)
	})
}

func TestController_Toggle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		c, sub := readyController(t, m)

		for range 3 {
			require.NoError(t, c.RequestToggle())
		}
		events := drain(sub)
		assert.Equal(t, []State{StatePlaying, StatePaused, StatePlaying}, currents(events))
		release(t, c, sub)
	})
}

func TestController_SourceIsSetOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		c := newTestController(t, m, Options{})

		assert.ErrorIs(t, c.SetSource(""), ErrEmptySource)
		require.NoError(t, c.SetSource("first.mp3"))
		require.NoError(t, c.SetSource("second.mp3"))
		synctest.Wait()
		assert.Equal(t, "first.mp3", c.Source())
		release(t, c)
	})
}

func TestController_SourceFrozenAfterStart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		c := newTestController(t, m, Options{})
		require.NoError(t, c.NotifyTargetAvailable(testSurface("main")))
		require.NoError(t, c.SetSource("first.mp3"))
		require.NoError(t, c.RequestStart())
		require.NoError(t, c.RequestStop())
		require.NoError(t, c.SetSource("other.mp3"))
		require.NoError(t, c.RequestStart())
		synctest.Wait()

		calls := m.Calls()
		require.Len(t, calls, 3)
		assert.Equal(t, "first.mp3", calls[2].URI)
		release(t, c)
	})
}

func TestController_RapidPauseResumeKeepsOneMonitor(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(120)
		reg := prometheus.NewRegistry()
		metrics := NewMetrics(reg)
		c := newTestController(t, m, Options{Metrics: metrics})
		require.NoError(t, c.SetSource("clip.mp3"))
		require.NoError(t, c.NotifyTargetAvailable(testSurface("main")))
		require.NoError(t, c.RequestStart())

		for range 100 {
			require.NoError(t, c.RequestPause())
			require.NoError(t, c.RequestResume())
		}
		synctest.Wait()

		assert.Equal(t, 1, c.monitor.Peak())
		assert.True(t, c.monitor.Running())
		assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.monitors), 1e-9)
		assert.InDelta(t, 100.0, testutil.ToFloat64(metrics.transitions.WithLabelValues("Playing", "Paused")), 1e-9)

		release(t, c)
		assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.monitors), 1e-9)
	})
}

func TestController_ReleaseDrainsQueueFirst(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetCallDelay(time.Second)
		c, sub := readyController(t, m)

		require.NoError(t, c.RequestStart())
		require.NoError(t, c.RequestStop())
		require.NoError(t, c.Release(context.Background()))

		assert.Equal(t, []string{engine.OpPlay, engine.OpStop, engine.OpRelease}, m.Ops())
		assert.Equal(t, 1, m.Released())
		assert.Zero(t, m.CallsAfterRelease())
		assert.False(t, m.HasListener())
		assert.False(t, c.monitor.Running())

		events := drain(sub)
		assert.Equal(t, []State{StatePlaying, StateNone}, currents(events))
		<-sub.Done

		assert.ErrorIs(t, c.RequestStart(), ErrReleased)
		assert.ErrorIs(t, c.NotifyTargetLost(), ErrReleased)
		require.NoError(t, c.Release(context.Background()))
		assert.Equal(t, 1, m.Released())

		m.Emit(engine.OrdinalError)
		assert.Equal(t, StateNone, c.State())
		assert.Equal(t, StateNone, c.EngineState())
	})
}

func TestController_ReleaseHonorsContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetCallDelay(10 * time.Second)
		c, _ := readyController(t, m)
		require.NoError(t, c.RequestStart())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := c.Release(ctx)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Zero(t, m.Released())

		require.NoError(t, c.Release(context.Background()))
		assert.Equal(t, 1, m.Released())
	})
}

func TestController_ConcurrentCallersNeverOverlapEngine(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := engine.NewMock()
		m.SetDuration(120)
		m.SetCallDelay(5 * time.Millisecond)
		c, sub := readyController(t, m)

		var wg sync.WaitGroup
		for range 4 {
			wg.Go(func() {
				for range 10 {
					_ = c.RequestToggle()
					_ = c.RequestSeek(0.5)
				}
			})
		}
		wg.Wait()
		drain(sub)
		release(t, c, sub)

		assert.Zero(t, m.Overlaps())
		assert.Zero(t, m.CallsAfterRelease())
		assert.Equal(t, engine.OpRelease, m.Ops()[len(m.Ops())-1])
	})
}

func TestController_SubscribeAfterRelease(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := newTestController(t, engine.NewMock(), Options{})
		release(t, c)
		sub := c.Subscribe()
		<-sub.Done
	})
}

func TestController_InitFailure(t *testing.T) {
	_, err := New(failingEngine{engine.NewMock()}, Options{})
	assert.ErrorIs(t, err, errInitFailed)
}

var errInitFailed = errors.New("no device")

type failingEngine struct{ *engine.Mock }

func (failingEngine) Init() (engine.Handle, error) { return engine.InvalidHandle, errInitFailed }
