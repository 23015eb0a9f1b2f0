package playback

import (
	"context"
	"testing"
	"testing/synctest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/vplay/internal/engine"
)

type testSurface string

func (s testSurface) SurfaceID() string { return string(s) }

func newTestController(t *testing.T, m *engine.Mock, opts Options) *Controller {
	t.Helper()
	nop := zerolog.Nop()
	opts.Logger = &nop
	c, err := New(m, opts)
	require.NoError(t, err)
	return c
}

// readyController returns a controller with a source and surface attached,
// and a subscription opened before anything was submitted.
func readyController(t *testing.T, m *engine.Mock) (*Controller, *Subscription) {
	t.Helper()
	c := newTestController(t, m, Options{})
	sub := c.Subscribe()
	require.NoError(t, c.SetSource("file:///media/clip.mp3"))
	require.NoError(t, c.NotifyTargetAvailable(testSurface("main")))
	return c, sub
}

func release(t *testing.T, c *Controller, subs ...*Subscription) {
	t.Helper()
	for _, s := range subs {
		s.Close()
	}
	require.NoError(t, c.Release(context.Background()))
}

// drain returns every event delivered once the bubble has settled.
func drain(sub *Subscription) []Event {
	var out []Event
	for {
		synctest.Wait()
		n := len(out)
	recv:
		for {
			select {
			case e, ok := <-sub.Events:
				if !ok {
					return out
				}
				out = append(out, e)
			default:
				break recv
			}
		}
		if len(out) == n {
			return out
		}
	}
}

func stateChanges(events []Event) []StateChange {
	var out []StateChange
	for _, e := range events {
		if sc, ok := e.(StateChange); ok {
			out = append(out, sc)
		}
	}
	return out
}

func currents(events []Event) []State {
	var out []State
	for _, sc := range stateChanges(events) {
		out = append(out, sc.Current)
	}
	return out
}

func progressCount(events []Event) int {
	n := 0
	for _, e := range events {
		if _, ok := e.(ProgressChange); ok {
			n++
		}
	}
	return n
}

// progressAfter counts progress events that follow the last StateChange
// into state s.
func progressAfter(events []Event, s State) int {
	idx := -1
	for i, e := range events {
		if sc, ok := e.(StateChange); ok && sc.Current == s {
			idx = i
		}
	}
	if idx < 0 {
		return -1
	}
	return progressCount(events[idx+1:])
}
