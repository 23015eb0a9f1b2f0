// internal/app/session.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/vplay/internal/config"
	"github.com/llehouerou/vplay/internal/engine"
	vlog "github.com/llehouerou/vplay/internal/log"
	"github.com/llehouerou/vplay/internal/notify"
	"github.com/llehouerou/vplay/internal/playback"
	"github.com/llehouerou/vplay/internal/state"
)

// SessionOptions configures OpenSession.
type SessionOptions struct {
	Engine   engine.Engine
	Source   string
	Playback config.PlaybackConfig
	Resume   bool // seek to the recorded position on first playback

	Store    state.Interface // nil disables history; closed by Session.Close
	Notifier notify.Notifier // nil disables fault notifications
	Metrics  *playback.Metrics
	Logger   *zerolog.Logger
}

// Session is one controller with its source set and its background
// consumers (history, notifications) attached.
type Session struct {
	Controller *playback.Controller
	Source     string
	Tags       engine.Tags // zero when the source has no readable tags
	Banner     string      // history summary, "" without history

	store          state.Interface
	reporter       *notify.PlaybackReporter
	watchers       []watcher
	releaseTimeout time.Duration
	log            zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// OpenSession creates the controller and attaches the consumers. The
// render target is left to the caller.
func OpenSession(opts SessionOptions) (*Session, error) {
	log := vlog.WithComponent("app")
	if opts.Logger != nil {
		log = *opts.Logger
	}

	ctrl, err := playback.New(opts.Engine, playback.Options{
		ProgressInterval: opts.Playback.ProgressInterval,
		Logger:           opts.Logger,
		Metrics:          opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		Controller:     ctrl,
		Source:         opts.Source,
		store:          opts.Store,
		releaseTimeout: opts.Playback.ReleaseTimeout,
		log:            log,
	}
	if s.releaseTimeout <= 0 {
		s.releaseTimeout = config.DefaultReleaseTimeout
	}

	if err := ctrl.SetSource(opts.Source); err != nil {
		_ = s.Close(context.Background())
		return nil, fmt.Errorf("set source: %w", err)
	}
	if tags, err := engine.ReadTags(opts.Source); err != nil {
		log.Debug().Err(err).Str("source", opts.Source).Msg("no tags")
	} else {
		s.Tags = tags
	}

	if opts.Store != nil {
		s.attachHistory(opts.Resume)
	}
	if opts.Notifier != nil {
		s.attachNotifier(opts.Notifier)
	}
	return s, nil
}

func (s *Session) attachHistory(resume bool) {
	entry, err := s.store.Get(s.Source)
	if err != nil {
		s.log.Warn().Err(err).Str("source", s.Source).Msg("read history")
	}
	s.Banner = ResumeBanner(entry, resume, time.Now())

	var resumeAt float64
	if resume && entry != nil {
		resumeAt = entry.ResumeAt()
	}
	rec := NewHistoryRecorder(s.store, s.Source, s.Controller, resumeAt, s.log)
	s.watchers = append(s.watchers, watch(s.Controller.Subscribe(), rec.Handle))
}

func (s *Session) attachNotifier(n notify.Notifier) {
	s.reporter = notify.NewPlaybackReporter(n, s.Source)
	s.watchers = append(s.watchers, watch(s.Controller.Subscribe(), func(e playback.Event) {
		sc, ok := e.(playback.StateChange)
		if !ok {
			return
		}
		if _, err := s.reporter.Handle(sc); err != nil {
			s.log.Warn().Err(err).Msg("fault notification")
		}
	}))
}

// Close stops playback, releases the controller within the release
// timeout, waits for the consumers to drain and closes the history store.
// Consumers still running when the timeout passes are detached first, so
// the store is never written after it is closed. Later calls return the
// first result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.close(ctx)
	})
	return s.closeErr
}

func (s *Session) close(ctx context.Context) error {
	var errs []error

	if err := s.Controller.RequestStop(); err != nil && !errors.Is(err, playback.ErrReleased) {
		errs = append(errs, fmt.Errorf("stop: %w", err))
	}

	rctx, cancel := context.WithTimeout(ctx, s.releaseTimeout)
	defer cancel()
	if err := s.Controller.Release(rctx); err != nil {
		errs = append(errs, err)
	}
	for _, w := range s.watchers {
		select {
		case <-w.done:
		case <-rctx.Done():
			// Events published after this point are dropped.
			w.sub.Close()
			<-w.done
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	s.log.Debug().Int("errors", len(errs)).Msg("session closed")
	return errors.Join(errs...)
}

// watcher is a subscription drained by its own goroutine.
type watcher struct {
	sub  *playback.Subscription
	done <-chan struct{} // closed once the goroutine has returned
}

// watch drains sub on its own goroutine, calling handle for each event.
func watch(sub *playback.Subscription, handle func(playback.Event)) watcher {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range sub.Events {
			handle(e)
		}
	}()
	return watcher{sub: sub, done: done}
}
