// internal/app/run.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/vplay/internal/config"
	"github.com/llehouerou/vplay/internal/engine"
	vlog "github.com/llehouerou/vplay/internal/log"
	"github.com/llehouerou/vplay/internal/mpris"
	"github.com/llehouerou/vplay/internal/notify"
	"github.com/llehouerou/vplay/internal/playback"
	"github.com/llehouerou/vplay/internal/state"
	"github.com/llehouerou/vplay/internal/stderr"
)

// ErrPlaybackFailed is returned by Probe when the engine faults.
var ErrPlaybackFailed = errors.New("playback failed")

// SetupLogging routes the global logger to the configured log file, or to
// $XDG_STATE_HOME/vplay/vplay.log. The terminal belongs to the UI.
func SetupLogging(cfg *config.Config) (io.Closer, error) {
	path := cfg.Log.File
	if path == "" {
		p, err := xdg.StateFile("vplay/vplay.log")
		if err != nil {
			return nil, fmt.Errorf("resolve log path: %w", err)
		}
		path = p
	}
	f, err := vlog.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	vlog.Configure(vlog.Config{Level: cfg.LogLevel(), Output: f, Service: "vplay"})
	return f, nil
}

// OpenStore opens the history store, or returns nil when history is
// disabled.
func OpenStore(cfg *config.Config) (state.Interface, error) {
	if !cfg.HistoryEnabled() {
		return nil, nil //nolint:nilnil // history disabled
	}
	if cfg.History.Path != "" {
		return state.OpenPath(cfg.History.Path)
	}
	return state.Open()
}

// Run plays source in the terminal UI until the user quits or ctx ends.
func Run(ctx context.Context, cfg *config.Config, source string) error {
	logFile, err := SetupLogging(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := vlog.WithComponent("app")

	capture, err := stderr.Start(func(line string) {
		log.Warn().Str("line", line).Msg("native stderr")
	})
	if err != nil {
		log.Warn().Err(err).Msg("stderr capture unavailable")
	} else {
		defer capture.Stop()
	}

	store, err := OpenStore(cfg)
	if err != nil {
		// History is optional
		log.Warn().Err(err).Msg("history unavailable")
		store = nil
	}

	var notifier notify.Notifier
	if cfg.NotificationsEnabled() {
		notifier, err = notify.New()
		if err != nil {
			log.Warn().Err(err).Msg("notifications unavailable")
			notifier = nil
		}
	}

	reg := NewRegistry()
	pcfg := cfg.GetPlaybackConfig()
	sess, err := OpenSession(SessionOptions{
		Engine:   engine.NewBeep(),
		Source:   source,
		Playback: pcfg,
		Resume:   cfg.ResumeEnabled(),
		Store:    store,
		Notifier: notifier,
		Metrics:  playback.NewMetrics(reg),
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return fmt.Errorf("open session: %w", err)
	}
	log.Info().Str("source", source).Msg("session opened")

	if cfg.MPRISEnabled() {
		if adapter, err := mpris.New(sess.Controller, sess.Tags); err != nil {
			log.Warn().Err(err).Msg("mpris unavailable")
		} else {
			defer adapter.Close()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	if cfg.HasMetrics() {
		g.Go(func() error {
			// Metrics are best-effort
			if err := ServeMetrics(gctx, cfg.Metrics.Listen, MetricsHandler(reg), log); err != nil {
				log.Error().Err(err).Msg("metrics server failed")
			}
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		return runUI(gctx, sess, pcfg)
	})

	runErr := g.Wait()
	cancel()
	closeErr := sess.Close(context.WithoutCancel(ctx))
	if closeErr != nil {
		log.Error().Err(closeErr).Msg("session close")
	}
	return errors.Join(runErr, closeErr)
}

func runUI(ctx context.Context, sess *Session, pcfg config.PlaybackConfig) error {
	m := New(sess.Controller, sess.Controller.Subscribe(), Options{
		Source:    sess.Source,
		Label:     sess.Tags.Label(sess.Source),
		SeekStep:  pcfg.SeekStep,
		AutoStart: true,
		Banner:    sess.Banner,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// Probe plays source without a terminal UI, logging every event to out,
// until playback ends, fails or ctx ends. seekFraction >= 0 seeks once the
// duration is known.
func Probe(ctx context.Context, cfg *config.Config, eng engine.Engine, source string, seekFraction float64, out io.Writer) error {
	vlog.Configure(vlog.Config{Level: cfg.LogLevel(), Output: zerolog.ConsoleWriter{Out: out}, Service: "vplay-probe"})
	log := vlog.WithComponent("probe")

	sess, err := OpenSession(SessionOptions{
		Engine:   eng,
		Source:   source,
		Playback: cfg.GetPlaybackConfig(),
	})
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("session close")
		}
	}()

	log.Info().
		Str("title", sess.Tags.DisplayTitle(source)).
		Str("artist", sess.Tags.Artist).
		Str("album", sess.Tags.Album).
		Msg("source")

	sub := sess.Controller.Subscribe()
	defer sub.Close()

	if err := sess.Controller.NotifyTargetAvailable(probeSurface{}); err != nil {
		return err
	}
	if err := sess.Controller.RequestStart(); err != nil {
		return err
	}

	seeked := seekFraction < 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-sub.Events:
			if !ok {
				return nil
			}
			switch e := e.(type) {
			case playback.StateChange:
				log.Info().
					Str("from", e.Previous.String()).
					Str("to", e.Current.String()).
					Str("trigger", e.Trigger.String()).
					Msg("state")
				switch e.Current {
				case playback.StateEnd:
					return nil
				case playback.StateError:
					return fmt.Errorf("%s: %w", source, ErrPlaybackFailed)
				}
			case playback.ProgressChange:
				log.Info().
					Float64("position", e.Position).
					Float64("duration", e.Duration).
					Int("percent", e.Percentage).
					Msg("progress")
				if !seeked && e.Duration > 0 {
					seeked = true
					if err := sess.Controller.RequestSeek(seekFraction); err != nil {
						log.Warn().Err(err).Msg("seek")
					}
				}
			}
		}
	}
}

// probeSurface stands in for a display in headless runs.
type probeSurface struct{}

func (probeSurface) SurfaceID() string { return "headless" }
