package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultProgressInterval is the sampling period of the progress monitor.
const DefaultProgressInterval = 500 * time.Millisecond

// progressMonitor runs a sampling loop while the session is playing. Start
// is idempotent and Stop waits for the loop to exit, so at most one loop is
// ever alive.
type progressMonitor struct {
	interval time.Duration
	sample   func()
	log      zerolog.Logger
	metrics  *Metrics

	mu     sync.Mutex // serializes Start and Stop
	cancel context.CancelFunc
	done   chan struct{}

	live atomic.Int32
	peak atomic.Int32
}

func newProgressMonitor(interval time.Duration, sample func(), log zerolog.Logger, m *Metrics) *progressMonitor {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &progressMonitor{
		interval: interval,
		sample:   sample,
		log:      log,
		metrics:  m,
	}
}

// Start launches the loop. It reports false if a loop is already running.
func (m *progressMonitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel, m.done = cancel, done
	go m.loop(ctx, done)
	return true
}

// Stop cancels the loop and waits for it to return. It reports false if no
// loop was running.
func (m *progressMonitor) Stop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return false
	}
	m.cancel()
	<-m.done
	m.cancel, m.done = nil, nil
	return true
}

// Running reports whether a loop is active.
func (m *progressMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Peak returns the largest number of loops ever alive at once.
func (m *progressMonitor) Peak() int { return int(m.peak.Load()) }

func (m *progressMonitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	m.enter()
	defer m.exit()

	m.sample()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Debug().Msg("progress loop interrupted")
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				m.log.Debug().Msg("progress loop interrupted")
				return
			}
			m.sample()
		}
	}
}

func (m *progressMonitor) enter() {
	n := m.live.Add(1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	m.metrics.setLiveMonitors(int(n))
}

func (m *progressMonitor) exit() {
	m.metrics.setLiveMonitors(int(m.live.Add(-1)))
}
