package playback

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command results recorded by Metrics.
const (
	resultApplied  = "applied"
	resultRejected = "rejected"
	resultFault    = "fault"
)

// Metrics holds the controller's prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	commands    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	samples     prometheus.Counter
	monitors    prometheus.Gauge
}

// NewMetrics registers the playback collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vplay",
			Subsystem: "playback",
			Name:      "commands_total",
			Help:      "Commands executed by the worker, by kind and result.",
		}, []string{"kind", "result"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vplay",
			Subsystem: "playback",
			Name:      "transitions_total",
			Help:      "Applied state transitions.",
		}, []string{"from", "to"}),
		samples: f.NewCounter(prometheus.CounterOpts{
			Namespace: "vplay",
			Subsystem: "playback",
			Name:      "progress_samples_total",
			Help:      "Progress samples taken from the engine.",
		}),
		monitors: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "vplay",
			Subsystem: "playback",
			Name:      "progress_monitors",
			Help:      "Progress loops currently alive.",
		}),
	}
}

func (m *Metrics) command(kind CommandKind, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(kind.String(), result).Inc()
}

func (m *Metrics) transition(from, to State) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) sample() {
	if m == nil {
		return
	}
	m.samples.Inc()
}

func (m *Metrics) setLiveMonitors(n int) {
	if m == nil {
		return
	}
	m.monitors.Set(float64(n))
}
