// internal/app/history.go
package app

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/llehouerou/vplay/internal/playback"
	"github.com/llehouerou/vplay/internal/state"
	"github.com/llehouerou/vplay/internal/ui/playerview"
)

// Seeker is the part of the controller the history recorder needs.
type Seeker interface {
	RequestSeek(fraction float64) error
}

// HistoryRecorder keeps the history entry of one source up to date from
// controller events. With a resume position it seeks there on the first
// progress sample that carries a duration.
//
// Handle must be called from a single goroutine.
type HistoryRecorder struct {
	store    state.Interface
	seeker   Seeker
	log      zerolog.Logger
	resumeAt float64

	entry   state.Entry
	sampled bool // nothing is written before the first sample
	resumed bool
}

// NewHistoryRecorder records source into store. resumeAt <= 0 disables the
// resume seek.
func NewHistoryRecorder(store state.Interface, source string, seeker Seeker, resumeAt float64, log zerolog.Logger) *HistoryRecorder {
	return &HistoryRecorder{
		store:    store,
		seeker:   seeker,
		log:      log,
		resumeAt: resumeAt,
		entry:    state.Entry{Source: source},
	}
}

// Handle records e.
func (h *HistoryRecorder) Handle(e playback.Event) {
	switch e := e.(type) {
	case playback.ProgressChange:
		h.entry.Duration = e.Duration
		if h.resume(e.Duration) {
			h.entry.Position = h.resumeAt
			return
		}
		h.sampled = true
		h.entry.Position = e.Position
		h.entry.Completed = false
		h.save()

	case playback.StateChange:
		h.entry.LastState = e.Current.String()
		if e.Current == playback.StateEnd {
			h.entry.Completed = true
			if h.entry.Duration > 0 {
				h.entry.Position = h.entry.Duration
			}
		}
		h.save()
	}
}

// resume issues the resume seek once. It reports whether it did.
func (h *HistoryRecorder) resume(duration float64) bool {
	if h.resumed || h.resumeAt <= 0 || duration <= 0 {
		return false
	}
	h.resumed = true
	if h.resumeAt >= duration {
		return false
	}
	if err := h.seeker.RequestSeek(h.resumeAt / duration); err != nil {
		h.log.Warn().Err(err).Float64("position", h.resumeAt).Msg("resume seek")
		return false
	}
	h.log.Info().Float64("position", h.resumeAt).Msg("resuming")
	return true
}

func (h *HistoryRecorder) save() {
	if !h.sampled {
		return
	}
	e := h.entry
	e.UpdatedAt = time.Now()
	h.store.SavePosition(e)
}

// ResumeBanner describes a history entry for the status line. It returns ""
// when there is nothing worth showing.
func ResumeBanner(e *state.Entry, resume bool, now time.Time) string {
	if e == nil || e.UpdatedAt.IsZero() {
		return ""
	}
	age := humanize.RelTime(e.UpdatedAt, now, "ago", "from now")
	if e.Completed {
		return "Finished " + age
	}
	at := e.ResumeAt()
	if at <= 0 {
		return "Last played " + age
	}
	if resume {
		return "Resuming at " + playerview.FormatSeconds(at) + ", last played " + age
	}
	return "Stopped at " + playerview.FormatSeconds(at) + " " + age
}
