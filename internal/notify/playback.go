package notify

import (
	"sync"

	"github.com/llehouerou/vplay/internal/errmsg"
	"github.com/llehouerou/vplay/internal/playback"
)

const faultTimeout = 8000 // ms

// PlaybackReporter turns controller state changes into desktop
// notifications. Only faults are announced; each replaces the previous one.
type PlaybackReporter struct {
	n      Notifier
	source string

	mu     sync.Mutex
	lastID uint32
}

// NewPlaybackReporter reports failures of source through n.
func NewPlaybackReporter(n Notifier, source string) *PlaybackReporter {
	return &PlaybackReporter{n: n, source: source}
}

// Handle announces sc if it enters the Error state. It returns the
// notification ID, or 0 when nothing was sent.
func (r *PlaybackReporter) Handle(sc playback.StateChange) (uint32, error) {
	if sc.Current != playback.StateError {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := r.n.Notify(Notification{
		Title:      errmsg.PlaybackFailed(r.source),
		Body:       "Open the file again to retry.",
		Icon:       "dialog-error",
		Timeout:    faultTimeout,
		ReplacesID: r.lastID,
		Urgency:    UrgencyCritical,
		Category:   CategoryPlaybackError,
	})
	if err != nil {
		return 0, err
	}
	r.lastID = id
	return id, nil
}

// Dismiss closes the last notification, if any.
func (r *PlaybackReporter) Dismiss() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastID == 0 {
		return nil
	}
	id := r.lastID
	r.lastID = 0
	return r.n.Close(id)
}
