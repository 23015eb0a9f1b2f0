package playback

import "sync"

const eventBufferSize = 16

// Subscription delivers events to one subscriber in the order they were
// published. Nothing is dropped: events the subscriber has not read yet wait
// in an unbounded queue, so publishing never blocks the worker or the
// progress monitor.
//
// Events is closed after the last event once the controller is released, or
// right away after Close. Done is closed at the same time.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	events chan Event
	done   chan struct{}
	quit   chan struct{}
	wake   chan struct{}

	mu      sync.Mutex
	pending []Event
	ended   bool // no more events will be pushed

	closeOnce sync.Once
}

func newSubscription() *Subscription {
	s := &Subscription{
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
		quit:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
	s.Events = s.events
	s.Done = s.done
	go s.pump()
	return s
}

// Close stops delivery. Pending events are discarded.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
}

func (s *Subscription) closed() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

// push queues e for delivery and returns immediately.
func (s *Subscription) push(e Event) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, e)
	s.mu.Unlock()
	s.signal()
}

// end lets the pump flush what is pending, then close the channels.
func (s *Subscription) end() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.done)
	defer close(s.events)
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			ended := s.ended
			s.mu.Unlock()
			if ended {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.quit:
				return
			}
		}
		e := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		select {
		case s.events <- e:
		case <-s.quit:
			return
		}
	}
}

// hub fans events out to every live subscription under one lock, so all
// subscribers observe the same order.
type hub struct {
	mu     sync.Mutex
	subs   []*Subscription
	closed bool
}

func (h *hub) subscribe() *Subscription {
	s := newSubscription()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.end()
		return s
	}
	h.subs = append(h.subs, s)
	return s
}

func (h *hub) publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	live := h.subs[:0]
	for _, s := range h.subs {
		if s.closed() {
			continue
		}
		s.push(e)
		live = append(live, s)
	}
	clear(h.subs[len(live):])
	h.subs = live
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, s := range h.subs {
		s.end()
	}
	h.subs = nil
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
