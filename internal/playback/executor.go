package playback

import "sync"

// executor runs tasks one at a time on a single worker goroutine, in
// submission order. The queue is unbounded so submit never blocks.
type executor struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}

	// onPanic runs on the worker after a task panicked.
	onPanic func(v any)
}

func newExecutor(onPanic func(v any)) *executor {
	e := &executor{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onPanic: onPanic,
	}
	go e.run()
	return e
}

// submit appends tasks as one contiguous block. Nothing submitted
// concurrently can land between them.
func (e *executor) submit(tasks ...func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrReleased
	}
	e.queue = append(e.queue, tasks...)
	e.mu.Unlock()
	e.signal()
	return nil
}

// close rejects further submissions and queues final as the last task. The
// worker exits once final has run. It reports false if already closed.
func (e *executor) close(final func()) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.closed = true
	if final != nil {
		e.queue = append(e.queue, final)
	}
	e.mu.Unlock()
	e.signal()
	return true
}

func (e *executor) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *executor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			closed := e.closed
			e.mu.Unlock()
			if closed {
				return
			}
			<-e.wake
			continue
		}
		task := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		e.exec(task)
	}
}

func (e *executor) exec(task func()) {
	defer func() {
		if v := recover(); v != nil && e.onPanic != nil {
			e.onPanic(v)
		}
	}()
	task()
}

func (e *executor) pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}
