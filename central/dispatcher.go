package central

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// dispatcher serializes every public operation and driver callback onto
// one goroutine. The queue is unbounded so a unit of work may submit
// further work (a listener calling back into the central) without
// deadlocking.
type dispatcher struct {
	mu    sync.Mutex
	queue []func()

	wake    chan struct{}
	done    chan struct{}
	running atomic.Bool
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (d *dispatcher) start() {
	if d.running.CompareAndSwap(false, true) {
		go d.run()
	}
}

// stop ends the run loop. Work queued but not yet started is dropped;
// the unit of work currently executing runs to completion.
func (d *dispatcher) stop() {
	if d.running.CompareAndSwap(true, false) {
		close(d.done)
	}
}

// submit queues one unit of work. It reports false once the dispatcher
// has stopped.
func (d *dispatcher) submit(fn func()) bool {
	if !d.running.Load() {
		return false
	}

	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}

	return true
}

// submitAfter schedules a unit of work after the given delay, keeping
// delays out of the dispatch goroutine itself.
func (d *dispatcher) submitAfter(delay time.Duration, fn func()) {
	time.AfterFunc(delay, func() {
		d.submit(fn)
	})
}

func (d *dispatcher) run() {
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, fn := range batch {
			fn()

			select {
			case <-d.done:
				return
			default:
			}
		}

		select {
		case <-d.wake:
		case <-d.done:
			return
		}
	}
}
