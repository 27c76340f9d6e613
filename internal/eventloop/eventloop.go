// Package eventloop provides the application goroutine: a single-consumer
// loop that runs posted tasks one at a time, in the order they were posted.
//
// Everything that must run "on the application thread" (GC consumers, the FD
// probe when called through the lifecycle) is posted here. Posting is
// non-blocking and safe from any goroutine, including GC hooks.
//
// Besides the bounded inbox, a loop carries registered wakeups. Notifying a
// wakeup sets its pending flag and signals a one-slot channel, so it can
// neither fail nor be crowded out by posted tasks.
package eventloop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/agbru/spectator/internal/logging"
)

// Task is a unit of work run on the loop goroutine.
type Task func()

// DefaultCapacity is the inbox size used when New is given a non-positive one.
const DefaultCapacity = 1024

// NotifyFunc asks the loop to run its wakeup task. It never blocks and
// returns false only once the loop has been stopped.
type NotifyFunc func() bool

type wakeup struct {
	task    Task
	pending atomic.Bool
}

// Loop runs tasks serially on one goroutine.
type Loop struct {
	inbox   chan Task
	signal  chan struct{}
	quitCh  chan struct{}
	doneCh  chan struct{}
	running atomic.Bool
	ran     atomic.Bool
	stop    sync.Once
	done    sync.Once
	logger  logging.Logger

	wmu     sync.Mutex
	wakeups []*wakeup

	executed atomic.Uint64
	panics   atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(l logging.Logger) Option {
	return func(el *Loop) { el.logger = logging.OrNop(l) }
}

// New creates a loop whose inbox holds up to capacity pending tasks.
func New(capacity int, opts ...Option) *Loop {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	el := &Loop{
		inbox:  make(chan Task, capacity),
		signal: make(chan struct{}, 1),
		quitCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(el)
	}
	return el
}

// Run executes tasks until ctx is done or Stop is called. It returns
// immediately if the loop is already running or has run before.
func (el *Loop) Run(ctx context.Context) {
	if !el.ran.CompareAndSwap(false, true) {
		return
	}
	el.running.Store(true)
	defer func() {
		el.running.Store(false)
		el.finish()
	}()

	for {
		select {
		case <-el.quitCh:
			return
		case <-ctx.Done():
			return
		case <-el.signal:
			el.runWakeups()
		case task := <-el.inbox:
			// Wakeups notified before task was posted run first.
			el.runWakeups()
			el.execute(task)
		}
	}
}

func (el *Loop) finish() { el.done.Do(func() { close(el.doneCh) }) }

// NewWakeup registers task and returns the function that schedules it.
// Notifications made while the task is pending coalesce into one run; a
// notification made while it runs schedules another.
func (el *Loop) NewWakeup(task Task) NotifyFunc {
	w := &wakeup{task: task}
	el.wmu.Lock()
	el.wakeups = append(el.wakeups, w)
	el.wmu.Unlock()
	return func() bool {
		select {
		case <-el.quitCh:
			return false
		default:
		}
		if w.pending.CompareAndSwap(false, true) {
			select {
			case el.signal <- struct{}{}:
			default: // a signal is already pending
			}
		}
		return true
	}
}

func (el *Loop) runWakeups() {
	el.wmu.Lock()
	ws := el.wakeups
	el.wmu.Unlock()
	for _, w := range ws {
		if w.pending.Swap(false) {
			el.execute(w.task)
		}
	}
}

func (el *Loop) execute(task Task) {
	defer func() {
		el.executed.Add(1)
		if r := recover(); r != nil {
			el.panics.Add(1)
			el.logger.Error("event loop task panicked", fmt.Errorf("%v", r))
		}
	}()
	task()
}

// Post enqueues task without blocking. It returns false if the inbox is full
// or the loop has been stopped.
func (el *Loop) Post(task Task) bool {
	select {
	case <-el.quitCh:
		return false
	default:
	}
	select {
	case el.inbox <- task:
		return true
	default:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. It returns ctx.Err() if
// ctx ends first and an error if the task cannot be posted.
func (el *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !el.Post(func() {
		defer close(done)
		fn()
	}) {
		return fmt.Errorf("event loop: task rejected")
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-el.doneCh:
		select {
		case <-done:
			return nil
		default:
			return fmt.Errorf("event loop: stopped before task ran")
		}
	}
}

// Pending returns the approximate number of queued tasks.
func (el *Loop) Pending() int { return len(el.inbox) }

// Executed returns the number of tasks run so far.
func (el *Loop) Executed() uint64 { return el.executed.Load() }

// Panics returns the number of tasks that panicked.
func (el *Loop) Panics() uint64 { return el.panics.Load() }

// Running reports whether Run is active.
func (el *Loop) Running() bool { return el.running.Load() }

// Done is closed once Run has returned, or once Stop has kept it from starting.
func (el *Loop) Done() <-chan struct{} { return el.doneCh }

// Stop signals Run to exit and waits for it if it was started. Queued tasks
// that have not started are discarded. A Run that has not begun by the time
// Stop is called never starts, and Done is closed on return.
func (el *Loop) Stop() {
	el.stop.Do(func() { close(el.quitCh) })
	if el.ran.CompareAndSwap(false, true) {
		el.finish()
		return
	}
	<-el.doneCh
}
