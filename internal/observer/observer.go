// Package observer turns host GC hooks into GC events.
//
// The observer owns a single "before" snapshot that every prologue overwrites
// and every epilogue copies. This relies on the host invariant that prologue
// and epilogue are strictly paired on one goroutine with no nested or
// concurrent collections; a host that broke it would clobber the buffer.
// The buffer is not cleared after use, so an epilogue without a prologue
// reuses the previous "before" values (or zeros, giving elapsed 0).
package observer

import (
	"sync"
	"sync/atomic"

	"github.com/agbru/spectator/internal/gcevent"
	"github.com/agbru/spectator/internal/heap"
	"github.com/agbru/spectator/internal/host"
	"github.com/agbru/spectator/internal/logging"
)

// Scheduler accepts finished events. *delivery.Channel implements it.
type Scheduler interface {
	Schedule(ev *gcevent.Event)
	Registered() bool
}

// Stats are cumulative observer counters.
type Stats struct {
	Prologues       uint64 // prologue captures performed
	Epilogues       uint64 // events built
	CaptureFailures uint64 // captures where a heap-space read failed
}

// Observer binds to a host's GC hooks and feeds a Scheduler.
type Observer struct {
	host   host.Host
	gate   heap.Gate
	sched  Scheduler
	logger logging.Logger

	pre atomic.Pointer[heap.Snapshot]

	mu             sync.Mutex
	removePrologue func()
	removeEpilogue func()

	prologues atomic.Uint64
	epilogues atomic.Uint64
	failures  atomic.Uint64
}

// Option configures an Observer.
type Option func(*Observer)

// WithLogger sets the logger for failed captures.
func WithLogger(l logging.Logger) Option {
	return func(o *Observer) { o.logger = logging.OrNop(l) }
}

// New allocates the "before" buffer sized for h. Hooks are not registered
// until BindPrologue and BindEpilogue are called.
func New(h host.Host, gate heap.Gate, sched Scheduler, opts ...Option) *Observer {
	o := &Observer{
		host:   h,
		gate:   gate,
		sched:  sched,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.pre.Store(heap.NewSnapshot(h, heap.WithGate(gate)))
	return o
}

// BindPrologue registers the prologue hook once.
func (o *Observer) BindPrologue() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.removePrologue == nil {
		o.removePrologue = o.host.AddGCPrologueHook(o.Prologue)
	}
}

// BindEpilogue registers the epilogue hook once.
func (o *Observer) BindEpilogue() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.removeEpilogue == nil {
		o.removeEpilogue = o.host.AddGCEpilogueHook(o.Epilogue)
	}
}

// Unbind removes both hooks.
func (o *Observer) Unbind() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.removePrologue != nil {
		o.removePrologue()
		o.removePrologue = nil
	}
	if o.removeEpilogue != nil {
		o.removeEpilogue()
		o.removeEpilogue = nil
	}
}

// Release drops the "before" buffer. Hooks still running keep their own
// reference; later hooks become no-ops.
func (o *Observer) Release() { o.pre.Store(nil) }

// Prologue captures the "before" snapshot. Runs on the GC goroutine.
func (o *Observer) Prologue(kind host.Kind) {
	if o.gate.ShuttingDown() {
		return
	}
	pre := o.pre.Load()
	if pre == nil {
		return
	}
	if !pre.Capture() {
		o.failures.Add(1)
		o.logger.Debug("heap space read failed", logging.String("type", kind.String()))
	}
	o.prologues.Add(1)
}

// Epilogue builds an event from the "before" buffer and a fresh "after"
// snapshot and schedules it. Runs on the GC goroutine; keeps no reference to
// the event afterwards.
func (o *Observer) Epilogue(kind host.Kind) {
	if o.gate.ShuttingDown() || !o.sched.Registered() {
		return
	}
	pre := o.pre.Load()
	if pre == nil {
		return
	}
	ev := gcevent.New(kind, pre, o.host, heap.WithGate(o.gate))
	o.epilogues.Add(1)
	o.sched.Schedule(ev)
}

// Stats returns a snapshot of the observer counters.
func (o *Observer) Stats() Stats {
	return Stats{
		Prologues:       o.prologues.Load(),
		Epilogues:       o.epilogues.Load(),
		CaptureFailures: o.failures.Load(),
	}
}
