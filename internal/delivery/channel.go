// Package delivery moves GC events from the GC goroutine to the application
// goroutine and hands them to the registered consumer.
//
// All events share one unbounded backlog: a lock-free ring that spills into
// an overflow queue when full. Schedule pushes and notifies a wakeup
// registered on the event loop; the drain empties the backlog in FIFO
// order. Delivery order therefore matches epilogue order, nothing is
// coalesced, and nothing is dropped before shutdown.
package delivery

import (
	"fmt"
	"sync/atomic"

	"github.com/eapache/queue"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/spectator/internal/errors"
	"github.com/agbru/spectator/internal/eventloop"
	"github.com/agbru/spectator/internal/gcevent"
	"github.com/agbru/spectator/internal/heap"
	"github.com/agbru/spectator/internal/logging"
)

// SpanName names the span each consumer invocation runs in.
const SpanName = "spectator:GcCallback"

// DefaultQueueSize is the ring capacity used when none is configured.
const DefaultQueueSize = 4096

// Waker registers a task to run on the application goroutine whenever the
// returned function is called. *eventloop.Loop implements it.
type Waker interface {
	NewWakeup(task eventloop.Task) eventloop.NotifyFunc
}

// Stats are cumulative channel counters.
type Stats struct {
	Scheduled        uint64 // accepted by Schedule
	Spilled          uint64 // scheduled past the ring capacity
	Delivered        uint64 // handed to the consumer
	Discarded        uint64 // dropped at drain time (shutdown or no consumer)
	ConsumerFailures uint64 // consumer returned an error or panicked
	Wakeups          uint64 // drain tasks that ran
}

// Channel is the GC-to-application hand-off.
type Channel struct {
	backlog *Backlog[*gcevent.Event]
	pending *queue.Queue // loop-local batch, touched only by drain
	notify  eventloop.NotifyFunc
	gate    heap.Gate
	reg     atomic.Pointer[Registration]
	tracer  trace.Tracer
	logger  logging.Logger

	scheduled atomic.Uint64
	delivered atomic.Uint64
	discarded atomic.Uint64
	failures  atomic.Uint64
	wakeups   atomic.Uint64
}

// Option configures a Channel.
type Option func(*Channel)

// WithQueueSize sets the ring capacity. Events beyond it spill into the
// overflow queue instead of being refused.
func WithQueueSize(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.backlog = NewBacklog[*gcevent.Event](n)
		}
	}
}

// WithLogger sets the logger used for consumer failures.
func WithLogger(l logging.Logger) Option {
	return func(c *Channel) { c.logger = logging.OrNop(l) }
}

// WithTracerProvider sets the provider of the consumer-invocation tracer.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Channel) { c.tracer = tp.Tracer("github.com/agbru/spectator/internal/delivery") }
}

// New creates a channel that drains on a wakeup registered with loop and
// consults gate before delivering.
func New(loop Waker, gate heap.Gate, opts ...Option) *Channel {
	c := &Channel{
		backlog: NewBacklog[*gcevent.Event](DefaultQueueSize),
		pending: queue.New(),
		gate:    gate,
		tracer:  otel.Tracer("github.com/agbru/spectator/internal/delivery"),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.notify = loop.NewWakeup(c.drain)
	return c
}

// Register installs the consumer registration. It returns false if one is
// already installed.
func (c *Channel) Register(r *Registration) bool {
	return c.reg.CompareAndSwap(nil, r)
}

// Clear removes the registration. Events drained afterwards are discarded.
func (c *Channel) Clear() { c.reg.Store(nil) }

// Registered reports whether a consumer is installed.
func (c *Channel) Registered() bool { return c.reg.Load() != nil }

// Schedule queues ev for delivery on the application goroutine. It never
// blocks, never refuses ev and is safe to call from a GC hook.
func (c *Channel) Schedule(ev *gcevent.Event) {
	c.backlog.Push(ev)
	c.scheduled.Add(1)
	// A stopped loop only happens on teardown, where queued events are
	// discarded anyway.
	c.notify()
}

// Queued returns the approximate number of events awaiting a drain.
func (c *Channel) Queued() int { return c.backlog.Len() }

// drain runs on the application goroutine. The loop clears the wakeup before
// calling it, so an event pushed during the drain schedules another one.
// Events pushed while the batch is being delivered wait for that next run.
func (c *Channel) drain() {
	c.wakeups.Add(1)
	for {
		ev, ok := c.backlog.Pop()
		if !ok {
			break
		}
		c.pending.Add(ev)
	}
	for c.pending.Length() > 0 {
		ev := c.pending.Remove().(*gcevent.Event)
		c.deliver(ev)
	}
}

func (c *Channel) deliver(ev *gcevent.Event) {
	reg := c.reg.Load()
	if reg == nil || c.gate.ShuttingDown() {
		c.discarded.Add(1)
		return
	}
	rec := ev.Record()
	if err := c.invoke(reg, rec); err != nil {
		c.failures.Add(1)
		c.logger.Warn("gc consumer failed",
			logging.String("type", rec.Type),
			logging.Err(err))
	}
	c.delivered.Add(1)
}

// invoke runs the consumer inside a span parented by the registration's
// context and converts a panic into an error. The span registered with the
// consumer is linked as well, so it stays reachable when a tracer starts a
// new root.
func (c *Channel) invoke(reg *Registration, rec gcevent.Record) (err error) {
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("gc.type", rec.Type),
			attribute.Float64("gc.elapsed_seconds", rec.Elapsed),
		),
	}
	if sc := reg.SpanContext(); sc.IsValid() {
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: sc}))
	}
	ctx, span := c.tracer.Start(reg.Context(), SpanName, opts...)
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.ConsumerError{Kind: rec.Type, Cause: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	if cerr := reg.consumer.Consume(ctx, rec); cerr != nil {
		return apperrors.ConsumerError{Kind: rec.Type, Cause: cerr}
	}
	return nil
}

// Stats returns a snapshot of the channel counters.
func (c *Channel) Stats() Stats {
	return Stats{
		Scheduled:        c.scheduled.Load(),
		Spilled:          c.backlog.Spills(),
		Delivered:        c.delivered.Load(),
		Discarded:        c.discarded.Load(),
		ConsumerFailures: c.failures.Load(),
		Wakeups:          c.wakeups.Load(),
	}
}
