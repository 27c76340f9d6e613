package spectator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/spectator/internal/delivery"
	apperrors "github.com/agbru/spectator/internal/errors"
	"github.com/agbru/spectator/internal/eventloop"
	"github.com/agbru/spectator/internal/fdprobe"
	"github.com/agbru/spectator/internal/host"
	"github.com/agbru/spectator/internal/logging"
	"github.com/agbru/spectator/internal/observer"
)

// State is a Lifecycle phase.
type State int32

// Lifecycle phases. TornDown is terminal.
const (
	StateUninitialized State = iota
	StateInitialized
	StateObserving
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateObserving:
		return "observing"
	case StateTornDown:
		return "torn_down"
	default:
		return "invalid"
	}
}

// shutdownFlag is written once on the application goroutine and read without
// locks from GC hooks and the drain. atomic.Bool gives the store release
// semantics and the loads acquire semantics, so a reader that sees false
// cannot observe any teardown that happens after the store.
type shutdownFlag struct {
	v atomic.Bool
}

func (f *shutdownFlag) ShuttingDown() bool { return f.v.Load() }

func (f *shutdownFlag) set() { f.v.Store(true) }

// Stats aggregates observer and delivery counters.
type Stats struct {
	Observer observer.Stats
	Delivery delivery.Stats
	// Queued is the number of events awaiting a drain.
	Queued int
	// MissedCycles counts collections the host folded into another report.
	// Zero for hosts that see every cycle.
	MissedCycles uint64
}

type options struct {
	logger    logging.Logger
	queueSize int
	tracer    trace.TracerProvider
	probe     *fdprobe.Probe
}

// Option configures Init.
type Option func(*options)

// WithLogger sets the logger shared by the pipeline components.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithQueueSize sets the lock-free ring capacity. Events beyond it spill into
// an overflow queue; none are refused.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// WithTracerProvider sets the provider for consumer-invocation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// WithFdProbe replaces the platform FD probe.
func WithFdProbe(p fdprobe.Probe) Option {
	return func(o *options) { o.probe = &p }
}

// Lifecycle owns the GC observation pipeline: the "before" buffer, the
// consumer registration and the shutdown flag.
type Lifecycle struct {
	mu       sync.Mutex
	state    atomic.Int32
	shutdown shutdownFlag

	host     host.Host
	channel  *delivery.Channel
	observer *observer.Observer
	probe    fdprobe.Probe
	logger   logging.Logger
}

// New returns an uninitialized Lifecycle.
func New() *Lifecycle {
	return &Lifecycle{probe: fdprobe.Default(), logger: logging.Nop()}
}

// State returns the current phase.
func (l *Lifecycle) State() State { return State(l.state.Load()) }

// Init allocates the "before" buffer and registers the prologue hook on h.
// Events are delivered on loop, which the caller runs. Init succeeds once;
// the embedding application must arrange for Shutdown to run at exit. A nil
// h or loop is an apperrors.ArgumentError and leaves the state unchanged.
func (l *Lifecycle) Init(h host.Host, loop *eventloop.Loop, opts ...Option) error {
	if h == nil {
		return apperrors.ArgumentError{Message: "spectator: Init requires a host", Got: "<nil>"}
	}
	if loop == nil {
		return apperrors.ArgumentError{Message: "spectator: Init requires an event loop", Got: fmt.Sprintf("%T", loop)}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.State() {
	case StateUninitialized:
	case StateTornDown:
		return apperrors.StateError{Op: "Init", Cause: apperrors.ErrShutdown}
	default:
		return apperrors.StateError{Op: "Init", Cause: apperrors.ErrAlreadyInit}
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	l.logger = logging.OrNop(o.logger)
	if o.probe != nil {
		l.probe = *o.probe
	}

	chOpts := []delivery.Option{delivery.WithLogger(l.logger)}
	if o.queueSize > 0 {
		chOpts = append(chOpts, delivery.WithQueueSize(o.queueSize))
	}
	if o.tracer != nil {
		chOpts = append(chOpts, delivery.WithTracerProvider(o.tracer))
	}

	l.host = h
	l.channel = delivery.New(loop, &l.shutdown, chOpts...)
	l.observer = observer.New(h, &l.shutdown, l.channel, observer.WithLogger(l.logger))
	l.observer.BindPrologue()
	l.state.Store(int32(StateInitialized))
	l.logger.Debug("gc observation initialized",
		logging.Int("heap_spaces", h.NumHeapSpaces()))
	return nil
}

// EmitGCEvents registers the GC consumer and starts reporting collections.
//
// callback must be a Consumer or one of the function shapes accepted by
// delivery.AsConsumer; otherwise EmitGCEvents returns an
// apperrors.ArgumentError with the message
// "Expecting a function to be called after GC events." and installs nothing.
// ctx supplies the execution context consumers run in; its cancellation is
// ignored. Only one registration is allowed per Lifecycle.
func (l *Lifecycle) EmitGCEvents(ctx context.Context, callback any) error {
	consumer, err := delivery.AsConsumer(callback)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.State() {
	case StateInitialized:
	case StateUninitialized:
		return apperrors.StateError{Op: "EmitGCEvents", Cause: apperrors.ErrNotInitialized}
	case StateObserving:
		return apperrors.StateError{Op: "EmitGCEvents", Cause: apperrors.ErrAlreadyRegistered}
	default:
		return apperrors.StateError{Op: "EmitGCEvents", Cause: apperrors.ErrShutdown}
	}

	if !l.channel.Register(delivery.NewRegistration(ctx, consumer)) {
		return apperrors.StateError{Op: "EmitGCEvents", Cause: apperrors.ErrAlreadyRegistered}
	}
	l.observer.BindEpilogue()
	l.state.Store(int32(StateObserving))
	l.logger.Debug("gc consumer registered")
	return nil
}

// GetCurMaxFd reports open descriptors and the soft descriptor limit. It does
// not depend on the lifecycle state.
func (l *Lifecycle) GetCurMaxFd() fdprobe.Pressure {
	return l.probe.Pressure()
}

// Shutdown stops observation. The shutdown flag is published before any hook
// is removed or buffer released, so hooks and drains racing with Shutdown see
// it and drop their work. Called on the loop goroutine, or after the loop has
// stopped, no consumer call starts once it returns. Shutdown is idempotent.
func (l *Lifecycle) Shutdown() {
	l.shutdown.set()

	l.mu.Lock()
	defer l.mu.Unlock()
	prev := State(l.state.Swap(int32(StateTornDown)))
	if prev == StateTornDown || prev == StateUninitialized {
		return
	}
	l.observer.Unbind()
	l.observer.Release()
	l.channel.Clear()
	l.logger.Debug("gc observation shut down", logging.String("from", prev.String()))
}

// Stats returns the pipeline counters; zero before Init.
func (l *Lifecycle) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	var s Stats
	if l.observer != nil {
		s.Observer = l.observer.Stats()
	}
	if l.channel != nil {
		s.Delivery = l.channel.Stats()
		s.Queued = l.channel.Queued()
	}
	if cc, ok := l.host.(host.CycleCounter); ok {
		s.MissedCycles = cc.MissedCycles()
	}
	return s
}
