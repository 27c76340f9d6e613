// Package hosttest provides a deterministic, scriptable host.Host for tests.
//
// Collect runs the registered hooks synchronously on the calling goroutine,
// which therefore plays the role of the host's GC goroutine. The clock only
// moves when the test moves it.
package hosttest

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/agbru/spectator/internal/heap"
	"github.com/agbru/spectator/internal/host"
)

// DefaultSpaces mirrors the space layout of a generational JavaScript heap.
var DefaultSpaces = []string{
	"new_space",
	"old_space",
	"code_space",
	"map_space",
	"large_object_space",
}

// Host is a simulated managed-heap host.
type Host struct {
	prologue host.HookSet
	epilogue host.HookSet

	gcMu sync.Mutex // one collection at a time

	mu       sync.Mutex
	stats    heap.Stats
	spaces   []heap.SpaceStats
	failing  map[int]bool
	features heap.Features
	mutate   func(kind host.Kind, st *heap.Stats, spaces []heap.SpaceStats)

	clock       atomic.Uint64
	gcDuration  atomic.Int64
	collections atomic.Uint64
	missed      atomic.Uint64
}

var (
	_ host.Host         = (*Host)(nil)
	_ host.Collector    = (*Host)(nil)
	_ host.CycleCounter = (*Host)(nil)
)

// Option configures a Host.
type Option func(*Host)

// WithSpaces replaces the default heap-space names.
func WithSpaces(names ...string) Option {
	return func(h *Host) {
		h.spaces = make([]heap.SpaceStats, len(names))
		for i, n := range names {
			h.spaces[i].Name = n
		}
	}
}

// WithFeatures sets the optional counter families the host reports.
func WithFeatures(f heap.Features) Option {
	return func(h *Host) { h.features = f }
}

// WithGCDuration sets how far the clock advances during each collection.
func WithGCDuration(d time.Duration) Option {
	return func(h *Host) { h.gcDuration.Store(int64(d)) }
}

// WithMutator installs a function that rewrites the heap counters in the middle
// of every collection, between prologue and epilogue.
func WithMutator(fn func(kind host.Kind, st *heap.Stats, spaces []heap.SpaceStats)) Option {
	return func(h *Host) { h.mutate = fn }
}

// New returns a host with DefaultSpaces, every optional counter family, a
// clock starting at one second and 2ms collections.
func New(opts ...Option) *Host {
	h := &Host{failing: make(map[int]bool)}
	WithSpaces(DefaultSpaces...)(h)
	h.features = heap.Features{Malloced: true, NativeContexts: true}
	h.clock.Store(uint64(time.Second))
	h.gcDuration.Store(int64(2 * time.Millisecond))
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NumHeapSpaces implements heap.Reader.
func (h *Host) NumHeapSpaces() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.spaces)
}

// ReadHeapStatistics implements heap.Reader.
func (h *Host) ReadHeapStatistics(s *heap.Stats) {
	h.mu.Lock()
	*s = h.stats
	h.mu.Unlock()
}

// ReadHeapSpaceStatistics implements heap.Reader. Spaces marked with FailSpace
// still fill s but report failure.
func (h *Host) ReadHeapSpaceStatistics(s *heap.SpaceStats, index int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.spaces) {
		return false
	}
	*s = h.spaces[index]
	return !h.failing[index]
}

// HeapFeatures implements heap.Reader.
func (h *Host) HeapFeatures() heap.Features {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.features
}

// HRTime implements heap.Reader.
func (h *Host) HRTime() uint64 { return h.clock.Load() }

// Advance moves the clock forward by d.
func (h *Host) Advance(d time.Duration) { h.clock.Add(uint64(d)) }

// SetClock sets the clock to an absolute value. Going backwards is allowed so
// tests can exercise clock skew.
func (h *Host) SetClock(ns uint64) { h.clock.Store(ns) }

// SetStats replaces the aggregate counters.
func (h *Host) SetStats(st heap.Stats) {
	h.mu.Lock()
	h.stats = st
	h.mu.Unlock()
}

// SetSpace replaces the counters of space i, keeping its name.
func (h *Host) SetSpace(i int, sp heap.SpaceStats) {
	h.mu.Lock()
	sp.Name = h.spaces[i].Name
	h.spaces[i] = sp
	h.mu.Unlock()
}

// FailSpace makes reads of space i report failure.
func (h *Host) FailSpace(i int, fail bool) {
	h.mu.Lock()
	h.failing[i] = fail
	h.mu.Unlock()
}

// AddGCPrologueHook implements host.Host.
func (h *Host) AddGCPrologueHook(fn host.Hook) func() { return h.prologue.Add(fn) }

// AddGCEpilogueHook implements host.Host.
func (h *Host) AddGCEpilogueHook(fn host.Hook) func() { return h.epilogue.Add(fn) }

// PrologueHooks returns the number of registered prologue hooks.
func (h *Host) PrologueHooks() int { return h.prologue.Len() }

// EpilogueHooks returns the number of registered epilogue hooks.
func (h *Host) EpilogueHooks() int { return h.epilogue.Len() }

// Collect runs one simulated collection on the calling goroutine: prologue
// hooks, clock advance, mutator, epilogue hooks.
func (h *Host) Collect(kind host.Kind) {
	h.gcMu.Lock()
	defer h.gcMu.Unlock()

	h.prologue.Fire(kind)
	h.Advance(time.Duration(h.gcDuration.Load()))
	if h.mutate != nil {
		h.mu.Lock()
		h.mutate(kind, &h.stats, h.spaces)
		h.mu.Unlock()
	}
	h.collections.Add(1)
	h.epilogue.Fire(kind)
}

// FirePrologue runs only the prologue hooks.
func (h *Host) FirePrologue(kind host.Kind) {
	h.gcMu.Lock()
	defer h.gcMu.Unlock()
	h.prologue.Fire(kind)
}

// FireEpilogue runs only the epilogue hooks, simulating an epilogue with no
// matching prologue.
func (h *Host) FireEpilogue(kind host.Kind) {
	h.gcMu.Lock()
	defer h.gcMu.Unlock()
	h.epilogue.Fire(kind)
}

// Collections returns the number of completed Collect calls.
func (h *Host) Collections() uint64 { return h.collections.Load() }

// CollectFolded runs one collection that stands for n+1 cycles, the way a
// host that detects cycles late reports a burst.
func (h *Host) CollectFolded(kind host.Kind, n uint64) {
	h.missed.Add(n)
	h.Collect(kind)
}

// MissedCycles implements host.CycleCounter.
func (h *Host) MissedCycles() uint64 { return h.missed.Load() }
