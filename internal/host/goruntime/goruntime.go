// Package goruntime adapts the Go runtime itself to host.Host.
//
// Heap spaces are derived from runtime/metrics memory classes. Collections
// requested through Collect fire a real prologue and epilogue around
// runtime.GC (markSweepCompact) or debug.FreeOSMemory (scavenge). Cycles the
// runtime starts on its own are noticed after the fact through a finalizer
// sentinel; the runtime exposes no pre-cycle hook, so for those cycles the
// prologue fires at detection time and they are reported as
// incrementalMarking.
package goruntime

import (
	"math"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agbru/spectator/internal/heap"
	"github.com/agbru/spectator/internal/host"
	"github.com/agbru/spectator/internal/logging"
)

// Sample indices into Host.samples.
const (
	mHeapObjects = iota
	mHeapUnused
	mHeapFree
	mHeapReleased
	mHeapStacks
	mOSStacks
	mMCacheFree
	mMCacheInuse
	mMSpanFree
	mMSpanInuse
	mMetaOther
	mProfBuckets
	mOther
	mTotal
	mMemLimit
	mCycles
	numSamples
)

var sampleNames = [numSamples]string{
	mHeapObjects:  "/memory/classes/heap/objects:bytes",
	mHeapUnused:   "/memory/classes/heap/unused:bytes",
	mHeapFree:     "/memory/classes/heap/free:bytes",
	mHeapReleased: "/memory/classes/heap/released:bytes",
	mHeapStacks:   "/memory/classes/heap/stacks:bytes",
	mOSStacks:     "/memory/classes/os-stacks:bytes",
	mMCacheFree:   "/memory/classes/metadata/mcache/free:bytes",
	mMCacheInuse:  "/memory/classes/metadata/mcache/inuse:bytes",
	mMSpanFree:    "/memory/classes/metadata/mspan/free:bytes",
	mMSpanInuse:   "/memory/classes/metadata/mspan/inuse:bytes",
	mMetaOther:    "/memory/classes/metadata/other:bytes",
	mProfBuckets:  "/memory/classes/profiling/buckets:bytes",
	mOther:        "/memory/classes/other:bytes",
	mTotal:        "/memory/classes/total:bytes",
	mMemLimit:     "/gc/gomemlimit:bytes",
	mCycles:       "/gc/cycles/total:gc-cycles",
}

// spaceDef describes one synthetic heap space as sums of memory classes.
type spaceDef struct {
	name      string
	size      []int
	used      []int
	available []int
	physical  []int
}

var spaceDefs = []spaceDef{
	{
		name:      "heap_space",
		size:      []int{mHeapObjects, mHeapUnused, mHeapFree, mHeapReleased},
		used:      []int{mHeapObjects},
		available: []int{mHeapFree, mHeapReleased},
		physical:  []int{mHeapObjects, mHeapUnused, mHeapFree},
	},
	{
		name:     "stack_space",
		size:     []int{mHeapStacks, mOSStacks},
		used:     []int{mHeapStacks, mOSStacks},
		physical: []int{mHeapStacks, mOSStacks},
	},
	{
		name:      "metadata_space",
		size:      []int{mMCacheFree, mMCacheInuse, mMSpanFree, mMSpanInuse, mMetaOther},
		used:      []int{mMCacheInuse, mMSpanInuse, mMetaOther},
		available: []int{mMCacheFree, mMSpanFree},
		physical:  []int{mMCacheFree, mMCacheInuse, mMSpanFree, mMSpanInuse, mMetaOther},
	},
	{
		name:     "profiling_space",
		size:     []int{mProfBuckets},
		used:     []int{mProfBuckets},
		physical: []int{mProfBuckets},
	},
	{
		name:     "other_space",
		size:     []int{mOther},
		used:     []int{mOther},
		physical: []int{mOther},
	},
}

// Host observes the Go runtime's own garbage collector.
type Host struct {
	prologue host.HookSet
	epilogue host.HookSet
	logger   logging.Logger
	anchor   time.Time

	// gcMu serializes hook firing so prologue/epilogue pairs never interleave.
	gcMu     sync.Mutex
	reported uint64 // GC cycle count already covered by fired hooks; guarded by gcMu
	missed   atomic.Uint64

	mu      sync.Mutex
	samples []metrics.Sample
	stats   heap.Stats
	spaces  []heap.SpaceStats
	valid   []bool

	cycleCh chan struct{}
	stopCh  chan struct{}
	running atomic.Bool
	stopped atomic.Bool
	wg      sync.WaitGroup
}

var (
	_ host.Host         = (*Host)(nil)
	_ host.Collector    = (*Host)(nil)
	_ host.CycleCounter = (*Host)(nil)
)

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger used for watcher diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(h *Host) { h.logger = logging.OrNop(l) }
}

// New returns a Go runtime host. Call Start to begin detecting cycles the
// runtime triggers on its own.
func New(opts ...Option) *Host {
	h := &Host{
		logger:  logging.Nop(),
		anchor:  time.Now(),
		samples: make([]metrics.Sample, numSamples),
		spaces:  make([]heap.SpaceStats, len(spaceDefs)),
		valid:   make([]bool, len(spaceDefs)),
		cycleCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
	for i, name := range sampleNames {
		h.samples[i].Name = name
	}
	for i, d := range spaceDefs {
		h.spaces[i].Name = d.name
	}
	for _, opt := range opts {
		opt(h)
	}
	h.reported = h.readCycles()
	return h
}

// NumHeapSpaces implements heap.Reader.
func (h *Host) NumHeapSpaces() int { return len(spaceDefs) }

// HeapFeatures implements heap.Reader. The Go runtime has neither a separate
// malloc arena counter nor native contexts.
func (h *Host) HeapFeatures() heap.Features { return heap.Features{} }

// HRTime implements heap.Reader using the monotonic clock.
func (h *Host) HRTime() uint64 { return uint64(time.Since(h.anchor)) + 1 }

// ReadHeapStatistics implements heap.Reader. It refreshes every runtime sample
// and caches the per-space values that ReadHeapSpaceStatistics returns.
func (h *Host) ReadHeapStatistics(s *heap.Stats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	metrics.Read(h.samples)

	v := h.value
	total := v(mTotal)
	released := v(mHeapReleased)
	st := heap.Stats{
		TotalHeapSize:     v(mHeapObjects) + v(mHeapUnused) + v(mHeapFree) + released,
		TotalPhysicalSize: sub(total, released),
		UsedHeapSize:      v(mHeapObjects),
		HeapSizeLimit:     v(mMemLimit),
	}
	if st.HeapSizeLimit == 0 {
		st.HeapSizeLimit = math.MaxInt64
	}
	st.TotalAvailableSize = sub(st.HeapSizeLimit, st.TotalPhysicalSize)
	h.stats = st
	*s = st

	for i, d := range spaceDefs {
		sp := &h.spaces[i]
		sp.Size, h.valid[i] = h.sum(d.size)
		used, okUsed := h.sum(d.used)
		avail, okAvail := h.sum(d.available)
		phys, okPhys := h.sum(d.physical)
		sp.UsedSize, sp.AvailableSize, sp.PhysicalSize = used, avail, phys
		h.valid[i] = h.valid[i] && okUsed && okAvail && okPhys
	}
}

// ReadHeapSpaceStatistics implements heap.Reader. It reports the values cached
// by the preceding ReadHeapStatistics and fails for spaces built from a metric
// this Go version does not support.
func (h *Host) ReadHeapSpaceStatistics(s *heap.SpaceStats, index int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index < 0 || index >= len(h.spaces) {
		return false
	}
	*s = h.spaces[index]
	return h.valid[index]
}

func (h *Host) value(i int) uint64 {
	if h.samples[i].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return h.samples[i].Value.Uint64()
}

func (h *Host) sum(idx []int) (uint64, bool) {
	var total uint64
	for _, i := range idx {
		if h.samples[i].Value.Kind() != metrics.KindUint64 {
			return total, false
		}
		total += h.samples[i].Value.Uint64()
	}
	return total, true
}

func (h *Host) readCycles() uint64 {
	s := []metrics.Sample{{Name: sampleNames[mCycles]}}
	metrics.Read(s)
	if s[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return s[0].Value.Uint64()
}

func sub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

// AddGCPrologueHook implements host.Host.
func (h *Host) AddGCPrologueHook(fn host.Hook) func() { return h.prologue.Add(fn) }

// AddGCEpilogueHook implements host.Host.
func (h *Host) AddGCEpilogueHook(fn host.Hook) func() { return h.epilogue.Add(fn) }

// Collect forces a collection of the given kind with hooks around it.
// KindScavenge also returns freed memory to the operating system.
func (h *Host) Collect(kind host.Kind) {
	h.gcMu.Lock()
	defer h.gcMu.Unlock()

	h.prologue.Fire(kind)
	if kind == host.KindScavenge {
		debug.FreeOSMemory()
	} else {
		runtime.GC()
	}
	h.advance(h.readCycles())
	h.epilogue.Fire(kind)
}

// advance marks cycles as covered by one hook pair and counts any other
// cycles since the last report as missed. Callers hold gcMu.
func (h *Host) advance(cycles uint64) uint64 {
	var missed uint64
	if cycles > h.reported+1 {
		missed = cycles - h.reported - 1
		h.missed.Add(missed)
	}
	h.reported = cycles
	return missed
}

// MissedCycles implements host.CycleCounter.
func (h *Host) MissedCycles() uint64 { return h.missed.Load() }
