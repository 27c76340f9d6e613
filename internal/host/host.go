// Package host defines the managed-heap host the GC pipeline observes: its
// collection kinds, its GC hook registration and the heap statistics it
// exposes.
//
// Hooks run on the host's GC goroutine. Hosts guarantee that a prologue and its
// epilogue are strictly paired on one goroutine and that no two collections
// overlap; observers rely on this to share a single "before" buffer.
package host

import (
	"sync"
	"sync/atomic"

	"github.com/agbru/spectator/internal/heap"
)

// Kind identifies the type of a garbage-collection cycle.
type Kind uint8

// Collection kinds. The values are bit flags so hosts can report them the way
// generational collectors usually do; anything else is unknown.
const (
	KindUnknown              Kind = 0
	KindScavenge             Kind = 1 << 0
	KindMarkSweepCompact     Kind = 1 << 1
	KindIncrementalMarking   Kind = 1 << 2
	KindProcessWeakCallbacks Kind = 1 << 3
)

// String returns the wire name of k. Unrecognized values map to "unknown".
func (k Kind) String() string {
	switch k {
	case KindScavenge:
		return "scavenge"
	case KindMarkSweepCompact:
		return "markSweepCompact"
	case KindIncrementalMarking:
		return "incrementalMarking"
	case KindProcessWeakCallbacks:
		return "processWeakCallbacks"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String for the four known kinds.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindScavenge, KindMarkSweepCompact, KindIncrementalMarking, KindProcessWeakCallbacks} {
		if k.String() == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// Hook is a GC lifecycle callback. It runs on the GC goroutine and must not
// block or allocate beyond pre-sized native buffers.
type Hook func(Kind)

// Host is a managed-heap runtime whose collections can be observed.
type Host interface {
	heap.Reader
	// AddGCPrologueHook registers h to run right before each collection and
	// returns a function that unregisters it.
	AddGCPrologueHook(h Hook) (remove func())
	// AddGCEpilogueHook registers h to run right after each collection and
	// returns a function that unregisters it.
	AddGCEpilogueHook(h Hook) (remove func())
}

// Collector is implemented by hosts that can be asked to run a collection.
type Collector interface {
	Collect(kind Kind)
}

// CycleCounter is implemented by hosts that notice collections after the
// fact and may report several of them with one hook pair.
type CycleCounter interface {
	// MissedCycles returns how many collections were folded into another
	// report instead of getting their own hook pair.
	MissedCycles() uint64
}

// HookSet is a copy-on-write list of hooks. Registration takes a mutex, firing
// reads an immutable slice without locking so it is safe on the GC goroutine.
type HookSet struct {
	mu     sync.Mutex
	nextID uint64
	hooks  atomic.Pointer[[]hookEntry]
}

type hookEntry struct {
	id uint64
	fn Hook
}

// Add registers fn and returns its remover. Calling the remover more than once
// is harmless.
func (s *HookSet) Add(fn Hook) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	var old []hookEntry
	if p := s.hooks.Load(); p != nil {
		old = *p
	}
	next := make([]hookEntry, len(old), len(old)+1)
	copy(next, old)
	next = append(next, hookEntry{id: id, fn: fn})
	s.hooks.Store(&next)
	return func() { s.remove(id) }
}

func (s *HookSet) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.hooks.Load()
	if p == nil {
		return
	}
	next := make([]hookEntry, 0, len(*p))
	for _, e := range *p {
		if e.id != id {
			next = append(next, e)
		}
	}
	s.hooks.Store(&next)
}

// Fire runs every registered hook in registration order.
func (s *HookSet) Fire(kind Kind) {
	p := s.hooks.Load()
	if p == nil {
		return
	}
	for _, e := range *p {
		e.fn(kind)
	}
}

// Len returns the number of registered hooks.
func (s *HookSet) Len() int {
	if p := s.hooks.Load(); p != nil {
		return len(*p)
	}
	return 0
}
