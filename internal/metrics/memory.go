package metrics

import (
	"runtime"
	"time"
)

// MemorySnapshot holds a point-in-time reading of runtime.MemStats, used to
// cross-check the collections the pipeline observed against the runtime's
// own cycle count.
type MemorySnapshot struct {
	HeapAlloc    uint64        // bytes in use by application
	HeapSys      uint64        // bytes obtained from OS for heap
	Sys          uint64        // total bytes obtained from OS
	NumGC        uint32        // completed GC cycles
	NumForcedGC  uint32        // cycles forced by runtime.GC
	PauseTotal   time.Duration // cumulative stop-the-world pause
	LastPause    time.Duration // most recent pause
	HeapObjects  uint64        // allocated heap objects
	NextGCTarget uint64        // heap size goal of the next cycle
}

// MemoryCollector reads runtime memory statistics.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics. It stops the world briefly, so
// call it from the presentation side, never from a GC hook.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s := MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		HeapSys:      m.HeapSys,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		NumForcedGC:  m.NumForcedGC,
		PauseTotal:   time.Duration(m.PauseTotalNs),
		HeapObjects:  m.HeapObjects,
		NextGCTarget: m.NextGC,
	}
	if m.NumGC > 0 {
		s.LastPause = time.Duration(m.PauseNs[(m.NumGC+255)%256])
	}
	return s
}

// CyclesSince returns the number of GC cycles completed between two
// snapshots.
func (s MemorySnapshot) CyclesSince(earlier MemorySnapshot) uint32 {
	if s.NumGC < earlier.NumGC {
		return 0
	}
	return s.NumGC - earlier.NumGC
}
