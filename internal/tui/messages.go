package tui

import (
	"time"

	"github.com/agbru/spectator/internal/fdprobe"
	"github.com/agbru/spectator/internal/gcevent"
	"github.com/agbru/spectator/internal/metrics"
)

// GCEventMsg carries one delivered GC record.
type GCEventMsg struct {
	Record gcevent.Record
	At     time.Time
}

// TickMsg drives periodic sampling.
type TickMsg time.Time

// MemStatsMsg carries a runtime memory sample.
type MemStatsMsg struct {
	Snapshot     metrics.MemorySnapshot
	NumGoroutine int
}

// SysStatsMsg carries system-wide CPU and memory usage in percent.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}

// PipelineMsg carries the pipeline counters and the fd pressure.
type PipelineMsg struct {
	Stats metrics.PipelineStats
	FD    fdprobe.Pressure
}

// ForcedGCMsg reports the completion of a collection requested from the
// keyboard.
type ForcedGCMsg struct {
	Err error
}

// ContextCancelledMsg is sent when the run context ends.
type ContextCancelledMsg struct {
	Err error
}
