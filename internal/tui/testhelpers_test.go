package tui

import (
	"time"

	"github.com/agbru/spectator/internal/gcevent"
	"github.com/agbru/spectator/internal/heap"
)

func sampleRecord(kind string, before, after uint64) gcevent.Record {
	return gcevent.Record{
		Type:    kind,
		Elapsed: 0.0025,
		Before:  heap.Record{UsedHeapSize: before, TotalHeapSize: 4 * 1024 * 1024},
		After: heap.Record{
			UsedHeapSize:  after,
			TotalHeapSize: 4 * 1024 * 1024,
			HeapSpaceStats: []heap.SpaceRecord{
				{SpaceName: "heap", SpaceSize: 4 << 20, SpaceUsedSize: after},
				{SpaceName: "stacks", SpaceSize: 1 << 20, SpaceUsedSize: 64 << 10},
			},
		},
	}
}

func sampleEvent(kind string) GCEventMsg {
	return GCEventMsg{
		Record: sampleRecord(kind, 3*1024*1024, 1024*1024),
		At:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
