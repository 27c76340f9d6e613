// Package gcevent pairs the heap snapshots taken around one collection.
package gcevent

import (
	"github.com/agbru/spectator/internal/heap"
	"github.com/agbru/spectator/internal/host"
)

// Event is one observed collection: its kind plus owned copies of the
// snapshots taken at prologue and epilogue.
type Event struct {
	Kind   host.Kind
	Before *heap.Snapshot
	After  *heap.Snapshot
}

// New builds an event from the shared "before" buffer. pre is copied, so the
// buffer can be overwritten by the next prologue. The "after" snapshot is
// captured from r immediately; if the capture is skipped because shutdown
// began it stays zeroed. Runs on the GC goroutine.
func New(kind host.Kind, pre *heap.Snapshot, r heap.Reader, opts ...heap.Option) *Event {
	ev := &Event{
		Kind:   kind,
		Before: pre.Clone(),
		After:  heap.NewSnapshot(r, opts...),
	}
	ev.After.Capture()
	return ev
}

// Elapsed returns the wall time between the two captures in seconds. It is
// never negative and is zero when either snapshot is empty.
func (e *Event) Elapsed() float64 {
	return ElapsedSeconds(e.Before.Timestamp(), e.After.Timestamp())
}

// ElapsedSeconds converts a pair of nanosecond timestamps into seconds,
// clamping clock skew to zero.
func ElapsedSeconds(before, after uint64) float64 {
	if before == 0 || after == 0 || after < before {
		return 0
	}
	return float64(after-before) / 1e9
}

// Record is the structured value handed to GC consumers.
type Record struct {
	Type    string      `json:"type"`
	Elapsed float64     `json:"elapsed"`
	Before  heap.Record `json:"before"`
	After   heap.Record `json:"after"`
}

// Record serializes the event. Call it on the application goroutine only.
func (e *Event) Record() Record {
	return Record{
		Type:    e.Kind.String(),
		Elapsed: e.Elapsed(),
		Before:  e.Before.Record(),
		After:   e.After.Record(),
	}
}
