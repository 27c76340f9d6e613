// Package spectator reports garbage-collection events and file-descriptor
// pressure of a managed-heap host to an in-process consumer.
//
// A Lifecycle hooks the host's GC prologue and epilogue, snapshots heap
// statistics around every collection and delivers one Record per collection
// on the application event loop. The process-wide instance is reached through
// the package-level functions; separate Lifecycle values exist for tests.
//
//	loop := eventloop.New(0)
//	go loop.Run(ctx)
//	if err := spectator.Init(goruntime.New(), loop); err != nil { ... }
//	defer spectator.Shutdown()
//	err := spectator.EmitGCEvents(ctx, func(r spectator.Record) { ... })
package spectator

import (
	"context"

	"github.com/agbru/spectator/internal/delivery"
	"github.com/agbru/spectator/internal/eventloop"
	"github.com/agbru/spectator/internal/fdprobe"
	"github.com/agbru/spectator/internal/gcevent"
	"github.com/agbru/spectator/internal/heap"
	"github.com/agbru/spectator/internal/host"
)

type (
	// Record is the value passed to GC consumers.
	Record = gcevent.Record
	// HeapRecord is the serialized heap snapshot inside a Record.
	HeapRecord = heap.Record
	// SpaceRecord is one entry of HeapRecord.HeapSpaceStats.
	SpaceRecord = heap.SpaceRecord
	// FdRecord is the result of GetCurMaxFd.
	FdRecord = fdprobe.Pressure
	// Consumer receives GC records.
	Consumer = delivery.Consumer
	// ConsumerFunc adapts a function to Consumer.
	ConsumerFunc = delivery.ConsumerFunc
)

var defaultLifecycle = New()

// Default returns the process-wide Lifecycle.
func Default() *Lifecycle { return defaultLifecycle }

// Init initializes the process-wide Lifecycle. See Lifecycle.Init.
func Init(h host.Host, loop *eventloop.Loop, opts ...Option) error {
	return defaultLifecycle.Init(h, loop, opts...)
}

// EmitGCEvents registers the process-wide GC consumer. See
// Lifecycle.EmitGCEvents.
func EmitGCEvents(ctx context.Context, callback any) error {
	return defaultLifecycle.EmitGCEvents(ctx, callback)
}

// GetCurMaxFd reports open descriptors and the soft descriptor limit.
func GetCurMaxFd() FdRecord {
	return defaultLifecycle.GetCurMaxFd()
}

// Shutdown tears down the process-wide Lifecycle.
func Shutdown() {
	defaultLifecycle.Shutdown()
}
