package goruntime

import (
	"runtime"

	"github.com/agbru/spectator/internal/host"
	"github.com/agbru/spectator/internal/logging"
)

// sentinel is an unreachable object whose finalizer runs once per GC cycle.
// The pointer field keeps it out of the tiny allocator, which would delay
// finalization indefinitely.
type sentinel struct {
	h   *Host
	pad [16]byte
}

// Start arms the cycle sentinel and launches the watcher goroutine that fires
// hooks for runtime-initiated cycles. It is a no-op if already started.
func (h *Host) Start() {
	if !h.running.CompareAndSwap(false, true) {
		return
	}
	h.wg.Add(1)
	go h.watch()
	h.arm()
}

// Stop halts cycle detection and waits for the watcher to exit. Hooks are not
// fired after Stop returns.
func (h *Host) Stop() {
	if !h.stopped.CompareAndSwap(false, true) {
		return
	}
	close(h.stopCh)
	h.wg.Wait()
}

func (h *Host) arm() {
	s := &sentinel{h: h}
	runtime.SetFinalizer(s, finalizeSentinel)
}

// finalizeSentinel runs on the runtime's finalizer goroutine and must return
// quickly: it only signals the watcher and re-arms.
func finalizeSentinel(s *sentinel) {
	h := s.h
	if h.stopped.Load() {
		return
	}
	select {
	case h.cycleCh <- struct{}{}:
	default:
	}
	h.arm()
}

func (h *Host) watch() {
	defer h.wg.Done()
	for {
		select {
		case <-h.stopCh:
			return
		case <-h.cycleCh:
			h.detect()
		}
	}
}

// detect fires a hook pair if the runtime completed cycles that no forced
// collection already reported. Several cycles finishing between two wakeups
// are reported once and the rest are counted in MissedCycles.
func (h *Host) detect() {
	h.gcMu.Lock()
	defer h.gcMu.Unlock()
	if h.stopped.Load() {
		return
	}
	cycles := h.readCycles()
	if cycles <= h.reported {
		return
	}
	if missed := h.advance(cycles); missed > 0 {
		h.logger.Debug("runtime gc cycles folded",
			logging.Uint64("cycles", cycles),
			logging.Uint64("missed", missed))
	}
	h.prologue.Fire(host.KindIncrementalMarking)
	h.epilogue.Fire(host.KindIncrementalMarking)
}
