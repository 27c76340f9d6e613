package observer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/agbru/spectator/internal/gcevent"
	"github.com/agbru/spectator/internal/heap"
	"github.com/agbru/spectator/internal/host"
	"github.com/agbru/spectator/internal/host/hosttest"
)

type flagGate struct{ closed atomic.Bool }

func (g *flagGate) ShuttingDown() bool { return g.closed.Load() }

type captureScheduler struct {
	events     []*gcevent.Event
	unattached bool
}

func (s *captureScheduler) Schedule(ev *gcevent.Event) {
	s.events = append(s.events, ev)
}

func (s *captureScheduler) Registered() bool { return !s.unattached }

func newBound(t *testing.T, opts ...hosttest.Option) (*hosttest.Host, *flagGate, *captureScheduler, *Observer) {
	t.Helper()
	h := hosttest.New(opts...)
	gate := &flagGate{}
	sched := &captureScheduler{}
	o := New(h, gate, sched)
	o.BindPrologue()
	o.BindEpilogue()
	return h, gate, sched, o
}

func TestObserver_CollectProducesEvent(t *testing.T) {
	t.Parallel()
	h, _, sched, o := newBound(t,
		hosttest.WithGCDuration(3*time.Millisecond),
		hosttest.WithMutator(func(_ host.Kind, st *heap.Stats, spaces []heap.SpaceStats) {
			st.UsedHeapSize = 100
			spaces[0].UsedSize = 7
		}),
	)
	h.SetStats(heap.Stats{UsedHeapSize: 500})

	h.Collect(host.KindMarkSweepCompact)

	if len(sched.events) != 1 {
		t.Fatalf("scheduled %d events, want 1", len(sched.events))
	}
	rec := sched.events[0].Record()
	if rec.Type != "markSweepCompact" {
		t.Errorf("Type = %q", rec.Type)
	}
	if rec.Before.UsedHeapSize != 500 || rec.After.UsedHeapSize != 100 {
		t.Errorf("used heap before/after = %d/%d, want 500/100", rec.Before.UsedHeapSize, rec.After.UsedHeapSize)
	}
	if rec.After.HeapSpaceStats[0].SpaceUsedSize != 7 {
		t.Errorf("after space 0 used = %d, want 7", rec.After.HeapSpaceStats[0].SpaceUsedSize)
	}
	if rec.Elapsed != 0.003 {
		t.Errorf("Elapsed = %v, want 0.003", rec.Elapsed)
	}
	if st := o.Stats(); st.Prologues != 1 || st.Epilogues != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestObserver_BufferIsReusedButEventsOwnCopies(t *testing.T) {
	t.Parallel()
	var used uint64 = 1000
	h, _, sched, _ := newBound(t, hosttest.WithMutator(func(_ host.Kind, st *heap.Stats, _ []heap.SpaceStats) {
		used -= 100
		st.UsedHeapSize = used
	}))
	h.SetStats(heap.Stats{UsedHeapSize: used})

	h.Collect(host.KindScavenge)
	h.Collect(host.KindScavenge)

	first, second := sched.events[0].Record(), sched.events[1].Record()
	if first.Before.UsedHeapSize != 1000 || first.After.UsedHeapSize != 900 {
		t.Errorf("first event = %d -> %d", first.Before.UsedHeapSize, first.After.UsedHeapSize)
	}
	if second.Before.UsedHeapSize != 900 || second.After.UsedHeapSize != 800 {
		t.Errorf("second event = %d -> %d", second.Before.UsedHeapSize, second.After.UsedHeapSize)
	}
}

func TestObserver_EpilogueWithoutPrologue(t *testing.T) {
	t.Parallel()
	h, _, sched, _ := newBound(t)

	h.FireEpilogue(host.KindIncrementalMarking)

	if len(sched.events) != 1 {
		t.Fatalf("scheduled %d events, want 1", len(sched.events))
	}
	rec := sched.events[0].Record()
	if rec.Elapsed != 0 {
		t.Errorf("Elapsed = %v, want 0 for an empty before snapshot", rec.Elapsed)
	}
	if rec.Before.UsedHeapSize != 0 {
		t.Errorf("Before.UsedHeapSize = %d, want 0", rec.Before.UsedHeapSize)
	}

	// A stray epilogue after a real cycle reuses the previous before values.
	h.Collect(host.KindScavenge)
	h.Advance(time.Millisecond)
	h.FireEpilogue(host.KindScavenge)
	stray := sched.events[2]
	if stray.Before.Timestamp() != sched.events[1].Before.Timestamp() {
		t.Error("stray epilogue did not reuse the previous before snapshot")
	}
}

func TestObserver_SkipsWhenUnattachedOrShuttingDown(t *testing.T) {
	t.Parallel()
	h, gate, sched, o := newBound(t)

	sched.unattached = true
	h.Collect(host.KindScavenge)
	if len(sched.events) != 0 {
		t.Fatal("event built without a registered consumer")
	}

	sched.unattached = false
	gate.closed.Store(true)
	h.Collect(host.KindScavenge)
	if len(sched.events) != 0 {
		t.Fatal("event built while shutting down")
	}
	if st := o.Stats(); st.Prologues != 1 || st.Epilogues != 0 {
		t.Errorf("Stats() = %+v, want one prologue from the unattached cycle", st)
	}
}

func TestObserver_CaptureFailureStillSchedules(t *testing.T) {
	t.Parallel()
	h, _, sched, o := newBound(t)
	h.FailSpace(1, true)

	h.Collect(host.KindScavenge)

	st := o.Stats()
	if st.CaptureFailures != 1 {
		t.Errorf("CaptureFailures = %d, want 1", st.CaptureFailures)
	}
	if st.Epilogues != 1 || len(sched.events) != 1 {
		t.Errorf("Stats() = %+v with %d scheduled, want the event scheduled anyway", st, len(sched.events))
	}
}

func TestObserver_BindIsIdempotentAndUnbindRemoves(t *testing.T) {
	t.Parallel()
	h, _, _, o := newBound(t)
	o.BindPrologue()
	o.BindEpilogue()
	if h.PrologueHooks() != 1 || h.EpilogueHooks() != 1 {
		t.Fatalf("hooks = %d/%d, want 1/1", h.PrologueHooks(), h.EpilogueHooks())
	}
	o.Unbind()
	o.Unbind()
	if h.PrologueHooks() != 0 || h.EpilogueHooks() != 0 {
		t.Errorf("hooks after Unbind = %d/%d", h.PrologueHooks(), h.EpilogueHooks())
	}
}

func TestObserver_ReleaseMakesHooksNoOps(t *testing.T) {
	t.Parallel()
	h, _, sched, o := newBound(t)
	o.Release()
	h.Collect(host.KindScavenge)
	if len(sched.events) != 0 {
		t.Error("event built after Release")
	}
	if o.Stats().Prologues != 0 {
		t.Error("prologue counted after Release")
	}
}
