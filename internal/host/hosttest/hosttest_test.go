package hosttest

import (
	"testing"
	"time"

	"github.com/agbru/spectator/internal/heap"
	"github.com/agbru/spectator/internal/host"
)

func TestCollect_RunsHooksInOrder(t *testing.T) {
	t.Parallel()
	h := New(WithGCDuration(3 * time.Millisecond))
	var seen []string
	var preTS, postTS uint64
	h.AddGCPrologueHook(func(k host.Kind) {
		seen = append(seen, "pre:"+k.String())
		preTS = h.HRTime()
	})
	removeEpi := h.AddGCEpilogueHook(func(k host.Kind) {
		seen = append(seen, "post:"+k.String())
		postTS = h.HRTime()
	})

	h.Collect(host.KindScavenge)
	if len(seen) != 2 || seen[0] != "pre:scavenge" || seen[1] != "post:scavenge" {
		t.Fatalf("hooks fired %v", seen)
	}
	if postTS-preTS != uint64(3*time.Millisecond) {
		t.Errorf("clock advanced %d ns during GC, want 3ms", postTS-preTS)
	}
	if h.Collections() != 1 {
		t.Errorf("Collections() = %d, want 1", h.Collections())
	}

	removeEpi()
	if h.EpilogueHooks() != 0 || h.PrologueHooks() != 1 {
		t.Errorf("hooks after remove: pro=%d epi=%d", h.PrologueHooks(), h.EpilogueHooks())
	}
}

func TestMutatorRunsBetweenHooks(t *testing.T) {
	t.Parallel()
	h := New(WithMutator(func(_ host.Kind, st *heap.Stats, spaces []heap.SpaceStats) {
		st.UsedHeapSize /= 2
		spaces[0].UsedSize = 7
	}))
	h.SetStats(heap.Stats{UsedHeapSize: 100})

	var before, after heap.Stats
	h.AddGCPrologueHook(func(host.Kind) { h.ReadHeapStatistics(&before) })
	h.AddGCEpilogueHook(func(host.Kind) { h.ReadHeapStatistics(&after) })
	h.Collect(host.KindMarkSweepCompact)

	if before.UsedHeapSize != 100 || after.UsedHeapSize != 50 {
		t.Errorf("before/after = %d/%d, want 100/50", before.UsedHeapSize, after.UsedHeapSize)
	}
	var sp heap.SpaceStats
	h.ReadHeapSpaceStatistics(&sp, 0)
	if sp.UsedSize != 7 || sp.Name != DefaultSpaces[0] {
		t.Errorf("space 0 = %+v", sp)
	}
}

func TestFailSpaceAndBounds(t *testing.T) {
	t.Parallel()
	h := New(WithSpaces("a", "b"))
	var sp heap.SpaceStats
	if !h.ReadHeapSpaceStatistics(&sp, 1) {
		t.Error("read of healthy space failed")
	}
	h.FailSpace(1, true)
	if h.ReadHeapSpaceStatistics(&sp, 1) {
		t.Error("read of failing space succeeded")
	}
	if sp.Name != "b" {
		t.Errorf("failing read should still fill the name, got %q", sp.Name)
	}
	if h.ReadHeapSpaceStatistics(&sp, 5) {
		t.Error("out-of-range read succeeded")
	}
}

func TestStrayEpilogue(t *testing.T) {
	t.Parallel()
	h := New()
	pro, epi := 0, 0
	h.AddGCPrologueHook(func(host.Kind) { pro++ })
	h.AddGCEpilogueHook(func(host.Kind) { epi++ })
	h.FireEpilogue(host.KindScavenge)
	h.FirePrologue(host.KindScavenge)
	if pro != 1 || epi != 1 {
		t.Errorf("pro=%d epi=%d, want 1/1", pro, epi)
	}
	if h.Collections() != 0 {
		t.Error("stray hooks counted as collections")
	}
}

func TestClock(t *testing.T) {
	t.Parallel()
	h := New()
	if h.HRTime() != uint64(time.Second) {
		t.Errorf("initial clock = %d, want 1s", h.HRTime())
	}
	h.SetClock(10)
	h.Advance(5)
	if h.HRTime() != 15 {
		t.Errorf("clock = %d, want 15", h.HRTime())
	}
	if f := h.HeapFeatures(); !f.Malloced || !f.NativeContexts {
		t.Errorf("default features = %+v", f)
	}
}
