package tui

import (
	"strings"
	"testing"
)

func TestChartModel_AddEvent(t *testing.T) {
	chart := NewChartModel()
	chart.SetSize(60, 12)

	chart.AddEvent(sampleRecord("scavenge", 3<<20, 1<<20))
	chart.AddEvent(sampleRecord("scavenge", 3<<20, 2<<20))

	if got := chart.heapHistory.Latest(); got != 50 {
		t.Errorf("last heap percent = %f, want 50", got)
	}
	if got := chart.pauseHistory.Len(); got != 2 {
		t.Errorf("pause samples = %d, want 2", got)
	}
}

func TestChartModel_Reset(t *testing.T) {
	chart := NewChartModel()
	chart.AddEvent(sampleRecord("scavenge", 2, 1))
	chart.UpdateSysStats(25.0, 60.0)

	chart.Reset()

	for name, rb := range map[string]*Series{
		"heap": chart.heapHistory, "pause": chart.pauseHistory,
		"cpu": chart.cpuHistory, "mem": chart.memHistory,
	} {
		if rb.Len() != 0 {
			t.Errorf("%s history not empty after reset", name)
		}
	}
}

func TestChartModel_View(t *testing.T) {
	chart := NewChartModel()
	chart.SetSize(60, 12)

	if !strings.Contains(chart.View(), "waiting for GC events") {
		t.Error("expected placeholder before the first event")
	}

	chart.AddEvent(sampleRecord("markSweepCompact", 3<<20, 1<<20))
	chart.UpdateSysStats(12.5, 40)
	view := chart.View()
	for _, want := range []string{"Heap used after GC: 25.0%", "GC", "CPU", "12.5%", "MEM", "40.0%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestHeapPercent_ZeroTotal(t *testing.T) {
	rec := sampleRecord("scavenge", 1, 1)
	rec.After.TotalHeapSize = 0
	if got := heapPercent(rec); got != 0 {
		t.Errorf("heapPercent with zero total = %f, want 0", got)
	}
}

func TestNormalize(t *testing.T) {
	got := normalize([]float64{1, 2, 4})
	want := []float64{25, 50, 100}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("normalize()[%d] = %f, want %f", i, got[i], want[i])
		}
	}
	for _, v := range normalize([]float64{0, 0}) {
		if v != 0 {
			t.Errorf("normalize of zeros = %v", v)
		}
	}
}
