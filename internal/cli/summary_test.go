package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/agbru/spectator/internal/fdprobe"
	"github.com/agbru/spectator/internal/metrics"
	"github.com/agbru/spectator/internal/ui"
)

func TestDisplaySummary(t *testing.T) {
	orig := ui.GetCurrentTheme()
	t.Cleanup(func() { ui.SetCurrentTheme(orig) })
	ui.SetCurrentTheme(ui.NoColorTheme)

	limit := uint64(1024)
	s := Summary{
		Duration: 1500 * time.Millisecond,
		Tally: TallySnapshot{
			ByType:     map[string]uint64{"scavenge": 3, "markSweepCompact": 1},
			Total:      4,
			SumElapsed: 0.008,
			MaxElapsed: 0.004,
		},
		RuntimeBefore: metrics.MemorySnapshot{NumGC: 10},
		RuntimeAfter:  metrics.MemorySnapshot{NumGC: 14, HeapAlloc: 1 << 20},
		FD:            fdprobe.Pressure{Used: 9, Max: &limit},
	}

	var buf bytes.Buffer
	DisplaySummary(s, &buf)
	out := buf.String()

	for _, want := range []string{
		"GC Summary", "1.5s", "Events delivered:  4",
		"markSweepCompact", "scavenge", "Mean GC time:      2ms", "Max GC time:       4ms",
		"Runtime cycles:    4", "1.0 MB", "9/1024",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	for _, nw := range []string{"Discarded", "Folded"} {
		if strings.Contains(out, nw) {
			t.Errorf("summary reports %q with nothing to report", nw)
		}
	}
	if strings.Index(out, "markSweepCompact") > strings.Index(out, "scavenge") {
		t.Error("kinds should be sorted")
	}

	buf.Reset()
	s.Discarded = 2
	s.MissedCycles = 5
	DisplaySummary(s, &buf)
	for _, want := range []string{"Discarded 2", "Folded cycles:     5"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, buf.String())
		}
	}
}
