package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/agbru/spectator/internal/fdprobe"
	"github.com/agbru/spectator/internal/format"
	"github.com/agbru/spectator/internal/metrics"
	"github.com/agbru/spectator/internal/ui"
)

// Summary is printed when a run ends.
type Summary struct {
	Duration         time.Duration
	Tally            TallySnapshot
	MissedCycles     uint64
	Discarded        uint64
	ConsumerFailures uint64
	CaptureFailures  uint64
	RuntimeBefore    metrics.MemorySnapshot
	RuntimeAfter     metrics.MemorySnapshot
	FD               fdprobe.Pressure
}

// DisplaySummary writes s to out.
func DisplaySummary(s Summary, out io.Writer) {
	t := ui.GetCurrentTheme()
	fmt.Fprintf(out, "\n%s--- GC Summary ---%s\n", t.Bold, t.Reset)
	fmt.Fprintf(out, "  Run time:          %s\n", format.FormatExecutionDuration(s.Duration))
	fmt.Fprintf(out, "  Events delivered:  %d\n", s.Tally.Total)

	kinds := make([]string, 0, len(s.Tally.ByType))
	for k := range s.Tally.ByType {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(out, "    %-22s %d\n", ui.Colorize(ui.KindColor(k), k), s.Tally.ByType[k])
	}

	if s.Tally.Total > 0 {
		mean := s.Tally.SumElapsed / float64(s.Tally.Total)
		fmt.Fprintf(out, "  Mean GC time:      %s\n", format.FormatSeconds(mean))
		fmt.Fprintf(out, "  Max GC time:       %s\n", format.FormatSeconds(s.Tally.MaxElapsed))
	}
	fmt.Fprintf(out, "  Runtime cycles:    %d\n", s.RuntimeAfter.CyclesSince(s.RuntimeBefore))
	if s.MissedCycles > 0 {
		fmt.Fprintf(out, "  Folded cycles:     %d\n", s.MissedCycles)
	}
	fmt.Fprintf(out, "  GC pause total:    %s\n", format.FormatExecutionDuration(s.RuntimeAfter.PauseTotal-s.RuntimeBefore.PauseTotal))
	fmt.Fprintf(out, "  Heap in use:       %s\n", format.FormatBytes(s.RuntimeAfter.HeapAlloc))

	if s.Discarded+s.ConsumerFailures+s.CaptureFailures > 0 {
		fmt.Fprintf(out, "  %sDiscarded %d, consumer failures %d, capture failures %d%s\n",
			t.Warning, s.Discarded, s.ConsumerFailures, s.CaptureFailures, t.Reset)
	}
	fmt.Fprintf(out, "  File descriptors:  %s\n", FormatFD(s.FD))
}
