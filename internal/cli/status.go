package cli

import (
	"fmt"
	"strings"

	"github.com/agbru/spectator/internal/fdprobe"
	"github.com/agbru/spectator/internal/format"
)

// Status is the live state shown next to the spinner.
type Status struct {
	Events      uint64
	LastType    string
	LastElapsed float64
	HeapUsed    uint64
	Missed      uint64
	Queued      int
	FD          fdprobe.Pressure
}

// FormatStatus renders s as a single line.
func FormatStatus(s Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d gc events", s.Events)
	if s.LastType != "" {
		fmt.Fprintf(&b, " | last %s %s", s.LastType, format.FormatSeconds(s.LastElapsed))
		fmt.Fprintf(&b, " | heap %s", format.FormatBytes(s.HeapUsed))
	}
	if s.Missed > 0 {
		fmt.Fprintf(&b, " | %d folded", s.Missed)
	}
	if s.Queued > 0 {
		fmt.Fprintf(&b, " | %d queued", s.Queued)
	}
	fmt.Fprintf(&b, " | fds %s", FormatFD(s.FD))
	return b.String()
}

// FormatFD renders descriptor pressure as "used/max", with "∞" for an
// unlimited soft limit.
func FormatFD(p fdprobe.Pressure) string {
	if p.Max == nil {
		return fmt.Sprintf("%d/∞", p.Used)
	}
	return fmt.Sprintf("%d/%d", p.Used, *p.Max)
}
