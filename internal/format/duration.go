// Package format renders durations and byte counts for terminal output.
package format

import (
	"fmt"
	"time"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// FormatSeconds formats a GC elapsed value given in seconds.
func FormatSeconds(s float64) string {
	if s <= 0 {
		return "0µs"
	}
	return FormatExecutionDuration(time.Duration(s * float64(time.Second)))
}
