package format

import "fmt"

// FormatBytes renders b with a binary unit suffix.
func FormatBytes(b uint64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// FormatDelta renders the signed change from before to after, e.g. "-3.2 MB".
func FormatDelta(before, after uint64) string {
	if after >= before {
		return "+" + FormatBytes(after-before)
	}
	return "-" + FormatBytes(before-after)
}
