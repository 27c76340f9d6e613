package workload

import (
	"fmt"
	"strconv"
	"strings"
)

var sizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	{"KiB", 1 << 10}, {"MiB", 1 << 20}, {"GiB", 1 << 30}, {"TiB", 1 << 40},
	{"KB", 1e3}, {"MB", 1e6}, {"GB", 1e9}, {"TB", 1e12},
	{"B", 1},
}

// ParseMemoryLimit parses a byte size such as "512MiB", "2GB" or "1048576".
// The empty string means no limit and yields 0.
func ParseMemoryLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	mult := int64(1)
	num := s
	for _, sf := range sizeSuffixes {
		if strings.HasSuffix(strings.ToUpper(s), strings.ToUpper(sf.suffix)) {
			num = strings.TrimSpace(s[:len(s)-len(sf.suffix)])
			mult = sf.mult
			break
		}
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid memory size %q", s)
	}
	limit := v * float64(mult)
	if limit > float64(1<<62) {
		return 0, fmt.Errorf("memory size %q too large", s)
	}
	return int64(limit), nil
}
