// Package fdprobe reports file-descriptor pressure for the current process:
// how many descriptors are open and the soft RLIMIT_NOFILE.
package fdprobe

import (
	"os"
	"strings"
)

// Pressure is the FD record returned to callers. Max is nil when the soft
// limit is unlimited or unknown.
type Pressure struct {
	Used uint64  `json:"used"`
	Max  *uint64 `json:"max"`
}

// Probe counts entries of a per-process descriptor directory and queries the
// soft descriptor limit.
type Probe struct {
	// Dir lists one entry per open descriptor. Empty means unsupported.
	Dir string
	// Limit returns the soft limit and whether it is finite. Nil means
	// unsupported.
	Limit func() (soft uint64, finite bool, err error)
}

// Default returns the probe for the current platform.
func Default() Probe {
	return Probe{Dir: fdDir, Limit: softLimit}
}

// Pressure takes a reading. It never fails: an unreadable directory counts as
// zero and an unavailable limit is reported as nil.
func (p Probe) Pressure() Pressure {
	var res Pressure
	if p.Dir != "" {
		res.Used = countEntries(p.Dir)
	}
	if p.Limit != nil {
		if soft, finite, err := p.Limit(); err == nil && finite {
			res.Max = &soft
		}
	}
	return res
}

// countEntries returns the number of names in dir not starting with '.'.
func countEntries(dir string) uint64 {
	f, err := os.Open(dir)
	if err != nil {
		return 0
	}
	defer f.Close()
	names, err := f.Readdirnames(-1)
	if err != nil && len(names) == 0 {
		return 0
	}
	var n uint64
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		n++
	}
	return n
}
