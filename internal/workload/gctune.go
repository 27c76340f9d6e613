package workload

import (
	"fmt"
	"math"
	"runtime/debug"

	"github.com/agbru/spectator/internal/logging"
)

// GCMode tunes how often the runtime collects during a run.
type GCMode string

// GC modes.
const (
	GCModeDefault    GCMode = "default"    // leave GOGC as configured
	GCModeAggressive GCMode = "aggressive" // collect far more often
	GCModeRelaxed    GCMode = "relaxed"    // collect far less often, bounded by a memory limit
)

const (
	aggressiveGCPercent = 10
	relaxedGCPercent    = 400
)

// ParseGCMode validates s.
func ParseGCMode(s string) (GCMode, error) {
	switch m := GCMode(s); m {
	case GCModeDefault, GCModeAggressive, GCModeRelaxed:
		return m, nil
	case "":
		return GCModeDefault, nil
	default:
		return "", fmt.Errorf("unknown gc mode %q", s)
	}
}

// GCTuner applies a GCMode and restores the previous settings.
type GCTuner struct {
	mode        GCMode
	memoryLimit int64
	logger      logging.Logger

	active      bool
	prevPercent int
	prevLimit   int64
}

// NewGCTuner returns a tuner for mode. memoryLimit, when positive, is the
// soft limit applied in relaxed mode.
func NewGCTuner(mode GCMode, memoryLimit int64, l logging.Logger) *GCTuner {
	return &GCTuner{mode: mode, memoryLimit: memoryLimit, logger: logging.OrNop(l)}
}

// Begin applies the mode. It is a no-op for GCModeDefault.
func (g *GCTuner) Begin() {
	var percent int
	switch g.mode {
	case GCModeAggressive:
		percent = aggressiveGCPercent
	case GCModeRelaxed:
		percent = relaxedGCPercent
	default:
		return
	}
	g.active = true
	g.prevPercent = debug.SetGCPercent(percent)
	g.prevLimit = debug.SetMemoryLimit(-1)
	if g.mode == GCModeRelaxed && g.memoryLimit > 0 {
		debug.SetMemoryLimit(g.memoryLimit)
	}
	g.logger.Debug("gc tuned",
		logging.String("mode", string(g.mode)),
		logging.Int("gc_percent", percent),
		logging.Int("previous_gc_percent", g.prevPercent))
}

// End restores the settings captured by Begin.
func (g *GCTuner) End() {
	if !g.active {
		return
	}
	g.active = false
	debug.SetGCPercent(g.prevPercent)
	if g.prevLimit <= 0 {
		g.prevLimit = math.MaxInt64
	}
	debug.SetMemoryLimit(g.prevLimit)
	g.logger.Debug("gc settings restored", logging.String("mode", string(g.mode)))
}
