// Package config parses the spectator command line and environment.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/agbru/spectator/internal/errors"
	"github.com/agbru/spectator/internal/host"
	"github.com/agbru/spectator/internal/workload"
)

// EnvPrefix prefixes every environment variable the binary reads.
const EnvPrefix = "SPECTATOR_"

// Output modes.
const (
	ModeText = "text"
	ModeJSON = "json"
	ModeTUI  = "tui"
)

// Defaults.
const (
	DefaultMode      = ModeText
	DefaultForceKind = "markSweepCompact"
	DefaultQueueSize = 4096
	DefaultWorkload  = 20000
	DefaultLogLevel  = "info"
	DefaultGCMode    = string(workload.GCModeDefault)
)

// AppConfig holds the resolved configuration of one run.
type AppConfig struct {
	// Mode selects the presenter: text, json or tui.
	Mode string
	// Duration bounds the run; zero runs until interrupted.
	Duration time.Duration
	// ForceInterval triggers a collection periodically; zero disables it.
	ForceInterval time.Duration
	// ForceKind is the collection kind forced each interval.
	ForceKind string
	// QueueSize is the lock-free ring capacity; GC events beyond it spill
	// into an unbounded overflow queue.
	QueueSize int
	// MetricsAddr is the listen address of the metrics server; empty disables it.
	MetricsAddr string
	// Workload is the Fibonacci index the allocation workload recomputes;
	// zero disables it.
	Workload uint64
	// GCMode tunes the collector during the run: default, aggressive or relaxed.
	GCMode string
	// MemoryLimit is the soft memory limit applied in relaxed GC mode,
	// e.g. "512MiB".
	MemoryLimit string
	// LogLevel is a zerolog level name.
	LogLevel string
	// Quiet suppresses the status spinner and per-event text output.
	Quiet bool
	// Version prints the version and exits.
	Version bool
	// Completion names a shell whose completion script is printed instead of
	// running.
	Completion string
}

// Kind returns ForceKind as a host GC kind.
func (c AppConfig) Kind() host.Kind {
	k, _ := host.ParseKind(c.ForceKind)
	return k
}

// Validate checks the configuration for inconsistent values.
func (c AppConfig) Validate() error {
	switch c.Mode {
	case ModeText, ModeJSON, ModeTUI:
	default:
		return apperrors.NewConfigError("invalid --mode %q: expected text, json or tui", c.Mode)
	}
	if c.Duration < 0 {
		return apperrors.NewConfigError("--duration must not be negative, got %s", c.Duration)
	}
	if c.ForceInterval < 0 {
		return apperrors.NewConfigError("--force-interval must not be negative, got %s", c.ForceInterval)
	}
	switch c.Kind() {
	case host.KindMarkSweepCompact, host.KindScavenge:
	default:
		return apperrors.NewConfigError("invalid --force-kind %q: expected markSweepCompact or scavenge", c.ForceKind)
	}
	if c.QueueSize <= 0 {
		return apperrors.NewConfigError("--queue-size must be positive, got %d", c.QueueSize)
	}
	if _, err := workload.ParseGCMode(c.GCMode); err != nil {
		return apperrors.NewConfigError("invalid --gc-mode %q: expected default, aggressive or relaxed", c.GCMode)
	}
	if _, err := workload.ParseMemoryLimit(c.MemoryLimit); err != nil {
		return apperrors.NewConfigError("invalid --memory-limit: %v", err)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("invalid --log-level %q", c.LogLevel)
	}
	return nil
}

// ParseConfig parses args (without the program name) into an AppConfig.
// Precedence is flags, then SPECTATOR_* variables, then defaults.
func ParseConfig(programName string, args []string, errWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errWriter)

	cfg := AppConfig{}
	fs.StringVar(&cfg.Mode, "mode", DefaultMode, "Output mode: text, json or tui.")
	fs.DurationVar(&cfg.Duration, "duration", 0, "Stop after this long (0 runs until interrupted).")
	fs.DurationVar(&cfg.ForceInterval, "force-interval", 0, "Force a collection at this interval (0 disables).")
	fs.StringVar(&cfg.ForceKind, "force-kind", DefaultForceKind, "Kind of forced collection: markSweepCompact or scavenge.")
	fs.IntVar(&cfg.QueueSize, "queue-size", DefaultQueueSize, "Lock-free GC event ring capacity; events beyond it spill into an overflow queue.")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve /metrics and /debug/fd on this address (empty disables).")
	fs.Uint64Var(&cfg.Workload, "workload", DefaultWorkload, "Fibonacci index recomputed by the allocation workload (0 disables).")
	fs.StringVar(&cfg.GCMode, "gc-mode", DefaultGCMode, "Collector tuning: default, aggressive or relaxed.")
	fs.StringVar(&cfg.MemoryLimit, "memory-limit", "", "Soft memory limit in relaxed GC mode (e.g. 512MiB).")
	fs.StringVar(&cfg.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn or error.")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Quiet mode: no spinner, summary only.")
	fs.BoolVar(&cfg.Quiet, "q", false, "Shorthand for --quiet.")
	fs.BoolVar(&cfg.Version, "version", false, "Print the version and exit.")
	fs.StringVar(&cfg.Completion, "completion", "", "Print a completion script for bash, zsh or fish and exit.")

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected argument %q", fs.Arg(0))
	}

	applyEnvOverrides(&cfg, fs)
	cfg.Mode = strings.ToLower(cfg.Mode)
	cfg.GCMode = strings.ToLower(cfg.GCMode)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errWriter, err)
		return AppConfig{}, err
	}
	return cfg, nil
}
