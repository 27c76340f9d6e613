package config

import (
	"bytes"
	"errors"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/agbru/spectator/internal/errors"
	"github.com/agbru/spectator/internal/host"
)

func TestParseConfig_Defaults(t *testing.T) {
	var errBuf bytes.Buffer
	cfg, err := ParseConfig("spectator", nil, &errBuf)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Mode != DefaultMode {
		t.Errorf("Mode = %q, want %q", cfg.Mode, DefaultMode)
	}
	if cfg.QueueSize != DefaultQueueSize {
		t.Errorf("QueueSize = %d, want %d", cfg.QueueSize, DefaultQueueSize)
	}
	if cfg.Workload != DefaultWorkload {
		t.Errorf("Workload = %d, want %d", cfg.Workload, DefaultWorkload)
	}
	if cfg.Kind() != host.KindMarkSweepCompact {
		t.Errorf("Kind() = %v, want markSweepCompact", cfg.Kind())
	}
	if cfg.GCMode != DefaultGCMode {
		t.Errorf("GCMode = %q, want %q", cfg.GCMode, DefaultGCMode)
	}
	if cfg.Level() != zerolog.InfoLevel {
		t.Errorf("Level() = %v, want info", cfg.Level())
	}
	if cfg.Duration != 0 || cfg.ForceInterval != 0 || cfg.MetricsAddr != "" || cfg.Quiet {
		t.Errorf("unexpected non-zero defaults: %+v", cfg)
	}
}

func TestParseConfig_Flags(t *testing.T) {
	args := []string{
		"--mode", "JSON",
		"--duration", "3s",
		"--force-interval", "250ms",
		"--force-kind", "scavenge",
		"--queue-size", "16",
		"--metrics-addr", ":9464",
		"--workload", "0",
		"--gc-mode", "aggressive",
		"--memory-limit", "256MiB",
		"--log-level", "debug",
		"-q",
	}
	cfg, err := ParseConfig("spectator", args, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	want := AppConfig{
		Mode:          ModeJSON,
		Duration:      3 * time.Second,
		ForceInterval: 250 * time.Millisecond,
		ForceKind:     "scavenge",
		QueueSize:     16,
		MetricsAddr:   ":9464",
		Workload:      0,
		GCMode:        "aggressive",
		MemoryLimit:   "256MiB",
		LogLevel:      "debug",
		Quiet:         true,
	}
	if cfg != want {
		t.Errorf("ParseConfig() = %+v, want %+v", cfg, want)
	}
	if cfg.Kind() != host.KindScavenge {
		t.Errorf("Kind() = %v, want scavenge", cfg.Kind())
	}
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"MODE", "tui")
	t.Setenv(EnvPrefix+"QUEUE_SIZE", "64")
	t.Setenv(EnvPrefix+"DURATION", "10s")
	t.Setenv(EnvPrefix+"QUIET", "yes")
	t.Setenv(EnvPrefix+"WORKLOAD", "not-a-number")

	cfg, err := ParseConfig("spectator", []string{"--queue-size", "8"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.Mode != ModeTUI {
		t.Errorf("Mode = %q, want env value tui", cfg.Mode)
	}
	if cfg.QueueSize != 8 {
		t.Errorf("QueueSize = %d, want flag value 8", cfg.QueueSize)
	}
	if cfg.Duration != 10*time.Second {
		t.Errorf("Duration = %s, want 10s", cfg.Duration)
	}
	if !cfg.Quiet {
		t.Error("Quiet = false, want true from env")
	}
	if cfg.Workload != DefaultWorkload {
		t.Errorf("Workload = %d, want default on unparsable env", cfg.Workload)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"bad mode", []string{"--mode", "xml"}, "invalid --mode"},
		{"negative duration", []string{"--duration", "-1s"}, "--duration"},
		{"negative interval", []string{"--force-interval", "-5ms"}, "--force-interval"},
		{"bad kind", []string{"--force-kind", "incrementalMarking"}, "invalid --force-kind"},
		{"zero queue", []string{"--queue-size", "0"}, "--queue-size"},
		{"bad gc mode", []string{"--gc-mode", "turbo"}, "invalid --gc-mode"},
		{"bad memory limit", []string{"--memory-limit", "lots"}, "invalid --memory-limit"},
		{"bad level", []string{"--log-level", "loud"}, "invalid --log-level"},
		{"extra argument", []string{"extra"}, "unexpected argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseConfig("spectator", tt.args, &bytes.Buffer{})
			var cfgErr apperrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("ParseConfig(%v) error = %v, want ConfigError", tt.args, err)
			}
			if !strings.Contains(cfgErr.Message, tt.msg) {
				t.Errorf("message %q does not contain %q", cfgErr.Message, tt.msg)
			}
		})
	}
}

func TestParseConfig_UnknownFlag(t *testing.T) {
	t.Parallel()
	var errBuf bytes.Buffer
	_, err := ParseConfig("spectator", []string{"--bogus"}, &errBuf)
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(errBuf.String(), "bogus") {
		t.Errorf("usage output %q does not mention the flag", errBuf.String())
	}
}

func TestParseConfig_Help(t *testing.T) {
	t.Parallel()
	_, err := ParseConfig("spectator", []string{"-h"}, &bytes.Buffer{})
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("ParseConfig(-h) error = %v, want flag.ErrHelp", err)
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"false", true, false},
		{"No", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		if got := parseBoolEnv(tt.in, tt.def); got != tt.want {
			t.Errorf("parseBoolEnv(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := (AppConfig{LogLevel: tt.in}).Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
