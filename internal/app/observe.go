package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/spectator"
	"github.com/agbru/spectator/internal/cli"
	"github.com/agbru/spectator/internal/config"
	"github.com/agbru/spectator/internal/delivery"
	apperrors "github.com/agbru/spectator/internal/errors"
	"github.com/agbru/spectator/internal/eventloop"
	"github.com/agbru/spectator/internal/fdprobe"
	"github.com/agbru/spectator/internal/gcevent"
	"github.com/agbru/spectator/internal/host"
	"github.com/agbru/spectator/internal/host/goruntime"
	"github.com/agbru/spectator/internal/logging"
	"github.com/agbru/spectator/internal/metrics"
	"github.com/agbru/spectator/internal/server"
	"github.com/agbru/spectator/internal/sysmon"
	"github.com/agbru/spectator/internal/tui"
	"github.com/agbru/spectator/internal/workload"
)

// collector forces a collection through the host.
type collector interface {
	Collect(kind host.Kind)
}

// fanOut delivers each record to every consumer, joining their errors. A
// consumer that panics is reported as a ConsumerError and does not keep the
// rest from seeing the record.
func fanOut(consumers ...delivery.Consumer) delivery.ConsumerFunc {
	return func(ctx context.Context, rec gcevent.Record) error {
		var errs []error
		for _, c := range consumers {
			if err := consumeSafely(ctx, c, rec); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

func consumeSafely(ctx context.Context, c delivery.Consumer, rec gcevent.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.ConsumerError{Kind: rec.Type, Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	return c.Consume(ctx, rec)
}

// runForcer calls Collect every interval until ctx is done.
func runForcer(ctx context.Context, c collector, kind host.Kind, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Collect(kind)
		}
	}
}

// pipelineStats maps the lifecycle counters onto the exported shape.
func pipelineStats(lc *spectator.Lifecycle) metrics.PipelineStats {
	s := lc.Stats()
	return metrics.PipelineStats{
		Prologues:        s.Observer.Prologues,
		Epilogues:        s.Observer.Epilogues,
		CaptureFailures:  s.Observer.CaptureFailures,
		MissedCycles:     s.MissedCycles,
		Spilled:          s.Delivery.Spilled,
		Delivered:        s.Delivery.Delivered,
		Discarded:        s.Delivery.Discarded,
		ConsumerFailures: s.Delivery.ConsumerFailures,
		Queued:           s.Queued,
	}
}

// newLogger returns the diagnostic logger for cfg. The dashboard owns the
// terminal, so TUI runs log nowhere.
func newLogger(cfg config.AppConfig, w io.Writer) logging.Logger {
	if cfg.Mode == config.ModeTUI {
		return logging.Nop()
	}
	return logging.NewConsoleLogger(w, cfg.Level(), noColor())
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

// runObserve runs the host, the event loop and the workload, observes every
// collection until ctx ends, then prints a summary.
func (a *Application) runObserve(ctx context.Context, out io.Writer) int {
	cfg := a.Config
	logger := newLogger(cfg, a.ErrWriter)
	start := time.Now()
	memory := metrics.NewMemoryCollector()
	runtimeBefore := memory.Snapshot()

	h := goruntime.New(goruntime.WithLogger(logger))
	loop := eventloop.New(eventloop.DefaultCapacity, eventloop.WithLogger(logger))
	lc := spectator.New()

	stats := func() metrics.PipelineStats { return pipelineStats(lc) }
	srvMetrics := server.NewMetrics(metrics.NewPipelineCollector(stats, lc.GetCurMaxFd))
	gcMetrics := metrics.NewGCMetrics(srvMetrics.Registry())
	tally := cli.NewTally()

	consumers := []delivery.Consumer{gcMetrics, tally}
	var bridge *tui.Bridge
	switch cfg.Mode {
	case config.ModeJSON:
		consumers = append(consumers, cli.NewJSONPresenter(out))
	case config.ModeTUI:
		bridge = tui.NewBridge()
		consumers = append(consumers, bridge)
	default:
		if !cfg.Quiet {
			consumers = append(consumers, cli.NewTextPresenter(logging.NewConsoleLogger(out, cfg.Level(), noColor())))
		}
	}

	if err := lc.Init(h, loop, spectator.WithLogger(logger), spectator.WithQueueSize(cfg.QueueSize)); err != nil {
		logger.Error("init failed", err)
		return exitCode(ctx, err)
	}
	defer lc.Shutdown()
	if err := lc.EmitGCEvents(ctx, fanOut(consumers...)); err != nil {
		logger.Error("registration failed", err)
		return exitCode(ctx, err)
	}

	mode, _ := workload.ParseGCMode(cfg.GCMode)
	limit, _ := workload.ParseMemoryLimit(cfg.MemoryLimit)
	tuner := workload.NewGCTuner(mode, limit, logger)
	tuner.Begin()
	defer tuner.End()

	h.Start()
	defer h.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		loop.Run(gctx)
		return nil
	})
	wl := workload.New(cfg.Workload, workload.WithLogger(logger))
	g.Go(func() error { return wl.Run(gctx) })
	if cfg.ForceInterval > 0 {
		g.Go(func() error { return runForcer(gctx, h, cfg.Kind(), cfg.ForceInterval) })
	}
	if cfg.MetricsAddr != "" {
		srv := server.New(cfg.MetricsAddr, srvMetrics, lc.GetCurMaxFd, server.WithLogger(logger))
		g.Go(func() error {
			return apperrors.WrapError(srv.Run(gctx), "metrics server on %s", cfg.MetricsAddr)
		})
	}

	logger.Info("observing gc",
		logging.String("mode", cfg.Mode),
		logging.Uint64("workload", cfg.Workload),
		logging.String("gc_mode", string(mode)))

	var tuiCode int
	switch {
	case cfg.Mode == config.ModeTUI:
		src := tui.Source{
			Pipeline: stats,
			FD:       lc.GetCurMaxFd,
			ForceGC: func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				h.Collect(cfg.Kind())
				return nil
			},
			Memory: memory,
			System: sysmon.NewSampler(),
		}
		tuiCode = tui.Run(gctx, bridge, src, Version)
		cancel()
	case cfg.Mode == config.ModeText && !cfg.Quiet:
		g.Go(func() error {
			cli.RunStatus(gctx, a.ErrWriter, func() cli.Status {
				return statusFrom(tally.Snapshot(), pipelineStats(lc), lc.GetCurMaxFd())
			})
			return nil
		})
	}

	err := g.Wait()
	// Stop observing before reading the final counters.
	h.Stop()
	lc.Shutdown()
	if err != nil {
		logger.Error("run failed", err)
	}

	ps := pipelineStats(lc)
	summary := cli.Summary{
		Duration:         time.Since(start),
		Tally:            tally.Snapshot(),
		MissedCycles:     ps.MissedCycles,
		Discarded:        ps.Discarded,
		ConsumerFailures: ps.ConsumerFailures,
		CaptureFailures:  ps.CaptureFailures,
		RuntimeBefore:    runtimeBefore,
		RuntimeAfter:     memory.Snapshot(),
		FD:               lc.GetCurMaxFd(),
	}
	switch cfg.Mode {
	case config.ModeText:
		cli.DisplaySummary(summary, out)
	case config.ModeJSON:
		if !cfg.Quiet {
			cli.DisplaySummary(summary, a.ErrWriter)
		}
	}

	if cfg.Mode == config.ModeTUI && err == nil {
		return tuiCode
	}
	return exitCode(ctx, err)
}

func statusFrom(t cli.TallySnapshot, ps metrics.PipelineStats, fd fdprobe.Pressure) cli.Status {
	return cli.Status{
		Events:      t.Total,
		LastType:    t.Last.Type,
		LastElapsed: t.Last.Elapsed,
		HeapUsed:    t.Last.After.UsedHeapSize,
		Missed:      ps.MissedCycles,
		Queued:      ps.Queued,
		FD:          fd,
	}
}
