package cli

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/agbru/spectator/internal/gcevent"
	"github.com/agbru/spectator/internal/logging"
)

// TextPresenter logs each GC event through a logger.
type TextPresenter struct {
	logger logging.Logger
}

// NewTextPresenter returns a presenter logging to l.
func NewTextPresenter(l logging.Logger) *TextPresenter {
	return &TextPresenter{logger: logging.OrNop(l)}
}

// Consume implements delivery.Consumer.
func (p *TextPresenter) Consume(_ context.Context, rec gcevent.Record) error {
	before, after := rec.Before.UsedHeapSize, rec.After.UsedHeapSize
	fields := []logging.Field{
		logging.String("type", rec.Type),
		logging.Float64("elapsed_ms", rec.Elapsed*1e3),
		logging.Uint64("used_before", before),
		logging.Uint64("used_after", after),
		logging.Uint64("total_after", rec.After.TotalHeapSize),
	}
	if before > after {
		fields = append(fields, logging.Uint64("reclaimed", before-after))
	}
	p.logger.Info("gc", fields...)
	return nil
}

// JSONPresenter writes each GC record as one JSON line.
type JSONPresenter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONPresenter returns a presenter writing to w.
func NewJSONPresenter(w io.Writer) *JSONPresenter {
	return &JSONPresenter{enc: json.NewEncoder(w)}
}

// Consume implements delivery.Consumer.
func (p *JSONPresenter) Consume(_ context.Context, rec gcevent.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(rec)
}

// Tally accumulates per-type counts and timings of delivered events.
type Tally struct {
	mu      sync.Mutex
	byType  map[string]uint64
	total   uint64
	sumSecs float64
	maxSecs float64
	last    gcevent.Record
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{byType: make(map[string]uint64)}
}

// Consume implements delivery.Consumer.
func (t *Tally) Consume(_ context.Context, rec gcevent.Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byType[rec.Type]++
	t.total++
	t.sumSecs += rec.Elapsed
	if rec.Elapsed > t.maxSecs {
		t.maxSecs = rec.Elapsed
	}
	t.last = rec
	return nil
}

// TallySnapshot is a copy of a Tally's state.
type TallySnapshot struct {
	ByType     map[string]uint64
	Total      uint64
	SumElapsed float64
	MaxElapsed float64
	Last       gcevent.Record
}

// Snapshot copies the current state.
func (t *Tally) Snapshot() TallySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	by := make(map[string]uint64, len(t.byType))
	for k, v := range t.byType {
		by[k] = v
	}
	return TallySnapshot{
		ByType:     by,
		Total:      t.total,
		SumElapsed: t.sumSecs,
		MaxElapsed: t.maxSecs,
		Last:       t.last,
	}
}
