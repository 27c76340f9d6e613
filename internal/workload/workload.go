// Package workload generates heap churn so the runtime collects while the
// spectator is watching. It repeatedly computes a large Fibonacci number with
// math/big, allocating fresh intermediates at every doubling step.
package workload

import (
	"context"
	"math/big"
	"math/bits"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/agbru/spectator/internal/logging"
)

// Workload recomputes F(n) until stopped.
type Workload struct {
	n      uint64
	pause  time.Duration
	logger logging.Logger

	iterations atomic.Uint64
	allocated  atomic.Uint64
	lastBits   atomic.Int64
}

// Option configures a Workload.
type Option func(*Workload)

// WithPause sleeps between iterations to lower the allocation rate.
func WithPause(d time.Duration) Option {
	return func(w *Workload) { w.pause = d }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Workload) { w.logger = logging.OrNop(l) }
}

// New returns a workload computing F(n). n == 0 yields a workload that only
// waits for cancellation.
func New(n uint64, opts ...Option) *Workload {
	w := &Workload{n: n, logger: logging.Nop()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run loops until ctx is done. It always returns nil so it can sit in an
// errgroup next to components whose failure should end the run.
func (w *Workload) Run(ctx context.Context) error {
	if w.n == 0 {
		<-ctx.Done()
		return nil
	}
	w.logger.Debug("workload started", logging.Uint64("n", w.n))
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("workload stopped", logging.Uint64("iterations", w.iterations.Load()))
			return nil
		default:
		}
		f, alloc := fibonacci(ctx, w.n)
		if f == nil {
			continue
		}
		w.iterations.Add(1)
		w.allocated.Add(alloc)
		w.lastBits.Store(int64(f.BitLen()))
		if w.pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(w.pause):
			}
		} else {
			runtime.Gosched()
		}
	}
}

// Iterations returns the number of completed computations.
func (w *Workload) Iterations() uint64 { return w.iterations.Load() }

// Allocated returns the approximate number of bytes of big.Int words
// allocated so far.
func (w *Workload) Allocated() uint64 { return w.allocated.Load() }

// LastBits returns the bit length of the last result.
func (w *Workload) LastBits() int { return int(w.lastBits.Load()) }

// Fibonacci returns F(n).
func Fibonacci(n uint64) *big.Int {
	f, _ := fibonacci(context.Background(), n)
	return f
}

// fibonacci computes F(n) by fast doubling:
//
//	F(2k)   = F(k) * (2*F(k+1) - F(k))
//	F(2k+1) = F(k+1)² + F(k)²
//
// Every step allocates new values on purpose. It returns nil if ctx ends
// mid-computation, plus the bytes of words allocated.
func fibonacci(ctx context.Context, n uint64) (*big.Int, uint64) {
	fk := big.NewInt(0)
	fk1 := big.NewInt(1)
	var alloc uint64
	for i := bits.Len64(n) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return nil, alloc
		}
		t := new(big.Int).Lsh(fk1, 1)
		t.Sub(t, fk)
		f2k := new(big.Int).Mul(fk, t)
		f2k1 := new(big.Int).Mul(fk1, fk1)
		f2k1.Add(f2k1, new(big.Int).Mul(fk, fk))
		alloc += wordBytes(t) + wordBytes(f2k) + 2*wordBytes(f2k1)

		fk, fk1 = f2k, f2k1
		if (n>>uint(i))&1 == 1 {
			next := new(big.Int).Add(fk, fk1)
			alloc += wordBytes(next)
			fk, fk1 = fk1, next
		}
	}
	return fk, alloc
}

func wordBytes(x *big.Int) uint64 {
	return uint64(len(x.Bits())) * bits.UintSize / 8
}
