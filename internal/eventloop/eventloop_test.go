package eventloop

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agbru/spectator/internal/logging"
)

func startLoop(t *testing.T, el *Loop) {
	t.Helper()
	go el.Run(context.Background())
	t.Cleanup(el.Stop)
	deadline := time.Now().Add(5 * time.Second)
	for !el.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

func TestLoop_RunsTasksInPostOrder(t *testing.T) {
	t.Parallel()
	el := New(16)
	var got []int
	for i := range 10 {
		if !el.Post(func() { got = append(got, i) }) {
			t.Fatalf("Post(%d) rejected", i)
		}
	}
	if el.Pending() != 10 {
		t.Errorf("Pending() = %d, want 10", el.Pending())
	}
	startLoop(t, el)
	if err := el.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task order %v", got)
		}
	}
	if len(got) != 10 || el.Executed() < 10 {
		t.Errorf("ran %d tasks, Executed() = %d", len(got), el.Executed())
	}
}

func TestLoop_PostFullInbox(t *testing.T) {
	t.Parallel()
	el := New(2)
	el.Post(func() {})
	el.Post(func() {})
	if el.Post(func() {}) {
		t.Error("Post() into a full inbox succeeded")
	}
}

func TestLoop_RecoversPanics(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	var mu sync.Mutex
	el := New(4, WithLogger(logging.NewStdLoggerAdapter(log.New(&lockedWriter{w: &buf, mu: &mu}, "", 0))))
	startLoop(t, el)

	el.Post(func() { panic("boom") })
	ran := false
	if err := el.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !ran {
		t.Error("loop did not survive a panicking task")
	}
	if el.Panics() != 1 {
		t.Errorf("Panics() = %d, want 1", el.Panics())
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("panic not logged: %q", buf.String())
	}
}

func TestLoop_StopRejectsPosts(t *testing.T) {
	t.Parallel()
	el := New(4)
	go el.Run(context.Background())
	el.Stop()
	el.Stop()
	if el.Post(func() {}) {
		t.Error("Post() after Stop succeeded")
	}
	select {
	case <-el.Done():
	default:
		t.Error("Done() not closed after Stop")
	}
	if el.Running() {
		t.Error("Running() after Stop")
	}
}

func TestLoop_StopBeforeRun(t *testing.T) {
	t.Parallel()
	el := New(1)
	el.Stop() // must not block
	if el.Post(func() {}) {
		t.Error("Post() after Stop succeeded")
	}
}

func TestLoop_StopRacingRun(t *testing.T) {
	t.Parallel()
	for range 200 {
		el := New(4)
		go el.Run(context.Background())
		el.Stop()
		if el.Post(func() {}) {
			t.Fatal("Post() after Stop succeeded")
		}
		select {
		case <-el.Done():
		default:
			t.Fatal("Done() not closed after Stop")
		}
		if el.Running() {
			t.Fatal("Running() after Stop")
		}
	}
}

func TestLoop_StopBeforeRunKeepsRunFromStarting(t *testing.T) {
	t.Parallel()
	el := New(1)
	el.Stop()
	select {
	case <-el.Done():
	default:
		t.Fatal("Done() not closed by Stop without Run")
	}
	ran := make(chan struct{})
	go func() {
		el.Run(context.Background())
		close(ran)
	}()
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("Run started after Stop")
	}
	if el.Running() {
		t.Error("Running() after Stop")
	}
}

func TestLoop_WakeupSurvivesFullInbox(t *testing.T) {
	t.Parallel()
	el := New(1)
	var runs atomic.Int32
	notify := el.NewWakeup(func() { runs.Add(1) })

	if !el.Post(func() {}) {
		t.Fatal("could not fill the inbox")
	}
	if el.Post(func() {}) {
		t.Fatal("inbox not full")
	}
	for range 3 {
		if !notify() {
			t.Fatal("notify() refused on a live loop")
		}
	}
	startLoop(t, el)
	deadline := time.Now().Add(5 * time.Second)
	for (runs.Load() == 0 || el.Pending() > 0) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := el.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := runs.Load(); got != 1 {
		t.Errorf("wakeup ran %d times, want 1 for coalesced notifications", got)
	}

	// A notification after the run schedules another.
	notify()
	if err := el.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := runs.Load(); got != 2 {
		t.Errorf("wakeup ran %d times, want 2", got)
	}
}

func TestLoop_WakeupNotifiedWhileRunning(t *testing.T) {
	t.Parallel()
	el := New(4)
	var runs atomic.Int32
	var notify NotifyFunc
	notify = el.NewWakeup(func() {
		if runs.Add(1) == 1 {
			notify()
		}
	})
	startLoop(t, el)
	notify()
	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := runs.Load(); got != 2 {
		t.Errorf("wakeup ran %d times, want a second run for the re-notify", got)
	}
}

func TestLoop_WakeupAfterStop(t *testing.T) {
	t.Parallel()
	el := New(1)
	notify := el.NewWakeup(func() {})
	el.Stop()
	if notify() {
		t.Error("notify() after Stop reported success")
	}
}

func TestLoop_ContextEndsRun(t *testing.T) {
	t.Parallel()
	el := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		el.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	// A second Run is a no-op.
	el.Run(context.Background())
}

func TestLoop_DoErrors(t *testing.T) {
	t.Parallel()
	el := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	// Not running: the task waits until ctx expires.
	if err := el.Do(ctx, func() {}); err != context.DeadlineExceeded {
		t.Errorf("Do() on idle loop = %v, want DeadlineExceeded", err)
	}
	// Inbox is now full with the stale task.
	if err := el.Do(context.Background(), func() {}); err == nil {
		t.Error("Do() with a full inbox succeeded")
	}
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
