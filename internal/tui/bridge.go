package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/spectator/internal/delivery"
	"github.com/agbru/spectator/internal/gcevent"
)

// programRef is a shared reference to the tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so the bridge can send messages.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the bubbletea program (thread-safe). Messages sent
// before a program is attached are dropped; after the program exits Send
// returns without blocking.
func (r *programRef) Send(msg tea.Msg) bool {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p == nil {
		return false
	}
	p.Send(msg)
	return true
}

// Bridge forwards delivered GC records to the dashboard. It is the consumer
// the application registers when running in TUI mode.
type Bridge struct {
	ref *programRef
	now func() time.Time
}

// Verify interface compliance.
var _ delivery.Consumer = (*Bridge)(nil)

// NewBridge returns a bridge with no program attached.
func NewBridge() *Bridge {
	return &Bridge{ref: &programRef{}, now: time.Now}
}

// Consume implements delivery.Consumer.
func (b *Bridge) Consume(_ context.Context, rec gcevent.Record) error {
	b.ref.Send(GCEventMsg{Record: rec, At: b.now()})
	return nil
}
