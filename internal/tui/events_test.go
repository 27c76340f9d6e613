package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestEventLogModel_AddEvent(t *testing.T) {
	l := NewEventLogModel()
	l.SetSize(80, 10)
	l.AddEvent(sampleEvent("markSweepCompact"))

	if l.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", l.Len())
	}
	view := l.View()
	for _, want := range []string{"GC events", "03:04:05.000", "markSweepCompact", "-2.0 MB", "2ms"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestEventLogModel_Bounded(t *testing.T) {
	l := NewEventLogModel()
	for range maxLogEntries + 10 {
		l.AddEvent(sampleEvent("scavenge"))
	}
	if l.Len() != maxLogEntries {
		t.Errorf("Len() = %d, want %d", l.Len(), maxLogEntries)
	}
}

func TestEventLogModel_Scroll(t *testing.T) {
	l := NewEventLogModel()
	l.SetSize(80, 8) // 5 visible lines
	for range 20 {
		l.AddEvent(sampleEvent("scavenge"))
	}

	up := tea.KeyMsg{Type: tea.KeyUp}
	down := tea.KeyMsg{Type: tea.KeyDown}
	pgup := tea.KeyMsg{Type: tea.KeyPgUp}

	l.Update(up)
	if l.offset != 1 {
		t.Fatalf("offset after up = %d, want 1", l.offset)
	}
	if !strings.Contains(l.View(), "+1 newer") {
		t.Error("expected scrolled view to show newer count")
	}

	l.Update(down)
	l.Update(down)
	if l.offset != 0 {
		t.Errorf("offset below zero not clamped: %d", l.offset)
	}

	for range 10 {
		l.Update(pgup)
	}
	if want := 20 - l.visibleLines(); l.offset != want {
		t.Errorf("offset after page ups = %d, want %d", l.offset, want)
	}

	// New lines keep the scrolled window in place.
	before := l.offset
	l.AddEvent(sampleEvent("scavenge"))
	if l.offset != before+1 {
		t.Errorf("offset after append = %d, want %d", l.offset, before+1)
	}
}

func TestEventLogModel_Reset(t *testing.T) {
	l := NewEventLogModel()
	l.AddNote(time.Now(), "forced gc failed", true)
	l.Reset()
	if l.Len() != 0 || l.offset != 0 {
		t.Errorf("Reset left len=%d offset=%d", l.Len(), l.offset)
	}
}
