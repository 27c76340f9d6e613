package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/spectator/internal/format"
)

// HeaderModel is the top bar. The left side names the program and counts
// events; the right side shows the kind of the most recent collection.
type HeaderModel struct {
	now      func() time.Time
	started  time.Time
	stopped  time.Time
	version  string
	events   uint64
	lastKind string
	width    int
}

// NewHeaderModel creates a header whose clock starts now.
func NewHeaderModel(version string) HeaderModel {
	h := HeaderModel{now: time.Now, version: version}
	h.started = h.now()
	return h
}

// SetDone freezes the elapsed time.
func (h *HeaderModel) SetDone() { h.stopped = h.now() }

// Reset restarts the clock and forgets every event.
func (h *HeaderModel) Reset() {
	h.started = h.now()
	h.stopped = time.Time{}
	h.events = 0
	h.lastKind = ""
}

// CountEvent records one more collection of the given kind.
func (h *HeaderModel) CountEvent(kind string) {
	h.events++
	h.lastKind = kind
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) { h.width = w }

func (h HeaderModel) elapsed() time.Duration {
	end := h.stopped
	if end.IsZero() {
		end = h.now()
	}
	return end.Sub(h.started)
}

// View renders the header.
func (h HeaderModel) View() string {
	name := "Spectator"
	if h.version != "" && h.version != "dev" {
		name += " " + h.version
	}
	sep := versionStyle.Render(" | ")
	left := titleStyle.Render(name) + sep +
		elapsedStyle.Render("Elapsed: "+format.FormatExecutionDuration(h.elapsed())) + sep +
		elapsedStyle.Render(fmt.Sprintf("GC events: %d", h.events))

	right := ""
	if h.lastKind != "" {
		right = kindStyle(h.lastKind).Render("last: " + h.lastKind)
	}

	gap := h.width - 2 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Not enough room for both sides.
		right, gap = "", max(h.width-2-lipgloss.Width(left), 0)
	}
	return headerStyle.Width(h.width).Render(left + spaces(gap) + right)
}

// spaces returns n blanks, or "" for n <= 0.
func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
