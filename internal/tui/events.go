package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/spectator/internal/format"
)

// maxLogEntries bounds the event log; older lines are discarded.
const maxLogEntries = 1000

// EventLogModel is the scrollable list of delivered GC events.
type EventLogModel struct {
	entries []string
	keymap  KeyMap
	// offset counts lines scrolled back from the newest entry.
	offset int
	width  int
	height int
}

// NewEventLogModel creates an empty log.
func NewEventLogModel() EventLogModel {
	return EventLogModel{keymap: DefaultKeyMap()}
}

// SetSize updates dimensions.
func (l *EventLogModel) SetSize(w, h int) {
	l.width = w
	l.height = h
}

// AddEvent appends a line describing msg.
func (l *EventLogModel) AddEvent(msg GCEventMsg) {
	rec := msg.Record
	line := fmt.Sprintf("%s %s %s %s",
		logTimeStyle.Render(msg.At.Format("15:04:05.000")),
		kindStyle(rec.Type).Render(fmt.Sprintf("%-20s", rec.Type)),
		logHeapStyle.Render(format.FormatDelta(rec.Before.UsedHeapSize, rec.After.UsedHeapSize)),
		logTimeStyle.Render(format.FormatSeconds(rec.Elapsed)))
	l.append(line)
}

// AddNote appends a free-form line, styled as an error when isErr is set.
func (l *EventLogModel) AddNote(at time.Time, text string, isErr bool) {
	style := logSuccessStyle
	if isErr {
		style = logErrorStyle
	}
	l.append(logTimeStyle.Render(at.Format("15:04:05.000")) + " " + style.Render(text))
}

func (l *EventLogModel) append(line string) {
	l.entries = append(l.entries, line)
	if len(l.entries) > maxLogEntries {
		l.entries = l.entries[len(l.entries)-maxLogEntries:]
	}
	// Keep the scrolled view anchored while new lines arrive.
	if l.offset > 0 {
		l.offset++
		l.clampOffset()
	}
}

// Len returns the number of retained lines.
func (l EventLogModel) Len() int { return len(l.entries) }

// Reset clears the log.
func (l *EventLogModel) Reset() {
	l.entries = nil
	l.offset = 0
}

func (l EventLogModel) visibleLines() int {
	v := l.height - 3 // borders and title
	if v < 1 {
		v = 1
	}
	return v
}

func (l *EventLogModel) clampOffset() {
	maxOff := len(l.entries) - l.visibleLines()
	if maxOff < 0 {
		maxOff = 0
	}
	if l.offset > maxOff {
		l.offset = maxOff
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

// Update handles the scroll keys.
func (l *EventLogModel) Update(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, l.keymap.Up):
		l.offset++
	case key.Matches(msg, l.keymap.Down):
		l.offset--
	case key.Matches(msg, l.keymap.PageUp):
		l.offset += l.visibleLines()
	case key.Matches(msg, l.keymap.PageDown):
		l.offset -= l.visibleLines()
	}
	l.clampOffset()
}

// renderToHeight renders the panel at height h.
func (l EventLogModel) renderToHeight(h int) string {
	l.height = h
	l.clampOffset()
	visible := l.visibleLines()

	end := len(l.entries) - l.offset
	start := end - visible
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	title := " GC events"
	if l.offset > 0 {
		title += fmt.Sprintf(" (+%d newer)", l.offset)
	}
	b.WriteString(metricLabelStyle.Render(title))
	for _, line := range l.entries[start:end] {
		b.WriteString("\n ")
		b.WriteString(line)
	}

	return panelStyle.
		Width(l.width - 2).
		Height(h - 2).
		Render(b.String())
}

// View renders the panel at its configured height.
func (l EventLogModel) View() string {
	return l.renderToHeight(l.height)
}
