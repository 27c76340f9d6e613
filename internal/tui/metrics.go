package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/spectator/internal/cli"
	"github.com/agbru/spectator/internal/format"
	"github.com/agbru/spectator/internal/gcevent"
	"github.com/agbru/spectator/internal/metrics"
)

// MetricsModel displays the runtime sample, the last GC event and the
// pipeline counters.
type MetricsModel struct {
	mem          metrics.MemorySnapshot
	numGoroutine int
	pipeline     PipelineMsg
	last         gcevent.Record
	hasLast      bool
	width        int
	height       int
}

// NewMetricsModel creates a new metrics panel.
func NewMetricsModel() MetricsModel {
	return MetricsModel{}
}

// SetSize updates dimensions.
func (m *MetricsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// UpdateMemStats stores the latest runtime sample.
func (m *MetricsModel) UpdateMemStats(msg MemStatsMsg) {
	m.mem = msg.Snapshot
	m.numGoroutine = msg.NumGoroutine
}

// UpdatePipeline stores the latest pipeline counters.
func (m *MetricsModel) UpdatePipeline(msg PipelineMsg) {
	m.pipeline = msg
}

// UpdateEvent stores the last delivered record.
func (m *MetricsModel) UpdateEvent(rec gcevent.Record) {
	m.last = rec
	m.hasLast = true
}

// View renders the metrics panel.
func (m MetricsModel) View() string {
	var rows strings.Builder

	heapStr := metricValueStyle.Render(format.FormatBytes(m.mem.HeapAlloc) + " / " + format.FormatBytes(m.mem.HeapSys))
	gcStr := metricValueStyle.Render(fmt.Sprintf("%d (%d forced, %s pause)",
		m.mem.NumGC, m.mem.NumForcedGC, format.FormatExecutionDuration(m.mem.PauseTotal)))
	pipe := metricLabelStyle.Render(" | ")
	rows.WriteString(fmt.Sprintf("  %s %s%s%s %s",
		metricLabelStyle.Render("Heap:"), heapStr,
		pipe,
		metricLabelStyle.Render("GC:"), gcStr))

	colWidth := (m.width - 6) / 2
	st := m.pipeline.Stats

	lastType, lastElapsed, reclaimed := "-", "-", "-"
	if m.hasLast {
		lastType = m.last.Type
		lastElapsed = format.FormatSeconds(m.last.Elapsed)
		reclaimed = format.FormatDelta(m.last.Before.UsedHeapSize, m.last.After.UsedHeapSize)
	}

	leftCol := []string{
		formatMetricCol("Last GC:", lastType, colWidth),
		formatMetricCol("Duration:", lastElapsed, colWidth),
		formatMetricCol("Heap Δ:", reclaimed, colWidth),
		formatMetricCol("Goroutines:", fmt.Sprintf("%d", m.numGoroutine), colWidth),
	}
	rightCol := []string{
		formatMetricCol("Delivered:", fmt.Sprintf("%d", st.Delivered), colWidth),
		formatMetricCol("Folded:", fmt.Sprintf("%d", st.MissedCycles), colWidth),
		formatMetricCol("Queued:", fmt.Sprintf("%d", st.Queued), colWidth),
		formatMetricCol("FDs:", cli.FormatFD(m.pipeline.FD), colWidth),
	}
	for i := range leftCol {
		rows.WriteString("\n")
		rows.WriteString(leftCol[i])
		rows.WriteString(rightCol[i])
	}

	if m.hasLast {
		for _, sp := range m.last.After.HeapSpaceStats {
			rows.WriteString("\n")
			rows.WriteString(formatMetricCol(sp.SpaceName+":",
				format.FormatBytes(sp.SpaceUsedSize)+" / "+format.FormatBytes(sp.SpaceSize), colWidth*2))
		}
	}

	return panelStyle.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(rows.String())
}

func formatMetricCol(label, value string, colWidth int) string {
	cell := fmt.Sprintf(" %s %s",
		metricLabelStyle.Render(fmt.Sprintf("%-12s", label)),
		metricValueStyle.Render(value))
	// Pad to fixed column width using lipgloss-aware width
	visible := lipgloss.Width(cell)
	if visible < colWidth {
		cell += strings.Repeat(" ", colWidth-visible)
	}
	return cell
}
