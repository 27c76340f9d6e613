package tui

import (
	"fmt"
	"strings"

	"github.com/agbru/spectator/internal/format"
	"github.com/agbru/spectator/internal/gcevent"
)

const defaultHistory = 120

// ChartModel plots heap occupancy after each GC as a braille chart, with
// sparklines for GC duration and system CPU and memory.
type ChartModel struct {
	heapHistory  *Series // used/total after GC, percent
	pauseHistory *Series // elapsed, seconds
	cpuHistory   *Series
	memHistory   *Series
	width        int
	height       int
}

// NewChartModel creates an empty chart.
func NewChartModel() ChartModel {
	return ChartModel{
		heapHistory:  NewSeries(defaultHistory),
		pauseHistory: NewSeries(defaultHistory),
		cpuHistory:   NewSeries(defaultHistory),
		memHistory:   NewSeries(defaultHistory),
	}
}

// SetSize updates dimensions and resizes the histories to the plot width.
func (c *ChartModel) SetSize(w, h int) {
	c.width = w
	c.height = h
	if pw := c.plotWidth(); pw > 0 {
		c.heapHistory.SetLimit(pw * 2)
		c.pauseHistory.SetLimit(pw)
		c.cpuHistory.SetLimit(pw)
		c.memHistory.SetLimit(pw)
	}
}

func (c ChartModel) plotWidth() int {
	return c.width - 16 // borders, padding and the sparkline labels
}

// AddEvent records the heap occupancy and duration of one GC event.
func (c *ChartModel) AddEvent(rec gcevent.Record) {
	c.heapHistory.Add(heapPercent(rec))
	c.pauseHistory.Add(rec.Elapsed)
}

// UpdateSysStats records a CPU and memory sample.
func (c *ChartModel) UpdateSysStats(cpu, mem float64) {
	c.cpuHistory.Add(cpu)
	c.memHistory.Add(mem)
}

// Reset clears all histories.
func (c *ChartModel) Reset() {
	c.heapHistory.Clear()
	c.pauseHistory.Clear()
	c.cpuHistory.Clear()
	c.memHistory.Clear()
}

func heapPercent(rec gcevent.Record) float64 {
	if rec.After.TotalHeapSize == 0 {
		return 0
	}
	return float64(rec.After.UsedHeapSize) / float64(rec.After.TotalHeapSize) * 100
}

// normalize scales values so the largest maps to 100.
func normalize(values []float64) []float64 {
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	out := make([]float64, len(values))
	if peak <= 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / peak * 100
	}
	return out
}

// View renders the chart panel.
func (c ChartModel) View() string {
	var b strings.Builder
	b.WriteString(metricLabelStyle.Render(fmt.Sprintf(" Heap used after GC: %.1f%%", c.heapHistory.Latest())))

	pw := max(c.plotWidth(), 1)
	chartRows := max(c.height-2-1-3, 1) // borders, title, sparklines
	if c.heapHistory.Len() == 0 {
		b.WriteString("\n " + chartEmptyStyle.Render("waiting for GC events..."))
		for i := 1; i < chartRows; i++ {
			b.WriteString("\n")
		}
	} else {
		for _, row := range BrailleChart(c.heapHistory.Values(), pw, chartRows) {
			b.WriteString("\n " + heapChartStyle.Render(row))
		}
	}

	b.WriteString("\n " + metricLabelStyle.Render(fmt.Sprintf("%-6s", "GC")) + " " +
		pauseSparkStyle.Render(Sparkline(normalize(c.pauseHistory.Values()))) + " " +
		metricValueStyle.Render(format.FormatSeconds(c.pauseHistory.Latest())))
	b.WriteString("\n " + metricLabelStyle.Render(fmt.Sprintf("%-6s", "CPU")) + " " +
		cpuSparklineStyle.Render(Sparkline(c.cpuHistory.Values())) + " " +
		metricValueStyle.Render(fmt.Sprintf("%.1f%%", c.cpuHistory.Latest())))
	b.WriteString("\n " + metricLabelStyle.Render(fmt.Sprintf("%-6s", "MEM")) + " " +
		memSparklineStyle.Render(Sparkline(c.memHistory.Values())) + " " +
		metricValueStyle.Render(fmt.Sprintf("%.1f%%", c.memHistory.Latest())))

	return panelStyle.
		Width(c.width - 2).
		Height(c.height - 2).
		Render(b.String())
}
