package tui

import "strings"

// Plot inputs are percentages; values outside 0..100 are clamped.

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

func clampPercent(v float64) float64 {
	return min(max(v, 0), 100)
}

// Sparkline renders one block character per value.
func Sparkline(values []float64) string {
	var b strings.Builder
	top := len(sparkLevels) - 1
	for _, v := range values {
		level := int(clampPercent(v) / 100 * float64(top))
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}

const brailleBlank = 0x2800

// brailleBit[x][y] is the dot bit for column x (0..1) and row y (0..3) of a
// braille cell.
var brailleBit = [2][4]rune{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// BrailleChart plots values as dots on a width x rows grid of braille cells,
// two samples per cell horizontally and four dot rows per text row. The newest
// value sits at the right edge; older values that do not fit are dropped.
func BrailleChart(values []float64, width, rows int) []string {
	if width <= 0 || rows <= 0 || len(values) == 0 {
		return nil
	}
	cols, dots := width*2, rows*4
	if len(values) > cols {
		values = values[len(values)-cols:]
	}
	offset := cols - len(values)

	cells := make([][]rune, rows)
	for r := range cells {
		cells[r] = []rune(strings.Repeat(string(rune(brailleBlank)), width))
	}
	for i, v := range values {
		x := offset + i
		// Row 0 is the top of the chart.
		y := dots - 1 - int(clampPercent(v)/100*float64(dots-1))
		cells[y/4][x/2] |= brailleBit[x%2][y%4]
	}

	out := make([]string, rows)
	for r, row := range cells {
		out[r] = string(row)
	}
	return out
}
