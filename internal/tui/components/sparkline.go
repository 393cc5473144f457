package components

import (
	"fmt"
	"math"

	"nathanbeddoewebdev/vssplot/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// sparklineHeight is the fixed height of the plain-output chart.
const sparklineHeight = 8

// Sparkline renders a single series as an ASCII chart with a label header
// and a cur/min/max summary. Used where a full-window plot is unavailable.
// With color false the output carries no ANSI escapes, so it can be
// redirected to a file. NaN and infinite readings are skipped.
func Sparkline(label string, data []float64, width int, color bool) string {
	render := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	data = finite(data)
	if len(data) == 0 {
		return render(styles.MutedText, label+": no data")
	}

	// Reserve space for Y-axis labels (number + " ┤" ≈ 9 chars).
	plotWidth := width - 9
	if plotWidth < 10 {
		plotWidth = 10
	}

	opts := []asciigraph.Option{
		asciigraph.Height(sparklineHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(2),
		asciigraph.Caption("Time (s) →"),
	}
	if color {
		opts = append(opts,
			asciigraph.SeriesColors(asciigraph.DodgerBlue),
			asciigraph.LabelColor(asciigraph.Default),
		)
	}
	chart := asciigraph.Plot(data, opts...)

	header := render(styles.Label, label)
	summary := render(styles.MutedText, "  "+Summary(data))
	return lipgloss.JoinVertical(lipgloss.Left, header, chart, summary)
}

// Summary formats the current (latest), minimum and maximum of data,
// ignoring NaN and infinite readings.
func Summary(data []float64) string {
	data = finite(data)
	if len(data) == 0 {
		return "cur: -  min: -  max: -"
	}
	lo, hi := minMax(data)
	return FormatSummary(data[len(data)-1], lo, hi)
}

// FormatSummary formats an already known current, minimum and maximum.
func FormatSummary(current, lo, hi float64) string {
	return fmt.Sprintf("cur: %s  min: %s  max: %s",
		FormatValue(current), FormatValue(lo), FormatValue(hi))
}

// finite returns data without NaN and infinite values. The input is
// returned as-is when every value is finite.
func finite(data []float64) []float64 {
	for i, v := range data {
		if isFinite(v) {
			continue
		}
		out := make([]float64, 0, len(data)-1)
		out = append(out, data[:i]...)
		for _, w := range data[i+1:] {
			if isFinite(w) {
				out = append(out, w)
			}
		}
		return out
	}
	return data
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// minMax returns the minimum and maximum values from a slice.
func minMax(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	min, max := data[0], data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// FormatValue renders a reading, using human-readable suffixes for large
// magnitudes and trimming trailing zeros for small ones.
func FormatValue(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fG", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return fmt.Sprintf("%.4g", v)
	}
}
