package components

import (
	"nathanbeddoewebdev/vssplot/internal/tui/styles"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart/wavelinechart"
	"github.com/charmbracelet/lipgloss"
)

// Axis captions drawn around every plot.
const (
	XAxisCaption = "Time (s)"
	YAxisCaption = "Datapoint Value"
)

// minPlotWidth and minPlotHeight keep the chart legible on tiny terminals.
const (
	minPlotWidth  = 20
	minPlotHeight = 5
)

// LinePlot draws times/values as a line chart sized width x height,
// including the axis captions. The chart is rebuilt from scratch on every
// call; nothing is carried over between frames. Points with a NaN or
// infinite coordinate are not drawn.
func LinePlot(times, values []float64, width, height int) string {
	chartH := height - 2 // captions above and below
	if width < minPlotWidth {
		width = minPlotWidth
	}
	if chartH < minPlotHeight {
		chartH = minPlotHeight
	}

	yCaption := styles.Label.Render(YAxisCaption)
	xCaption := styles.CenterText(styles.Label.Render(XAxisCaption), width)

	times, values = finitePairs(times, values)
	n := len(times)
	if n == 0 {
		empty := lipgloss.Place(width, chartH, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("Waiting for samples..."))
		return lipgloss.JoinVertical(lipgloss.Left, yCaption, empty, xCaption)
	}

	minX, maxX := times[0], times[n-1]
	if maxX <= minX {
		maxX = minX + 1
	}
	minY, maxY := minMax(values)
	if maxY <= minY {
		minY, maxY = minY-1, maxY+1
	}

	chart := wavelinechart.New(width, chartH,
		wavelinechart.WithXYRange(minX, maxX, minY, maxY),
	)
	for i := 0; i < n; i++ {
		chart.Plot(canvas.Float64Point{X: times[i], Y: values[i]})
	}
	chart.Draw()

	return lipgloss.JoinVertical(lipgloss.Left, yCaption, styles.PlotLine.Render(chart.View()), xCaption)
}

// finitePairs returns the index-aligned pairs whose time and value are both
// finite, truncated to the shorter input.
func finitePairs(times, values []float64) ([]float64, []float64) {
	n := min(len(times), len(values))
	ts := make([]float64, 0, n)
	vs := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if isFinite(times[i]) && isFinite(values[i]) {
			ts = append(ts, times[i])
			vs = append(vs, values[i])
		}
	}
	return ts, vs
}
