package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"nathanbeddoewebdev/vssplot/internal/monitor"
	"nathanbeddoewebdev/vssplot/internal/tui/components"
)

// plainWidth is the chart width used for the exit summary.
const plainWidth = 80

// lineRenderer prints the newest reading of each frame as
// "<elapsed seconds>\t<value>".
type lineRenderer struct {
	w io.Writer
}

func (r lineRenderer) Render(fr monitor.Frame) error {
	_, err := fmt.Fprintf(r.w, "%.3f\t%s\n",
		fr.Last.Elapsed.Seconds(),
		strconv.FormatFloat(fr.Last.Value, 'g', -1, 64))
	return err
}

// runPlain samples until ctx is done or a read fails, printing a line per
// reading and a chart of the buffered window on the way out. The chart is
// colored only when color is set, i.e. w is a terminal.
func runPlain(ctx context.Context, w io.Writer, driver *monitor.Driver, interval time.Duration, color bool) error {
	err := driver.Run(ctx, interval, lineRenderer{w: w})

	if _, values := driver.Contents(); len(values) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, components.Sparkline("Live plot of "+driver.Path(), values, plainWidth, color))
	}
	return err
}
