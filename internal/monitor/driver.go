// Package monitor drives the sample-and-redraw loop.
//
// A Driver owns the rolling buffer and the monitoring start instant. Each
// tick reads the datapoint once (retrying communication errors), appends the
// result to the buffer, and hands the whole buffer to a Renderer. Ticks never
// overlap: a slow read delays the next tick rather than queueing ticks.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nathanbeddoewebdev/vssplot/internal/domain"
	"nathanbeddoewebdev/vssplot/internal/history"
	"nathanbeddoewebdev/vssplot/internal/logging"
	"nathanbeddoewebdev/vssplot/internal/metrics"
	"nathanbeddoewebdev/vssplot/internal/retry"
)

// State is the phase of the current tick.
type State int

const (
	Idle State = iota
	Sampling
	Updating
	Rendering
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Updating:
		return "updating"
	case Rendering:
		return "rendering"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Frame is everything a renderer needs to redraw the plot from scratch.
type Frame struct {
	Path  string
	Index int
	// Times holds elapsed seconds since start; Values is index-aligned.
	Times  []float64
	Values []float64
	Last   domain.Sample
	// Min and Max span Values; both are zero for an empty frame.
	Min, Max float64
}

// Renderer clears and redraws the plotting surface.
type Renderer interface {
	Render(Frame) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(Frame) error

func (f RendererFunc) Render(fr Frame) error { return f(fr) }

// Option configures a Driver.
type Option func(*Driver)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// WithLogger sets the driver's logger. Retry warnings use it too unless
// the retry config already carries a logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithMetrics attaches a recorder for sample and retry counters.
func WithMetrics(r *metrics.Recorder) Option {
	return func(d *Driver) {
		d.metrics = r
	}
}

// Driver runs ticks against a single datapoint.
type Driver struct {
	path    string
	reader  domain.Reader
	retry   retry.Config
	buf     *history.Buffer
	start   time.Time
	now     func() time.Time
	state   State
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// New returns an idle Driver with an empty buffer of the given capacity.
// The monitoring start instant is taken from the clock at construction.
func New(reader domain.Reader, path string, capacity int, rc retry.Config, opts ...Option) *Driver {
	d := &Driver{
		path:   path,
		reader: reader,
		retry:  rc,
		buf:    history.New(capacity),
		now:    time.Now,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.retry.Logger == nil {
		d.retry.Logger = d.logger
	}
	onRetry := d.retry.OnRetry
	d.retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		d.metrics.IncRetry()
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
	}

	d.start = d.now()
	return d
}

// Path returns the monitored datapoint path.
func (d *Driver) Path() string { return d.path }

// State returns the phase of the tick in progress, or Idle between ticks.
func (d *Driver) State() State { return d.state }

// Contents returns the buffered times and values, oldest first.
func (d *Driver) Contents() (times, values []float64) { return d.buf.Contents() }

// Capacity returns the rolling buffer's capacity.
func (d *Driver) Capacity() int { return d.buf.Cap() }

// Sample performs one blocking read with retries. It does not touch the
// buffer or the driver state, so it may run off the goroutine that owns
// the driver.
func (d *Driver) Sample(ctx context.Context) (float64, error) {
	began := time.Now()
	v, err := retry.DoValue(ctx, d.retry, retry.IsRetryable, func() (float64, error) {
		return d.reader.Read(ctx, d.path)
	})
	if err != nil {
		if ctx.Err() == nil {
			d.metrics.IncFailure()
			d.logger.Error("read failed", slog.String("path", d.path), logging.Err(err))
		}
		return 0, fmt.Errorf("read %s: %w", d.path, err)
	}
	d.metrics.ObserveSample(v, time.Since(began))
	return v, nil
}

// Record appends v to the buffer, stamped with the time elapsed since start.
func (d *Driver) Record(v float64) domain.Sample {
	s := domain.Sample{Elapsed: d.now().Sub(d.start), Value: v}
	d.buf.Append(s.Elapsed.Seconds(), v)
	return s
}

// Frame builds the redraw payload for frame index from the buffer.
func (d *Driver) Frame(index int) Frame {
	times, values := d.buf.Contents()
	fr := Frame{Path: d.path, Index: index, Times: times, Values: values}
	fr.Min, fr.Max = d.buf.MinMax()
	if t, v, ok := d.buf.Last(); ok {
		fr.Last = domain.Sample{Elapsed: time.Duration(t * float64(time.Second)), Value: v}
	}
	return fr
}

// Tick runs one Sampling, Updating, Rendering cycle. On a read error the
// buffer is left untouched and the error is returned; callers treat it as
// fatal. A nil renderer skips drawing.
func (d *Driver) Tick(ctx context.Context, index int, r Renderer) (domain.Sample, error) {
	defer func() { d.state = Idle }()

	d.state = Sampling
	v, err := d.Sample(ctx)
	if err != nil {
		return domain.Sample{}, err
	}

	d.state = Updating
	s := d.Record(v)
	d.logger.Debug("sample",
		slog.Int("frame", index),
		slog.Float64("elapsed_s", s.Elapsed.Seconds()),
		slog.Float64("value", v),
	)

	if r == nil {
		return s, nil
	}
	d.state = Rendering
	if err := r.Render(d.Frame(index)); err != nil {
		return s, fmt.Errorf("render frame %d: %w", index, err)
	}
	return s, nil
}

// Run ticks every interval until ctx is done or a tick fails. The first
// tick runs immediately. If a tick outlasts the interval the next one
// starts as soon as it returns; missed ticks are not replayed.
func (d *Driver) Run(ctx context.Context, interval time.Duration, r Renderer) error {
	for index := 0; ; index++ {
		started := time.Now()
		if _, err := d.Tick(ctx, index, r); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		wait := interval - time.Since(started)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
