package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nathanbeddoewebdev/vssplot/internal/domain"
	"nathanbeddoewebdev/vssplot/internal/metrics"
	"nathanbeddoewebdev/vssplot/internal/retry"

	"github.com/google/go-cmp/cmp"
)

// fakeClock advances by step on every call.
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

// scriptedReader returns values in order and then repeats the last one.
type scriptedReader struct {
	mu     sync.Mutex
	values []float64
	errs   []error
	calls  int
}

func (r *scriptedReader) Read(_ context.Context, _ string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return 0, r.errs[i]
	}
	if len(r.values) == 0 {
		return domain.SentinelValue, nil
	}
	if i >= len(r.values) {
		i = len(r.values) - 1
	}
	return r.values[i], nil
}

func commErr() error {
	return &domain.CommError{Op: "get", Err: errors.New("connection refused")}
}

// gathered returns the value of the named counter from rec's registry.
func gathered(t *testing.T, rec *metrics.Recorder, name string) float64 {
	t.Helper()
	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func noDelay(attempts int) retry.Config {
	return retry.Config{MaxAttempts: attempts}
}

func TestTick_AppendsAndRenders(t *testing.T) {
	clock := newFakeClock(time.Second)
	reader := &scriptedReader{values: []float64{10, 20, 30, 40}}
	d := New(reader, "Vehicle.Speed", 3, noDelay(1), WithClock(clock.Now))

	var frames []Frame
	r := RendererFunc(func(fr Frame) error {
		frames = append(frames, fr)
		return nil
	})

	for i := 0; i < 4; i++ {
		if _, err := d.Tick(context.Background(), i, r); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	times, values := d.Contents()
	if diff := cmp.Diff([]float64{2, 3, 4}, times); diff != "" {
		t.Errorf("times mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{20, 30, 40}, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	if len(frames) != 4 {
		t.Fatalf("expected 4 renders, got %d", len(frames))
	}
	last := frames[3]
	if last.Index != 3 || last.Path != "Vehicle.Speed" {
		t.Errorf("unexpected frame header: index=%d path=%q", last.Index, last.Path)
	}
	want := domain.Sample{Elapsed: 4 * time.Second, Value: 40}
	if last.Last != want {
		t.Errorf("Last = %+v, want %+v", last.Last, want)
	}
	if diff := cmp.Diff(values, last.Values); diff != "" {
		t.Errorf("frame values mismatch (-want +got):\n%s", diff)
	}
	if last.Min != 20 || last.Max != 40 {
		t.Errorf("frame range = [%v, %v], want [20, 40]", last.Min, last.Max)
	}
	if first := frames[0]; first.Min != 10 || first.Max != 10 {
		t.Errorf("first frame range = [%v, %v], want [10, 10]", first.Min, first.Max)
	}
}

func TestTick_StateTransitions(t *testing.T) {
	var d *Driver
	var seen []State

	reader := domain.ReaderFunc(func(context.Context, string) (float64, error) {
		seen = append(seen, d.State())
		return 1, nil
	})
	d = New(reader, "Vehicle.Speed", 5, noDelay(1))

	r := RendererFunc(func(Frame) error {
		seen = append(seen, d.State())
		return nil
	})

	if d.State() != Idle {
		t.Fatalf("initial state = %v, want idle", d.State())
	}
	if _, err := d.Tick(context.Background(), 0, r); err != nil {
		t.Fatalf("tick: %v", err)
	}
	seen = append(seen, d.State())

	if diff := cmp.Diff([]State{Sampling, Rendering, Idle}, seen); diff != "" {
		t.Errorf("state sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestTick_AbsentValueRecordedAsSentinel(t *testing.T) {
	reader := domain.ReaderFunc(func(context.Context, string) (float64, error) {
		return domain.SentinelValue, nil
	})
	d := New(reader, "Vehicle.Unset", 5, noDelay(1))

	s, err := d.Tick(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Value != 0 {
		t.Errorf("recorded value = %v, want 0", s.Value)
	}
	_, values := d.Contents()
	if diff := cmp.Diff([]float64{0}, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestTick_RecoversWithinRetryBound(t *testing.T) {
	reader := &scriptedReader{
		errs:   []error{commErr(), commErr()},
		values: []float64{0, 0, 7},
	}
	rec := metrics.New("Vehicle.Speed")
	d := New(reader, "Vehicle.Speed", 5, noDelay(3), WithMetrics(rec))

	s, err := d.Tick(context.Background(), 0, nil)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if s.Value != 7 {
		t.Errorf("value = %v, want 7", s.Value)
	}
	if reader.calls != 3 {
		t.Errorf("expected 3 reads, got %d", reader.calls)
	}
	if got := gathered(t, rec, "vssplot_read_retries_total"); got != 2 {
		t.Errorf("retries = %v, want 2", got)
	}
}

func TestTick_RetryExhaustionLeavesBufferUntouched(t *testing.T) {
	reader := &scriptedReader{values: []float64{5}}
	rec := metrics.New("Vehicle.Speed")
	d := New(reader, "Vehicle.Speed", 5, noDelay(3), WithMetrics(rec))

	if _, err := d.Tick(context.Background(), 0, nil); err != nil {
		t.Fatalf("first tick: %v", err)
	}

	reader.mu.Lock()
	reader.errs = []error{nil, commErr(), commErr(), commErr()}
	reader.mu.Unlock()

	rendered := false
	_, err := d.Tick(context.Background(), 1, RendererFunc(func(Frame) error {
		rendered = true
		return nil
	}))

	if !errors.Is(err, domain.ErrCommunication) {
		t.Fatalf("expected communication error, got %v", err)
	}
	if reader.calls != 4 {
		t.Errorf("expected 1 + 3 reads, got %d", reader.calls)
	}
	if rendered {
		t.Error("failed tick must not render")
	}
	if d.State() != Idle {
		t.Errorf("state after failure = %v, want idle", d.State())
	}

	_, values := d.Contents()
	if diff := cmp.Diff([]float64{5}, values); diff != "" {
		t.Errorf("buffer modified by failed tick (-want +got):\n%s", diff)
	}
	if got := gathered(t, rec, "vssplot_read_failures_total"); got != 1 {
		t.Errorf("failures = %v, want 1", got)
	}
	if got := gathered(t, rec, "vssplot_samples_total"); got != 1 {
		t.Errorf("samples = %v, want 1", got)
	}
}

func TestTick_NonCommunicationErrorNotRetried(t *testing.T) {
	reader := &scriptedReader{errs: []error{&domain.BrokerError{Path: "Vehicle.Speed", Code: 403}}}
	d := New(reader, "Vehicle.Speed", 5, noDelay(5))

	_, err := d.Tick(context.Background(), 0, nil)
	var be *domain.BrokerError
	if !errors.As(err, &be) {
		t.Fatalf("expected broker error, got %v", err)
	}
	if reader.calls != 1 {
		t.Errorf("expected a single read, got %d", reader.calls)
	}
}

func TestTick_RenderError(t *testing.T) {
	d := New(&scriptedReader{values: []float64{1}}, "Vehicle.Speed", 5, noDelay(1))
	boom := errors.New("terminal gone")

	_, err := d.Tick(context.Background(), 0, RendererFunc(func(Frame) error { return boom }))
	if !errors.Is(err, boom) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestRun_StopsOnFatalError(t *testing.T) {
	reader := &scriptedReader{
		values: []float64{1, 2},
		errs:   []error{nil, nil, commErr(), commErr(), commErr()},
	}
	d := New(reader, "Vehicle.Speed", 10, noDelay(3))

	renders := 0
	err := d.Run(context.Background(), time.Millisecond, RendererFunc(func(Frame) error {
		renders++
		return nil
	}))

	if !errors.Is(err, domain.ErrCommunication) {
		t.Fatalf("expected communication error, got %v", err)
	}
	if renders != 2 {
		t.Errorf("expected 2 renders before failure, got %d", renders)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	d := New(&scriptedReader{values: []float64{3}}, "Vehicle.Speed", 4, noDelay(1))
	ctx, cancel := context.WithCancel(context.Background())

	renders := 0
	err := d.Run(ctx, time.Millisecond, RendererFunc(func(fr Frame) error {
		renders++
		if fr.Index != renders-1 {
			t.Errorf("frame index %d, want %d", fr.Index, renders-1)
		}
		if renders == 5 {
			cancel()
		}
		return nil
	}))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if renders != 5 {
		t.Errorf("expected 5 renders, got %d", renders)
	}
	times, values := d.Contents()
	if len(times) != 4 || len(values) != 4 {
		t.Errorf("expected buffer at capacity 4, got %d/%d", len(times), len(values))
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Sampling: "sampling", Updating: "updating", Rendering: "rendering"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}
