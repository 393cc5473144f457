package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nathanbeddoewebdev/vssplot/internal/domain"
	"nathanbeddoewebdev/vssplot/internal/monitor"
	"nathanbeddoewebdev/vssplot/internal/retry"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

type countingReader struct {
	calls int
	err   error
}

func (r *countingReader) Read(context.Context, string) (float64, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	return float64(r.calls * 10), nil
}

func newTestModel(t *testing.T, reader domain.Reader, capacity int) plotModel {
	t.Helper()
	driver := monitor.New(reader, "Vehicle.Speed", capacity, retry.Config{MaxAttempts: 3})
	m := newPlotModel(context.Background(), driver, "127.0.0.1:55555", time.Hour)
	t.Cleanup(m.cancel)
	return m
}

func update(t *testing.T, m plotModel, msg tea.Msg) (plotModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(plotModel)
	if !ok {
		t.Fatalf("Update returned %T, want plotModel", next)
	}
	return pm, cmd
}

// runSample executes a sampling command and feeds the result back.
func runSample(t *testing.T, m plotModel, cmd tea.Cmd) (plotModel, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a sampling command, got nil")
	}
	msg, ok := cmd().(sampleResultMsg)
	if !ok {
		t.Fatal("command did not produce a sample result")
	}
	return update(t, m, msg)
}

func TestPlotModel_RecordsSamplesAndArmsNextTick(t *testing.T) {
	reader := &countingReader{}
	m := newTestModel(t, reader, 2)

	if m.state != monitor.Sampling {
		t.Fatalf("initial state = %v, want sampling", m.state)
	}

	m, cmd := runSample(t, m, m.sample(m.frame))
	if cmd == nil {
		t.Fatal("expected next tick to be armed")
	}
	if m.state != monitor.Idle || m.frame != 1 || !m.hasSample {
		t.Fatalf("unexpected model after first sample: state=%v frame=%d hasSample=%v", m.state, m.frame, m.hasSample)
	}

	for i := 0; i < 2; i++ {
		var sampleCmd tea.Cmd
		m, sampleCmd = update(t, m, sampleTickMsg{frame: m.frame})
		if m.state != monitor.Sampling {
			t.Fatalf("tick %d: state = %v, want sampling", i, m.state)
		}
		m, _ = runSample(t, m, sampleCmd)
	}

	if diff := cmp.Diff([]float64{20, 30}, m.values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if m.lo != 20 || m.hi != 30 {
		t.Errorf("summary range = [%v, %v], want [20, 30]", m.lo, m.hi)
	}
	if len(m.times) != len(m.values) {
		t.Errorf("times/values misaligned: %d vs %d", len(m.times), len(m.values))
	}
	if reader.calls != 3 {
		t.Errorf("expected 3 reads, got %d", reader.calls)
	}
}

func TestPlotModel_IgnoresStaleAndOverlappingTicks(t *testing.T) {
	m := newTestModel(t, &countingReader{}, 5)

	// A tick while the first read is still in flight must not start another.
	m, cmd := update(t, m, sampleTickMsg{frame: 0})
	if cmd != nil {
		t.Fatal("tick during sampling should be ignored")
	}

	m, _ = runSample(t, m, m.sample(m.frame))

	// A tick for an old frame is ignored.
	if _, cmd := update(t, m, sampleTickMsg{frame: 0}); cmd != nil {
		t.Fatal("stale tick should be ignored")
	}
	// A late result for an old frame is ignored.
	before := len(m.values)
	m, _ = update(t, m, sampleResultMsg{frame: 0, value: 99})
	if len(m.values) != before {
		t.Fatal("stale result must not be recorded")
	}
}

func TestPlotModel_FatalErrorQuits(t *testing.T) {
	reader := &countingReader{err: &domain.CommError{Op: "get", Err: errors.New("connection refused")}}
	m := newTestModel(t, reader, 5)

	m, cmd := runSample(t, m, m.sample(m.frame))

	if !errors.Is(m.err, domain.ErrCommunication) {
		t.Fatalf("expected communication error, got %v", m.err)
	}
	if reader.calls != 3 {
		t.Errorf("expected 3 attempts before giving up, got %d", reader.calls)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if len(m.values) != 0 {
		t.Errorf("failed tick must not add samples, got %v", m.values)
	}
}

func TestPlotModel_PauseAndResume(t *testing.T) {
	m := newTestModel(t, &countingReader{}, 5)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if !m.paused {
		t.Fatal("expected paused")
	}

	// The read already in flight still lands, but no tick is armed.
	m, cmd := runSample(t, m, m.sample(m.frame))
	if cmd != nil {
		t.Fatal("no tick should be armed while paused")
	}
	if _, cmd := update(t, m, sampleTickMsg{frame: m.frame}); cmd != nil {
		t.Fatal("ticks are ignored while paused")
	}

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if m.paused || m.state != monitor.Sampling {
		t.Fatalf("resume should start sampling: paused=%v state=%v", m.paused, m.state)
	}
	m, _ = runSample(t, m, cmd)
	if len(m.values) != 2 {
		t.Errorf("expected 2 samples after resume, got %d", len(m.values))
	}
}

func TestPlotModel_QuitKey(t *testing.T) {
	m := newTestModel(t, &countingReader{}, 5)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !m.quitting {
		t.Fatal("expected quitting")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if m.ctx.Err() == nil {
		t.Error("quitting should cancel in-flight reads")
	}
	if m.err != nil {
		t.Errorf("user quit is not an error, got %v", m.err)
	}
}

func TestPlotModel_View(t *testing.T) {
	m := newTestModel(t, &countingReader{}, 5)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	if view := m.View(); !strings.Contains(view, "Reading Vehicle.Speed") {
		t.Errorf("expected loading text before first sample:\n%s", view)
	}

	m, _ = runSample(t, m, m.sample(m.frame))
	view := m.View()
	for _, want := range []string{"Live plot of Vehicle.Speed", "Datapoint Value", "Time (s)", "cur: 10  min: 10  max: 10", "1/5 points"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
}
