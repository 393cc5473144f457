package tui

import (
	"context"
	"fmt"
	"time"

	"nathanbeddoewebdev/vssplot/internal/domain"
	"nathanbeddoewebdev/vssplot/internal/monitor"
	"nathanbeddoewebdev/vssplot/internal/tui/components"
	"nathanbeddoewebdev/vssplot/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Messages ---

// sampleTickMsg tells the Update loop it is time to take sample frame.
type sampleTickMsg struct {
	frame int
}

// sampleResultMsg carries the outcome of one blocking read.
type sampleResultMsg struct {
	frame int
	value float64
	err   error
}

// --- Plot model ---

// plotModel is the full-window live plot. The driver is only touched from
// Update, except for Driver.Sample which runs in a command; at most one
// sample is in flight at a time and the next tick is armed only after the
// previous result has been recorded.
type plotModel struct {
	driver   *monitor.Driver
	endpoint string
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int

	frame       int // index of the frame in flight or next to run
	state       monitor.State
	tickStarted time.Time
	paused      bool

	times     []float64
	values    []float64
	lo, hi    float64
	last      domain.Sample
	hasSample bool

	spinner  spinner.Model
	err      error
	quitting bool
}

func newPlotModel(ctx context.Context, driver *monitor.Driver, endpoint string, interval time.Duration) plotModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	ctx, cancel := context.WithCancel(ctx)
	return plotModel{
		driver:      driver,
		endpoint:    endpoint,
		interval:    interval,
		ctx:         ctx,
		cancel:      cancel,
		state:       monitor.Sampling,
		tickStarted: time.Now(),
		spinner:     s,
	}
}

// RunPlot starts the full-window live plot and blocks until the user quits
// or a read fails fatally. A fatal read error is returned as-is.
func RunPlot(ctx context.Context, driver *monitor.Driver, endpoint string, interval time.Duration) error {
	m := newPlotModel(ctx, driver, endpoint, interval)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to run live plot: %w", err)
	}

	final := result.(plotModel)
	return final.err
}

func (m plotModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.sample(m.frame))
}

// sample runs one blocking read (with retries) off the Update goroutine.
func (m plotModel) sample(frame int) tea.Cmd {
	driver, ctx := m.driver, m.ctx
	return func() tea.Msg {
		v, err := driver.Sample(ctx)
		return sampleResultMsg{frame: frame, value: v, err: err}
	}
}

// scheduleTick arms the timer for frame, keeping a fixed cadence measured
// from the start of the previous tick.
func (m plotModel) scheduleTick(frame int) tea.Cmd {
	wait := m.interval - time.Since(m.tickStarted)
	if wait < 0 {
		wait = 0
	}
	return tea.Tick(wait, func(_ time.Time) tea.Msg {
		return sampleTickMsg{frame: frame}
	})
}

// startSample moves the model into Sampling for the current frame.
func (m plotModel) startSample() (plotModel, tea.Cmd) {
	m.state = monitor.Sampling
	m.tickStarted = time.Now()
	return m, m.sample(m.frame)
}

func (m plotModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case sampleTickMsg:
		if m.quitting || m.paused || msg.frame != m.frame || m.state != monitor.Idle {
			return m, nil
		}
		return m.startSample()

	case sampleResultMsg:
		if m.quitting || msg.frame != m.frame {
			return m, nil
		}
		if msg.err != nil {
			m.state = monitor.Idle
			m.err = msg.err
			m.cancel()
			return m, tea.Quit
		}

		m.state = monitor.Updating
		m.last = m.driver.Record(msg.value)
		m.hasSample = true

		m.state = monitor.Rendering
		fr := m.driver.Frame(m.frame)
		m.times, m.values = fr.Times, fr.Values
		m.lo, m.hi = fr.Min, fr.Max

		m.state = monitor.Idle
		m.frame++
		if m.paused {
			return m, nil
		}
		return m, m.scheduleTick(m.frame)

	case spinner.TickMsg:
		if !m.hasSample {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m plotModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case "p", " ":
		m.paused = !m.paused
		if !m.paused && m.state == monitor.Idle {
			return m.startSample()
		}
	}

	return m, nil
}

func (m plotModel) status() string {
	switch {
	case m.paused:
		return "paused"
	case m.state == monitor.Sampling:
		return "sampling"
	default:
		return "live"
	}
}

func (m plotModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, m.driver.Path(), m.endpoint)

	pauseDesc := "pause"
	if m.paused {
		pauseDesc = "resume"
	}
	footer := components.Footer(m.width, []components.KeyBinding{
		{Key: "p", Desc: pauseDesc},
		{Key: "q", Desc: "quit"},
	})

	statusText := fmt.Sprintf("%s  frame %d  %d/%d points  every %s",
		styles.StatusIndicator(m.status()), m.frame, len(m.values), m.driver.Capacity(), m.interval)
	statusBar := components.StatusBar(m.width, statusText, false)

	headerH := lipgloss.Height(header)
	footerH := lipgloss.Height(footer)
	statusH := lipgloss.Height(statusBar)
	contentH := m.height - headerH - footerH - statusH
	if contentH < 1 {
		contentH = 1
	}

	content := m.renderContent(contentH)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar, footer)
}

func (m plotModel) renderContent(height int) string {
	if !m.hasSample {
		loadingText := m.spinner.View() + "  Reading " + m.driver.Path() + "..."
		return lipgloss.Place(
			m.width, height,
			lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render(loadingText),
		)
	}

	title := styles.Title.Render("Live plot of " + m.driver.Path())
	summary := styles.MutedText.Render(components.FormatSummary(m.last.Value, m.lo, m.hi))

	plotW := m.width - 4
	plotH := height - lipgloss.Height(title) - lipgloss.Height(summary)
	plot := components.LinePlot(m.times, m.values, plotW, plotH)

	body := lipgloss.JoinVertical(lipgloss.Left, title, plot, summary)
	return lipgloss.NewStyle().Padding(0, 2).Height(height).Render(body)
}
