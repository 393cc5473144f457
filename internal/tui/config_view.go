package tui

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/vssplot/internal/config"
	"nathanbeddoewebdev/vssplot/internal/tui/components"
	"nathanbeddoewebdev/vssplot/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Config messages ---

type configSavedMsg struct {
	key string
}

type configSaveErrorMsg struct {
	err error
}

// --- Config model ---

// configViewModel lists the persisted plot defaults and edits them in
// place. Invalid values are rejected before anything is written.
type configViewModel struct {
	cfg  *config.Config
	keys []config.KeySpec
	save func(*config.Config) error

	cursor  int
	editing bool
	editor  textinput.Model

	width  int
	height int

	status  string
	isError bool
}

func newConfigViewModel(cfg *config.Config) configViewModel {
	return configViewModel{
		cfg:  cfg,
		keys: config.Keys,
		save: func(c *config.Config) error { return c.Save() },
	}
}

// RunConfigView starts the interactive config viewer/editor TUI.
func RunConfigView() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	p := tea.NewProgram(newConfigViewModel(cfg), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func (m configViewModel) Init() tea.Cmd {
	return nil
}

func (m configViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case configSavedMsg:
		m.editing = false
		m.status = msg.key + " saved"
		m.isError = false
		return m, nil

	case configSaveErrorMsg:
		m.status = "Error: " + msg.err.Error()
		m.isError = true
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m configViewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.keys)-1 {
			m.cursor++
		}
	case "enter", "e":
		spec := m.keys[m.cursor]
		ti := textinput.New()
		ti.SetValue(spec.Get(m.cfg))
		ti.Focus()
		ti.Width = 30
		ti.Placeholder = "enter value"
		m.editor = ti
		m.editing = true
		m.status = ""
		return m, textinput.Blink
	}

	return m, nil
}

func (m configViewModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.editor.Value())
		spec := m.keys[m.cursor]

		// Apply to a copy so a rejected value leaves the loaded config intact.
		next := *m.cfg
		if err := spec.Set(&next, value); err != nil {
			m.status = "Error: " + err.Error()
			m.isError = true
			return m, nil
		}
		*m.cfg = next
		return m, m.saveConfig(spec.Name)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m configViewModel) saveConfig(key string) tea.Cmd {
	cfg, save := m.cfg, m.save
	return func() tea.Msg {
		if err := save(cfg); err != nil {
			return configSaveErrorMsg{err: err}
		}
		return configSavedMsg{key: key}
	}
}

func (m configViewModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "config", "")

	var footerBindings []components.KeyBinding
	if m.editing {
		footerBindings = []components.KeyBinding{
			{Key: "enter", Desc: "save"},
			{Key: "esc", Desc: "cancel"},
		}
	} else {
		footerBindings = []components.KeyBinding{
			{Key: "j/k", Desc: "navigate"},
			{Key: "e", Desc: "edit"},
			{Key: "q", Desc: "quit"},
		}
	}
	footer := components.Footer(m.width, footerBindings)

	statusBar := ""
	if m.status != "" {
		statusBar = components.StatusBar(m.width, m.status, m.isError)
	}

	headerH := lipgloss.Height(header)
	footerH := lipgloss.Height(footer)
	statusH := lipgloss.Height(statusBar)
	contentH := m.height - headerH - footerH - statusH
	if contentH < 1 {
		contentH = 1
	}

	content := m.renderContent(contentH)

	sections := []string{header, content}
	if statusBar != "" {
		sections = append(sections, statusBar)
	}
	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m configViewModel) renderContent(height int) string {
	title := styles.Title.Render("Plot defaults")

	cardWidth := 60
	labelWidth := 22

	rows := make([]string, 0, len(m.keys)+1)
	for i, spec := range m.keys {
		isSelected := i == m.cursor

		prefix := "  "
		if isSelected {
			prefix = styles.AccentText.Render("> ")
		}

		value := spec.Get(m.cfg)
		if value == "" {
			value = "(default)"
		}

		var row string
		switch {
		case isSelected && m.editing:
			row = prefix + styles.Label.Width(labelWidth).Render(spec.Name) + m.editor.View()
		case isSelected:
			row = prefix + styles.Label.Width(labelWidth).Render(spec.Name) + styles.Value.Bold(true).Render(value)
		default:
			row = prefix + styles.MutedText.Width(labelWidth).Render(spec.Name) + styles.MutedText.Render(value)
		}
		rows = append(rows, row)

		if isSelected && !m.editing {
			rows = append(rows, strings.Repeat(" ", 4)+styles.MutedText.Italic(true).Render(spec.Description))
		}
	}

	card := styles.Card.Width(cardWidth).Render(strings.Join(rows, "\n"))
	combined := lipgloss.JoinVertical(lipgloss.Center, title, "", card)

	return lipgloss.Place(
		m.width, height,
		lipgloss.Center, lipgloss.Center,
		combined,
	)
}
