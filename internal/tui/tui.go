// Package tui is an interactive demo of the debouncer. Typing bounces the
// "user_input" key; once the input has been quiet for the configured delay
// the demo reports that typing stopped, then bounces "reset_demo" to clear
// itself.
package tui

import (
	"context"
	"log/slog"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/bounce/internal/debouncer"
	"github.com/charmbracelet/x/exp/charmtone"
)

const (
	inputKey = "user_input"
	resetKey = "reset_demo"
)

type status int

const (
	statusInitial status = iota
	statusTyping
	statusStopped
)

// endOfInputMsg fires once the input has been quiet for the input delay.
type endOfInputMsg struct{}

// resetMsg fires once the "stopped typing" notice has been shown long enough.
type resetMsg struct{}

// Options configures the demo.
type Options struct {
	InputDelay time.Duration
	ResetDelay time.Duration
	// Scheduler waits for debounce delays. Defaults to a real timer.
	Scheduler debouncer.Scheduler
}

// Model is the demo's Bubble Tea model.
type Model struct {
	opts      Options
	debouncer debouncer.State
	status    status

	width int
	input textinput.Model
	keys  KeyMap
	help  help.Model
}

var _ tea.Model = Model{}

// New creates the demo model.
func New(opts Options) Model {
	if opts.Scheduler == nil {
		opts.Scheduler = debouncer.TimerScheduler{}
	}

	ti := textinput.New()
	ti.Placeholder = "Type something..."
	ti.Prompt = "> "
	ti.SetWidth(40)
	ti.Focus()

	return Model{
		opts:      opts,
		debouncer: debouncer.New(),
		input:     ti,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		width:     60,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(70, msg.Width)
		m.input.SetWidth(m.width - paddingHorizontal*2)
		return m, nil

	case debouncer.SelfMsg[tea.Msg]:
		var cmd tea.Cmd
		m.debouncer, cmd = debouncer.Update(msg, m.debouncer)
		return m, cmd

	case endOfInputMsg:
		// Input cleared while its timers were in flight.
		if m.status != statusTyping {
			return m, nil
		}
		slog.Debug("Input settled", "value", m.input.Value())
		m.status = statusStopped
		return m, m.bounce(m.opts.ResetDelay, resetKey, resetMsg{})

	case resetMsg:
		m.input.SetValue("")
		m.status = statusInitial
		return m, nil

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.input.SetValue("")
			m.status = statusInitial
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() == before {
			return m, cmd
		}
		m.status = statusTyping
		return m, tea.Batch(cmd, m.bounce(m.opts.InputDelay, inputKey, endOfInputMsg{}))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) bounce(delay time.Duration, id string, action tea.Msg) tea.Cmd {
	var eff debouncer.Effect[tea.Msg]
	m.debouncer, eff = debouncer.Bounce(delay, id, action, m.debouncer)
	return eff.CmdWith(m.opts.Scheduler)
}

const paddingHorizontal = 2

var (
	titleStyle   = lipgloss.NewStyle().Foreground(charmtone.Dolly).Bold(true).Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(charmtone.Squid).Padding(0, 1)
	typingStyle  = lipgloss.NewStyle().Foreground(charmtone.Zest).Padding(0, 1)
	stoppedStyle = lipgloss.NewStyle().Foreground(charmtone.Guac).Padding(0, 1)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(charmtone.Charple).Padding(1, paddingHorizontal-1)
)

func (m Model) statusLine() string {
	switch m.status {
	case statusTyping:
		return typingStyle.Render("You are typing...")
	case statusStopped:
		return stoppedStyle.Render("You stopped typing. Resetting soon.")
	default:
		return mutedStyle.Render("Start typing to see the debouncer at work.")
	}
}

func (m Model) render() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Debouncer"),
		mutedStyle.Render("Your input is only reported once you pause."),
		"",
		lipgloss.NewStyle().Padding(0, 1).Render(m.input.View()),
		"",
		m.statusLine(),
		"",
		lipgloss.NewStyle().Padding(0, 1).Render(m.help.View(m.keys)),
	)
	return boxStyle.Width(m.width).Render(content)
}

// View implements tea.Model.
func (m Model) View() tea.View {
	return tea.NewView(m.render())
}

// Run starts the demo and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
