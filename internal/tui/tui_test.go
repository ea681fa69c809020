package tui

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/bounce/internal/debouncer"
	"github.com/stretchr/testify/require"
)

var instant = debouncer.SchedulerFunc(func(context.Context, time.Duration) error { return nil })

func newTestModel() Model {
	return New(Options{
		InputDelay: 1500 * time.Millisecond,
		ResetDelay: 2500 * time.Millisecond,
		Scheduler:  instant,
	})
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func typeRune(t *testing.T, m Model, r rune) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyPressMsg{Code: r, Text: string(r)})
}

func TestTyping(t *testing.T) {
	t.Parallel()

	m := newTestModel()
	m, _ = typeRune(t, m, 'h')
	m, _ = typeRune(t, m, 'i')

	require.Equal(t, "hi", m.input.Value())
	require.Equal(t, statusTyping, m.status)
	require.Equal(t, 2, m.debouncer.Pending(inputKey))
	require.Contains(t, m.render(), "You are typing")
}

func TestDebounceCycle(t *testing.T) {
	t.Parallel()

	m := newTestModel()
	m.input.SetValue("hello")
	m.status = statusTyping

	first := m.bounce(m.opts.InputDelay, inputKey, endOfInputMsg{})
	second := m.bounce(m.opts.InputDelay, inputKey, endOfInputMsg{})
	require.Equal(t, 2, m.debouncer.Pending(inputKey))

	// The first timer resolving only lowers the count.
	m, cmd := update(t, m, first())
	require.Nil(t, cmd)
	require.Equal(t, 1, m.debouncer.Pending(inputKey))
	require.Equal(t, statusTyping, m.status)

	// The last one dispatches end of input.
	m, cmd = update(t, m, second())
	require.NotNil(t, cmd)
	require.Zero(t, m.debouncer.Len())

	msg := cmd()
	require.Equal(t, endOfInputMsg{}, msg)

	m, cmd = update(t, m, msg)
	require.Equal(t, statusStopped, m.status)
	require.Equal(t, 1, m.debouncer.Pending(resetKey))
	require.Contains(t, m.render(), "You stopped typing")

	// Reset timer fires and the demo clears itself.
	m, cmd = update(t, m, cmd())
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	require.Equal(t, statusInitial, m.status)
	require.Empty(t, m.input.Value())
	require.Zero(t, m.debouncer.Len())
}

func TestUnknownSelfMessageIsIgnored(t *testing.T) {
	t.Parallel()

	m := newTestModel()
	m, cmd := update(t, m, debouncer.Timeout[tea.Msg]{Key: "ghost", Action: resetMsg{}})
	require.Nil(t, cmd)
	require.Zero(t, m.debouncer.Len())
	require.Equal(t, statusInitial, m.status)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	t.Run("quit", func(t *testing.T) {
		t.Parallel()

		m := newTestModel()
		_, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
		require.NotNil(t, cmd)
		require.Equal(t, tea.Quit(), cmd())
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()

		m := newTestModel()
		m, _ = typeRune(t, m, 'x')
		pending := m.bounce(m.opts.InputDelay, inputKey, endOfInputMsg{})
		m, cmd := update(t, m, tea.KeyPressMsg{Code: 'u', Mod: tea.ModCtrl})
		require.Nil(t, cmd)
		require.Empty(t, m.input.Value())
		require.Equal(t, statusInitial, m.status)

		// Timers started before the clear still settle, but end of input
		// no longer reports on the empty field.
		m, _ = update(t, m, debouncer.Timeout[tea.Msg]{Key: inputKey, Action: endOfInputMsg{}})
		m, cmd = update(t, m, pending())
		require.NotNil(t, cmd)
		require.Zero(t, m.debouncer.Len())

		m, cmd = update(t, m, cmd())
		require.Nil(t, cmd)
		require.Equal(t, statusInitial, m.status)
		require.Zero(t, m.debouncer.Pending(resetKey))
		require.NotContains(t, m.render(), "You stopped typing")
	})
}

func TestWindowSize(t *testing.T) {
	t.Parallel()

	m := newTestModel()
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 50})
	require.Equal(t, 70, m.width)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 20})
	require.Equal(t, 40, m.width)
}
