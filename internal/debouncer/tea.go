package debouncer

import (
	"context"

	tea "charm.land/bubbletea/v2"
)

// Cmd runs the effect on a [TimerScheduler] as a Bubble Tea command. The
// message it produces is a SelfMsg[A].
func (e Effect[A]) Cmd() tea.Cmd {
	return e.CmdWith(TimerScheduler{})
}

// CmdWith is like Cmd but waits on s.
func (e Effect[A]) CmdWith(s Scheduler) tea.Cmd {
	return func() tea.Msg {
		return e.Run(context.Background(), s)
	}
}

// Update is Reconcile for Bubble Tea hosts: when an action is due, the
// returned command emits it as a message.
func Update[A any](msg SelfMsg[A], s State) (State, tea.Cmd) {
	next, action, ok := Reconcile(msg, s)
	if !ok {
		return next, nil
	}
	return next, func() tea.Msg {
		return action
	}
}
