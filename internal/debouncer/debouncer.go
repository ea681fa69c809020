// Package debouncer coalesces bursts of keyed events into a single action.
//
// It is built for model-update-command loops such as Bubble Tea. The engine
// never schedules anything itself: Bounce returns an [Effect] describing the
// delay, the host executes it, and the resulting [SelfMsg] is fed back into
// Reconcile. Each key keeps a count of in-flight timers; the action fires
// when the count for that key drops back to zero.
//
//	case tea.KeyPressMsg:
//		var eff debouncer.Effect[tea.Msg]
//		m.debouncer, eff = debouncer.Bounce(time.Second, "search", tea.Msg(searchMsg{}), m.debouncer)
//		return m, eff.Cmd()
//	case debouncer.SelfMsg[tea.Msg]:
//		var cmd tea.Cmd
//		m.debouncer, cmd = debouncer.Update(msg, m.debouncer)
//		return m, cmd
package debouncer

import (
	"log/slog"
	"maps"
	"time"
)

// State tracks the number of in-flight timers per key. The zero value is
// ready to use. State is a value: Bounce and Reconcile return a new State
// and never modify the one they were given.
type State struct {
	pending map[string]int
}

// New returns an empty State.
func New() State {
	return State{}
}

// Len returns the number of keys with at least one timer in flight.
func (s State) Len() int {
	return len(s.pending)
}

// Pending returns the number of in-flight timers for key.
func (s State) Pending(key string) int {
	return s.pending[key]
}

func (s State) with(key string, n int) State {
	pending := maps.Clone(s.pending)
	if pending == nil {
		pending = make(map[string]int, 1)
	}
	pending[key] = n
	return State{pending: pending}
}

func (s State) without(key string) State {
	pending := maps.Clone(s.pending)
	delete(pending, key)
	if len(pending) == 0 {
		pending = nil
	}
	return State{pending: pending}
}

// Bounce records a new request for key and returns the updated state along
// with the effect the host must run. Once delay has elapsed the effect
// yields a [Timeout] carrying key and action.
//
// A zero or negative delay is accepted and fires as soon as the host runs
// the effect.
func Bounce[A any](delay time.Duration, key string, action A, s State) (State, Effect[A]) {
	return s.with(key, s.Pending(key)+1), Effect[A]{
		Key:    key,
		Delay:  delay,
		Action: action,
	}
}

// Reconcile consumes one self message. It returns the new state and, when
// the last in-flight timer for the key resolves, the action to dispatch
// with ok set to true.
//
// A Timeout for a key with nothing pending and any Failure leave the state
// untouched and are reported through slog. A Failure does not release the
// count its timer held, so that key stays pending.
func Reconcile[A any](msg SelfMsg[A], s State) (next State, action A, ok bool) {
	switch msg := msg.(type) {
	case Timeout[A]:
		remaining := s.Pending(msg.Key) - 1
		switch {
		case remaining == 0:
			return s.without(msg.Key), msg.Action, true
		case remaining > 0:
			return s.with(msg.Key, remaining), action, false
		default:
			slog.Warn("Invalid debouncer state: no pending entry for key", "key", msg.Key)
			return s, action, false
		}
	case Failure[A]:
		slog.Error("Debouncer delay failed", "key", msg.Key, "error", msg.Err)
		return s, action, false
	}
	return s, action, false
}
