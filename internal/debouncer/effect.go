package debouncer

import (
	"context"
	"time"
)

// Scheduler waits for a delay to elapse. Implementations return an error when
// the delay cannot be completed, for example because ctx was cancelled.
type Scheduler interface {
	Wait(ctx context.Context, d time.Duration) error
}

// SchedulerFunc adapts a function to [Scheduler].
type SchedulerFunc func(ctx context.Context, d time.Duration) error

// Wait implements Scheduler.
func (f SchedulerFunc) Wait(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// TimerScheduler waits on a [time.Timer].
type TimerScheduler struct{}

// Wait implements Scheduler.
func (TimerScheduler) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.NewTimer(max(d, 0))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Effect describes the delayed work requested by one Bounce call. It holds
// no timer; nothing happens until the host runs it.
type Effect[A any] struct {
	Key    string
	Delay  time.Duration
	Action A
}

// Run waits for the delay using s and returns the message to reconcile: a
// [Timeout] on success or a [Failure] if s returned an error. A nil s uses
// [TimerScheduler].
func (e Effect[A]) Run(ctx context.Context, s Scheduler) SelfMsg[A] {
	if s == nil {
		s = TimerScheduler{}
	}
	if err := s.Wait(ctx, e.Delay); err != nil {
		return Failure[A]{Key: e.Key, Action: e.Action, Err: err}
	}
	return Timeout[A]{Key: e.Key, Action: e.Action}
}
