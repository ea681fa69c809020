// Package loop hosts a debouncer outside of Bubble Tea. A Loop owns one
// debouncer.State and applies every bounce and reconcile on a single
// goroutine, so callers on any goroutine can bounce safely.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bounce/internal/debouncer"
	"github.com/charmbracelet/bounce/internal/pubsub"
	"github.com/charmbracelet/bounce/internal/tracing"
	"github.com/google/uuid"
)

var (
	// ErrStopped is returned when the loop is not running anymore.
	ErrStopped = errors.New("loop stopped")
	// ErrRunning is returned by Run when the loop is already running.
	ErrRunning = errors.New("loop already running")
)

type bounceRequest[A any] struct {
	delay  time.Duration
	key    string
	action A
}

// Loop serializes access to a debouncer.State and publishes every action
// that fires.
type Loop[A any] struct {
	id        string
	name      string
	scheduler debouncer.Scheduler
	broker    *pubsub.Broker[A]

	bounces  chan bounceRequest[A]
	selfMsgs chan debouncer.SelfMsg[A]
	queries  chan chan int

	running  atomic.Bool
	stopped  chan struct{}
	stopOnce sync.Once
}

// Option configures a Loop.
type Option func(*options)

type options struct {
	scheduler debouncer.Scheduler
	id        string
}

// WithScheduler sets the delay primitive. Defaults to debouncer.TimerScheduler.
func WithScheduler(s debouncer.Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithID sets the run ID used for trace correlation. Defaults to a random
// UUID.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// New creates a loop. name identifies the host in logs and traces.
func New[A any](name string, opts ...Option) *Loop[A] {
	o := options{scheduler: debouncer.TimerScheduler{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	return &Loop[A]{
		id:        o.id,
		name:      name,
		scheduler: o.scheduler,
		broker:    pubsub.NewBroker[A](),
		bounces:   make(chan bounceRequest[A]),
		selfMsgs:  make(chan debouncer.SelfMsg[A]),
		queries:   make(chan chan int),
		stopped:   make(chan struct{}),
	}
}

// ID returns the run ID.
func (l *Loop[A]) ID() string {
	return l.id
}

// Subscribe returns a channel of dispatched and dropped actions.
func (l *Loop[A]) Subscribe(ctx context.Context) <-chan pubsub.Event[A] {
	return l.broker.Subscribe(ctx)
}

// Bounce asks the loop to debounce action under key. It blocks until the
// loop has recorded the request.
func (l *Loop[A]) Bounce(ctx context.Context, delay time.Duration, key string, action A) error {
	select {
	case l.bounces <- bounceRequest[A]{delay: delay, key: key, action: action}:
		return nil
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of keys still waiting to fire.
func (l *Loop[A]) Pending(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	select {
	case l.queries <- reply:
	case <-l.stopped:
		return 0, ErrStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Run processes bounces and timer completions until ctx is done. Timers
// still in flight are abandoned. A Loop can only run once.
func (l *Loop[A]) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}

	run := tracing.StartRun(ctx, l.id, l.name)
	defer run.End()
	ctx = run.Context()

	var wg sync.WaitGroup
	defer func() {
		l.stop()
		wg.Wait()
		l.broker.Shutdown()
	}()

	slog.Debug("Debounce loop started", "name", l.name, "id", l.id)

	state := debouncer.New()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Debounce loop stopped", "name", l.name, "pending", state.Len())
			return nil

		case req := <-l.bounces:
			span := tracing.StartBounce(ctx, req.key, req.delay)
			var eff debouncer.Effect[A]
			state, eff = debouncer.Bounce(req.delay, req.key, req.action, state)
			span.SetPending(state.Pending(req.key))
			span.End()

			wg.Go(func() {
				msg := eff.Run(ctx, l.scheduler)
				select {
				case l.selfMsgs <- msg:
				case <-ctx.Done():
				}
			})

		case msg := <-l.selfMsgs:
			state = l.reconcile(ctx, msg, state)

		case reply := <-l.queries:
			reply <- state.Len()
		}
	}
}

func (l *Loop[A]) reconcile(ctx context.Context, msg debouncer.SelfMsg[A], state debouncer.State) debouncer.State {
	var key string
	switch msg := msg.(type) {
	case debouncer.Timeout[A]:
		key = msg.Key
	case debouncer.Failure[A]:
		key = msg.Key
	}

	span := tracing.StartReconcile(ctx, key)
	defer span.End()

	next, action, ok := debouncer.Reconcile(msg, state)
	span.SetPending(next.Pending(key))

	failure, failed := msg.(debouncer.Failure[A])
	switch {
	case ok:
		span.SetOutcome(tracing.OutcomeDispatched)
		l.broker.Publish(pubsub.DispatchedEvent, key, action)
	case failed:
		span.SetOutcome(tracing.OutcomeFailed)
		span.SetError(failure.Err)
		l.broker.Publish(pubsub.DroppedEvent, key, failure.Action)
	case next.Pending(key) > 0:
		span.SetOutcome(tracing.OutcomePending)
	default:
		span.SetOutcome(tracing.OutcomeUnderflow)
	}
	return next
}

func (l *Loop[A]) stop() {
	l.stopOnce.Do(func() {
		close(l.stopped)
	})
}
