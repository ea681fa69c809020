package debouncer

import "fmt"

// SelfMsg is produced by running an [Effect] and must be passed back to
// [Reconcile]. It is either a [Timeout] or a [Failure].
type SelfMsg[A any] interface {
	selfMsg(A)
}

// Timeout reports that the delay for one Bounce call on Key has elapsed.
type Timeout[A any] struct {
	Key    string
	Action A
}

func (Timeout[A]) selfMsg(A) {}

// Failure reports that the scheduler could not complete the delay for Key.
// Action is the action the failed timer would have carried.
type Failure[A any] struct {
	Key    string
	Action A
	Err    error
}

func (Failure[A]) selfMsg(A) {}

// Error implements error.
func (f Failure[A]) Error() string {
	return fmt.Sprintf("debounce %q: %v", f.Key, f.Err)
}

// Unwrap returns the scheduler error.
func (f Failure[A]) Unwrap() error {
	return f.Err
}
