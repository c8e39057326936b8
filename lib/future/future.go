package future

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("future")

	// ErrCancelled is the failure of a future that was cancelled before it resolved
	ErrCancelled = errors.New("future cancelled")
	// ErrTimeout is returned by GetTimeout if the future did not resolve in time.
	// The future itself stays pending.
	ErrTimeout = errors.New("timed out waiting for future")
)

// --------------------------------------------------------------------------
// State
// --------------------------------------------------------------------------

// State is the lifecycle state of a Future.
// Only StatePending may transition, all other states are terminal.
type State int32

const (
	StatePending   State = iota // The result is not known yet
	StateSucceeded              // Resolved with a value
	StateFailed                 // Resolved with an error
	StateCancelled              // Cancelled before the result was known

	// stateCompleting is held while the result slot is written. It is never
	// visible through State().
	stateCompleting
)

func (s State) String() string {
	switch s {
	case StatePending, stateCompleting:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Future
// --------------------------------------------------------------------------

// Listener is called exactly once when the future it is registered on resolves.
type Listener[T any] func(f *Future[T])

// Future is a single-assignment container for a value of type T that becomes
// known at some point in the future (or a failure).
//
// The zero value is not usable, create futures with New or NewWithCancel.
//
// Thread-safety: All methods are safe for concurrent use.
type Future[T any] struct {
	state atomic.Int32
	value T
	err   error
	done  chan struct{}

	mu        sync.Mutex // protects listeners
	listeners []Listener[T]

	// onCancel is asked whether the work behind the future can still be abandoned
	onCancel func() bool
}

// New creates a pending future that can always be cancelled while pending
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// NewWithCancel creates a pending future. On Cancel() the onCancel hook is called
// first, if it returns false the cancellation is rejected and the future stays pending.
func NewWithCancel[T any](onCancel func() bool) *Future[T] {
	return &Future[T]{done: make(chan struct{}), onCancel: onCancel}
}

// Succeeded returns a future that is already resolved with v
func Succeeded[T any](v T) *Future[T] {
	f := New[T]()
	f.Complete(v)
	return f
}

// Failed returns a future that is already resolved with err
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	f.Fail(err)
	return f
}

// Complete resolves the future successfully with v.
// Returns false if the future was already resolved (the value is discarded).
func (f *Future[T]) Complete(v T) bool {
	return f.resolve(StateSucceeded, v, nil)
}

// Fail resolves the future with err.
// Returns false if the future was already resolved (the error is discarded).
func (f *Future[T]) Fail(err error) bool {
	var zero T
	if err == nil {
		err = errors.New("future failed with nil error")
	}
	return f.resolve(StateFailed, zero, err)
}

// Cancel tries to cancel the pending future. It returns true only if the future
// ended up in the StateCancelled state because of this call (or of a cancellation
// that was triggered by it, e.g. through a chain of adapters).
// Cancelling a resolved future is rejected and returns false.
func (f *Future[T]) Cancel() bool {
	if State(f.state.Load()) != StatePending {
		return false
	}
	if f.onCancel == nil {
		return f.cancelled()
	}
	if !f.onCancel() {
		return false
	}

	// the hook may already have resolved this future (e.g. through the listener
	// of an adapter), so only the final state counts
	f.cancelled()
	<-f.done
	return f.State() == StateCancelled
}

// cancelled resolves the future as cancelled without consulting the cancel hook
func (f *Future[T]) cancelled() bool {
	var zero T
	return f.resolve(StateCancelled, zero, ErrCancelled)
}

// resolve performs the single transition out of StatePending.
// Listeners registered until now are invoked in registration order after the
// result was published.
func (f *Future[T]) resolve(target State, v T, err error) bool {
	if !f.state.CompareAndSwap(int32(StatePending), int32(stateCompleting)) {
		return false
	}
	f.value, f.err = v, err

	f.mu.Lock()
	f.state.Store(int32(target))
	listeners := f.listeners
	f.listeners = nil
	close(f.done)
	f.mu.Unlock()

	for _, l := range listeners {
		f.invoke(l)
	}
	return true
}

// invoke calls a listener and keeps a panicking listener from unwinding into
// the goroutine that delivered the result
func (f *Future[T]) invoke(l Listener[T]) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("listener panicked: %v", r)
		}
	}()
	l(f)
}

// AddListener registers l. If the future is still pending, l is queued and called
// when the future resolves (in registration order). If the future is already
// resolved, l is called synchronously before AddListener returns.
func (f *Future[T]) AddListener(l Listener[T]) {
	f.mu.Lock()
	if s := State(f.state.Load()); s == StatePending || s == stateCompleting {
		f.listeners = append(f.listeners, l)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.invoke(l)
}

// --------------------------------------------------------------------------
// Blocking access
// --------------------------------------------------------------------------

// Get blocks until the future is resolved and returns its value or failure.
// A cancelled future returns ErrCancelled.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.value, f.err
}

// GetTimeout is like Get but gives up after d and returns ErrTimeout.
// A timeout does not cancel the future.
func (f *Future[T]) GetTimeout(d time.Duration) (T, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

// Await is like Get but returns ctx.Err() once the context is done.
// The future is not cancelled.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// --------------------------------------------------------------------------
// Inspection
// --------------------------------------------------------------------------

// Done returns a channel that is closed once the future resolved
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// State returns the current state of the future
func (f *Future[T]) State() State {
	s := State(f.state.Load())
	if s == stateCompleting {
		return StatePending
	}
	return s
}

// IsDone reports whether the future left the pending state
func (f *Future[T]) IsDone() bool {
	return f.State() != StatePending
}

// IsSuccess reports whether the future resolved with a value
func (f *Future[T]) IsSuccess() bool {
	return f.State() == StateSucceeded
}

// IsCancelled reports whether the future was cancelled
func (f *Future[T]) IsCancelled() bool {
	return f.State() == StateCancelled
}

// Err returns the failure of a resolved future, nil while pending or on success
func (f *Future[T]) Err() error {
	if !f.IsDone() {
		return nil
	}
	return f.err
}
