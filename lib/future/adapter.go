package future

import (
	"fmt"
	"sync/atomic"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// ConversionError is the failure of a derived future whose conversion function
// returned an error or panicked. The cause is available through errors.Unwrap.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("response conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// --------------------------------------------------------------------------
// Combinators
// --------------------------------------------------------------------------

// Adapt derives a Future[B] from src. When src succeeds, convert is called exactly
// once with its value, on the goroutine that resolved src (or on the caller if src
// is already resolved). Failures and cancellation of src are passed on without
// calling convert.
//
// Cancelling the derived future cancels src. If src can no longer be cancelled the
// request is rejected and the derived future resolves through convert as usual.
//
// convert must not block: it may run on an I/O goroutine.
func Adapt[A, B any](src *Future[A], convert func(A) (B, error)) *Future[B] {
	dst := NewWithCancel[B](src.Cancel)
	src.AddListener(func(s *Future[A]) {
		switch s.State() {
		case StateSucceeded:
			b, err := safeConvert(convert, s.value)
			if err != nil {
				dst.Fail(&ConversionError{Err: err})
				return
			}
			dst.Complete(b)
		case StateFailed:
			dst.Fail(s.err)
		case StateCancelled:
			dst.cancelled()
		}
	})
	return dst
}

// MapError derives a future that resolves like src, except that failures are
// replaced by mapFn(err). If mapFn returns nil the original error is kept.
// Cancellation is passed on unchanged.
func MapError[T any](src *Future[T], mapFn func(error) error) *Future[T] {
	dst := NewWithCancel[T](src.Cancel)
	src.AddListener(func(s *Future[T]) {
		switch s.State() {
		case StateSucceeded:
			dst.Complete(s.value)
		case StateFailed:
			err := s.err
			if mapped := mapFn(err); mapped != nil {
				err = mapped
			}
			dst.Fail(err)
		case StateCancelled:
			dst.cancelled()
		}
	})
	return dst
}

// All resolves with the values of all futures (in argument order) once every
// future succeeded. The first failure or cancellation of an input resolves the
// result immediately. Cancelling the result cancels all pending inputs.
func All[T any](fs ...*Future[T]) *Future[[]T] {
	if len(fs) == 0 {
		return Succeeded([]T{})
	}

	results := make([]T, len(fs))
	var remaining atomic.Int64
	remaining.Store(int64(len(fs)))

	dst := NewWithCancel[[]T](func() bool {
		ok := false
		for _, f := range fs {
			if f.Cancel() {
				ok = true
			}
		}
		return ok
	})

	for i, f := range fs {
		f.AddListener(func(s *Future[T]) {
			switch s.State() {
			case StateSucceeded:
				results[i] = s.value
				if remaining.Add(-1) == 0 {
					dst.Complete(results)
				}
			case StateFailed:
				dst.Fail(s.err)
			case StateCancelled:
				dst.cancelled()
			}
		})
	}
	return dst
}

// Then starts a follow-up future with next once src succeeded and resolves like
// that follow-up. Failures and cancellation of src are passed on without calling
// next, a panic in next fails the result with a *ConversionError.
//
// Cancelling the result cancels src while it is pending and the follow-up after
// that.
func Then[A, B any](src *Future[A], next func(A) *Future[B]) *Future[B] {
	var inner atomic.Pointer[Future[B]]
	dst := NewWithCancel[B](func() bool {
		if f := inner.Load(); f != nil {
			return f.Cancel()
		}
		return src.Cancel()
	})

	src.AddListener(func(s *Future[A]) {
		switch s.State() {
		case StateSucceeded:
			f, err := safeConvert(func(a A) (*Future[B], error) { return next(a), nil }, s.value)
			if err == nil && f == nil {
				err = fmt.Errorf("follow-up returned no future")
			}
			if err != nil {
				dst.Fail(&ConversionError{Err: err})
				return
			}
			inner.Store(f)
			f.AddListener(func(r *Future[B]) {
				switch r.State() {
				case StateSucceeded:
					dst.Complete(r.value)
				case StateFailed:
					dst.Fail(r.err)
				case StateCancelled:
					dst.cancelled()
				}
			})
		case StateFailed:
			dst.Fail(s.err)
		case StateCancelled:
			dst.cancelled()
		}
	})
	return dst
}

// safeConvert runs convert and turns a panic into an error
func safeConvert[A, B any](convert func(A) (B, error), a A) (b B, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("conversion panicked: %v", r)
		}
	}()
	return convert(a)
}
