package transport

import (
	"sync/atomic"

	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/puzpuzpuz/xsync/v3"
)

// Requests tracks the requests of a client transport that still await their
// response. A request leaves the set exactly once: either because its response
// (or final error) arrived, or because its future was cancelled. Whoever removes
// it decides the outcome of the future.
type Requests struct {
	inflight *xsync.MapOf[uint64, chan struct{}]
	nextID   atomic.Uint64
}

// NewRequests creates an empty request set
func NewRequests() *Requests {
	return &Requests{inflight: xsync.NewMapOf[uint64, chan struct{}]()}
}

// Start registers a new request. It returns the request id, the future for its
// response and a channel that is closed when the future gets cancelled, so the
// sender can stop waiting for the response.
func (r *Requests) Start() (uint64, *future.Future[[]byte], <-chan struct{}) {
	id := r.nextID.Add(1)
	abort := make(chan struct{})
	r.inflight.Store(id, abort)

	f := future.NewWithCancel[[]byte](func() bool {
		ch, ok := r.inflight.LoadAndDelete(id)
		if ok {
			close(ch)
		}
		return ok
	})
	return id, f, abort
}

// Finish resolves the future of request id, unless it was cancelled before
func (r *Requests) Finish(id uint64, f *future.Future[[]byte], resp []byte, err error) {
	if _, ok := r.inflight.LoadAndDelete(id); !ok {
		return // cancelled, the response is dropped
	}
	if err != nil {
		f.Fail(err)
		return
	}
	f.Complete(resp)
}

// Len returns the number of requests that are still pending
func (r *Requests) Len() int {
	return r.inflight.Size()
}
