// Package future provides a single-assignment, observable result container and
// the combinators used to turn low-level response futures into typed results.
//
// The package focuses on:
//   - Non-blocking composition of asynchronous results
//   - Exactly-once delivery of a result to conversion functions and listeners
//   - Cooperative cancellation that travels up a chain of derived futures
//
// Key Components:
//
//   - Future: Holds a value of type T or a failure. The result slot transitions once
//     from StatePending to StateSucceeded, StateFailed or StateCancelled, guarded by a
//     single atomic compare-and-swap. Callers either block (Get, GetTimeout, Await)
//     or register listeners (AddListener).
//
//   - Adapt: Derives a Future[B] from a Future[A] and a conversion function. The
//     conversion runs exactly once when the source succeeds, never when it fails or
//     is cancelled. Errors and panics of the conversion become a ConversionError on
//     the derived future instead of unwinding on the delivering goroutine.
//
//   - MapError and All: Failure translation and fan-in over several futures.
//
// Listener Semantics:
//
//	Listeners registered before resolution are invoked in registration order on the
//	goroutine that resolves the future. Listeners registered afterwards are invoked
//	synchronously inside AddListener with the already known result. A derived future
//	resolves only after its conversion finished, so its own listeners always observe
//	the converted value. This holds transitively for chains of adapters.
//
// Cancellation:
//
//	Cancel only succeeds on pending futures. A future created with NewWithCancel asks
//	its hook first (the transport uses this to abandon a request still waiting for
//	its response). A derived future forwards the request to its source; if the source
//	can no longer be cancelled, the request is rejected.
//
// Timeouts:
//
//	GetTimeout and Await give up waiting but leave the future pending. Call Cancel
//	explicitly to abandon the work.
//
// Usage Example:
//
//	raw := transport.Send(shardId, req)                 // *Future[[]byte]
//	msg := future.Adapt(raw, decodeMessage)             // *Future[*common.Message]
//	resp := future.Adapt(msg, op.DecodeResponse)        // *Future[Response]
//	resp.AddListener(func(f *future.Future[Response]) { ... })
//	value, err := resp.GetTimeout(5 * time.Second)
package future
