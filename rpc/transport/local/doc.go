// Package local implements an in-process transport. Server transports register
// their handler under the configured endpoint name, client transports look the
// handler up by name and call it on a new goroutine.
//
// It is used to run a node and its clients in a single process (for example in
// tests, or with "--transport local" for a one-shot CLI call against an embedded
// node) without going through the network stack. The request bytes are still
// produced and consumed by the configured serializer, so everything above the
// transport behaves exactly like with the socket transports.
package local
