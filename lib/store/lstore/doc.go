// Package lstore implements a local, in-memory, single-node store based on the
// store.IStore interface. It is a thin wrapper around engine.Engine that validates
// locations before handing them to the engine. Data is not persisted between process
// restarts.
//
// Thread Safety:
//
//	All operations are thread-safe. Concurrent updates of the same key are serialized
//	by the engine (xsync.MapOf.Compute), so no increment or set element is lost.
//
// Usage Example:
//
//	s := lstore.NewLocalStore()
//	loc := query.NewLocation(query.NewNamespace("counters", "hits"), "home")
//
//	obj, err := s.UpdateDatatype(loc, crdt.CounterOp{Increment: 1}, nil)
//
// For distributed scenarios requiring consensus across multiple nodes, use the
// dstore package instead, which provides a RAFT-based implementation of the same
// interface.
package lstore
