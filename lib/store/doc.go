// Package store provides the node-side storage of dCMD: distributed data types
// addressed by location, and rows of timeseries tables.
//
// Key Components:
//
//   - IStore Interface: The core abstraction used by the RPC server. All implementations
//     share this interface, so a node can run with local or replicated storage without
//     code changes. Methods return *Error values with a RetCode describing the failure.
//
//   - Error System: Typed return codes (NotFound, PreconditionFailed, InvalidOperation,
//     ...) that travel unchanged to the client, where they become transport errors.
//     FromApplyError maps the errors of crdt.Apply to codes.
//
// Implementations:
//
//	- Local Store (lstore): A single node implementation on top of engine.Engine.
//	  Available in the "github.com/ValentinKolb/dCMD/lib/store/lstore" package.
//
//	- Distributed Store (dstore): A implementation built on the Dragonboat RAFT
//	  consensus library. Every update is a raft log entry applied to an engine.Engine
//	  inside the state machine on each replica.
//	  Available in the "github.com/ValentinKolb/dCMD/lib/store/dstore" package.
//
// Both implementations share the engine package, so they behave identically apart
// from replication.
package store
