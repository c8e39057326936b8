// Package dstore implements a distributed, fault-tolerant store using the Dragonboat
// RAFT consensus library. It provides a strongly consistent implementation of the
// store.IStore interface.
//
// Architecture:
//
//   - Store Client: Implements store.IStore. Writes are serialized into commands and
//     proposed to the raft shard, reads are sent as queries.
//
//   - State Machine: A Dragonboat IConcurrentStateMachine (DatatypeStateMachine) that
//     applies commands to an engine.Engine on every replica and answers queries from it.
//
//   - Communication Protocol: Defined in the internal package (Command and Query).
//
// Write Operations:
//
//	UpdateDatatype, DeleteDatatype, CreateTable, StoreRows and DeleteRow follow this flow:
//
//	1. The operation is serialized into a Command
//	2. The Command is proposed to the RAFT cluster via SyncPropose
//	3. Once committed, the command is applied on the state machine of each replica
//	4. The result code (and for updates the new object as json) is returned to the client
//
//	crdt.Apply is deterministic, so all replicas end up with identical objects and
//	identical contexts.
//
// Read Operations:
//
//	FetchDatatype, DescribeTable and FetchRow use SyncRead (linearizable). ListKeys
//	uses StaleRead, a scan may miss the most recent writes.
//
// Error Handling and Retries:
//
//	When Dragonboat returns ErrSystemBusy, the operation is retried after a short
//	delay, up to 5 attempts. All operations have a configurable timeout.
//
// Snapshotting and Recovery:
//
//	The state machine creates fuzzy snapshots without pausing operations using
//	engine.Engine.Save, and restores them with engine.Engine.Load.
package dstore
