// Package engine holds the in-memory state of a node: datatype objects, timeseries
// tables and rows. It is shared by lstore and the dstore state machine.
//
// Objects live in an xsync.MapOf keyed by query.Location. Updates go through
// MapOf.Compute, which runs crdt.Apply while holding the bucket lock of the key, so
// concurrent updates of one key are serialized and updates of different keys are not.
//
// Save and Load write and read a snapshot of the complete state
// (see snapshot.go for the format).
package engine
