/*
Package crdt contains the distributed data types that dCMD stores: counters, sets,
grow-only sets, maps (with register and flag fields) and HyperLogLogs.

# Client View

A fetched value is a Datatype. Datatype is a closed sum type, the active variant
is reported by Kind(). A caller that expects a specific kind uses one of the As*
helpers:

	counter, err := crdt.AsCounter(dt)

If the stored value has another kind, a *TypeMismatchError is returned. Values are
never coerced. Fetching a key that holds nothing yields the empty value of the
requested kind (see Empty).

Together with a value the store may return a Context. It is an opaque token that
must be passed back unchanged when updating the same value. Removes from sets and
maps are rejected without it.

# Updates

Changes are expressed as operations (CounterOp, SetOp, GSetOp, HllOp and MapOp
with its nested RegisterOp and FlagOp). Map operations are built fluently:

	op := crdt.MapOp{}.
		UpdateCounter("visits", 1).
		UpdateRegister("name", []byte("alice")).
		Remove("legacy", crdt.KindFlag)

# Wire Forms

Value and OpValue are the serializable forms of Datatype and Op. They are plain
structs and travel inside message payloads.

# Node Side

Object is what a storage node keeps per key. Apply computes the next object from
the current one and an operation, it never modifies its input. HyperLogLog values
are backed by a Sketch, a HyperLogLog with 2^14 registers.
*/
package crdt
