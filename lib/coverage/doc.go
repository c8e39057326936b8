/*
Package coverage describes how the keyspace of a namespace is split across the
endpoints of a cluster.

Every key has a Position on a 64-bit hash ring (xxhash of bucket type, bucket and
key). A Plan is a list of entries, each naming an endpoint and an opaque Token that
encodes the part of the ring (a Range) this endpoint answers for. A valid plan
covers every position exactly once, Validate checks this.

Nodes build plans with a Ring, clients only ever look at the tokens through
Entry.Range and pass them back unchanged.
*/
package coverage
