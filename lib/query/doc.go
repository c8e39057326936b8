// Package query defines how values are addressed: a Namespace (bucket type plus
// bucket) names a keyspace, a Location names a single key inside it.
package query
