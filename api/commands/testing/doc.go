// Package testing provides an in-process cluster for tests of commands.
//
// NewLocalCluster starts a node with an in-memory store, registers its handler with
// the local transport and connects a cluster.ICluster to it. Requests travel through
// the same serializer, cluster and server code as in a deployment, only the socket
// is replaced by a function call.
//
// Example usage:
//
//	func TestFetch(t *testing.T) {
//		c := cmdtesting.NewLocalCluster(t, cmdtesting.WithRing(8, "n1", "n2"))
//		cmd, _ := datatypes.NewFetchCounterBuilder(loc).Build()
//		resp, err := commands.Execute(c, cmd)
//		...
//	}
//
// WithGate holds every request at the node until the gate is closed, which lets
// tests observe and cancel pending futures.
package testing
