// Package kv contains the commands that work on a whole namespace instead of a
// single location.
//
// A CoveragePlan asks a node how the key space of a namespace is split between
// the endpoints of the cluster. The response is validated before it is handed
// out: its entries must be disjoint and together cover the whole ring. A plan
// that cannot be built (or that fails validation) surfaces as an error matching
// coverage.ErrPlanUnavailable:
//
//	plan, err := kv.NewCoveragePlanBuilder(ns).WithMinPartitions(16).Build()
//	resp, err := commands.Execute(c, plan)
//	if errors.Is(err, coverage.ErrPlanUnavailable) {
//	  // retry later
//	}
//	for _, host := range resp.Hosts() {
//	  for _, entry := range resp.EntriesFor(host) { ... }
//	}
//
// ListKeys lists the keys of a single coverage entry. It is meant to be sent to the
// endpoint named in the entry, but every node of this implementation can serve any
// range.
//
// FullScan combines both: it requests a plan, lists all entries in parallel and
// merges the keys into one sorted slice.
package kv
