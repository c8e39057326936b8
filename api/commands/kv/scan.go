package kv

import (
	"sort"

	"github.com/ValentinKolb/dCMD/api/commands"
	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
)

// FullScan lists all keys of ns. It requests a coverage plan and lists the keys of
// every entry in parallel. The result is sorted.
//
// Since the entries of a validated plan are disjoint and exhaustive, every key is
// listed exactly once. Any failing entry fails the whole scan, cancelling the
// returned future cancels the pending requests.
func FullScan(c cluster.ICluster, ns query.Namespace) *future.Future[[]string] {
	plan, err := NewCoveragePlanBuilder(ns).Build()
	if err != nil {
		return future.Failed[[]string](err)
	}

	scans := future.Then(plan.ExecuteAsync(c), func(p *CoveragePlanResponse) *future.Future[[][]string] {
		entries := p.Entries()
		parts := make([]*future.Future[[]string], 0, len(entries))
		for i := range entries {
			cmd, err := NewListKeysBuilder(ns, &entries[i]).Build()
			if err != nil {
				return future.Failed[[][]string](err)
			}
			parts = append(parts, cmd.ExecuteAsync(c))
		}
		commands.Logger.Debugf("scanning %s with %d entries on %d hosts", ns, len(entries), len(p.Hosts()))
		return future.All(parts...)
	})

	return future.Adapt(scans, func(parts [][]string) ([]string, error) {
		keys := []string{}
		for _, part := range parts {
			keys = append(keys, part...)
		}
		sort.Strings(keys)
		return keys, nil
	})
}
