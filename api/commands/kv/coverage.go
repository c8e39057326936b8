package kv

import (
	"github.com/ValentinKolb/dCMD/api/commands"
	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/operations"
)

// --------------------------------------------------------------------------
// Response
// --------------------------------------------------------------------------

// CoveragePlanResponse is a validated coverage plan: its entries are sorted by
// range and cover the keyspace of the namespace exactly once
type CoveragePlanResponse struct {
	plan *coverage.Plan
}

func (r *CoveragePlanResponse) Namespace() query.Namespace { return r.plan.Namespace }

// Entries returns the entries in ring order
func (r *CoveragePlanResponse) Entries() []coverage.Entry { return r.plan.Entries }

// Hosts returns the distinct endpoints of the plan
func (r *CoveragePlanResponse) Hosts() []string { return r.plan.Hosts() }

// EntriesFor returns the entries to be scanned on endpoint
func (r *CoveragePlanResponse) EntriesFor(endpoint string) []coverage.Entry {
	return r.plan.EntriesFor(endpoint)
}

// --------------------------------------------------------------------------
// Builder
// --------------------------------------------------------------------------

// CoveragePlanBuilder builds a CoveragePlan
type CoveragePlanBuilder struct {
	ns   query.Namespace
	opts common.CoveragePlanRequest
}

// NewCoveragePlanBuilder creates a builder for the coverage plan of ns
func NewCoveragePlanBuilder(ns query.Namespace) *CoveragePlanBuilder {
	return &CoveragePlanBuilder{ns: ns}
}

func (b *CoveragePlanBuilder) WithNamespace(ns query.Namespace) *CoveragePlanBuilder {
	b.ns = ns
	return b
}

// WithMinPartitions asks for at least n entries, for example to scan with more
// workers than there are nodes
func (b *CoveragePlanBuilder) WithMinPartitions(n uint32) *CoveragePlanBuilder {
	b.opts.MinPartitions = n
	return b
}

func (b *CoveragePlanBuilder) Build() (*CoveragePlan, error) {
	if err := commands.NewValidator("coverage plan").RequireNamespace(b.ns).Err(); err != nil {
		return nil, err
	}
	return &CoveragePlan{ns: b.ns, opts: b.opts}, nil
}

// --------------------------------------------------------------------------
// Command
// --------------------------------------------------------------------------

// CoveragePlan requests the partition of a namespace's keyspace from the cluster.
// The plan is computed by the node, the client only validates it.
type CoveragePlan struct {
	ns   query.Namespace
	opts common.CoveragePlanRequest
}

var _ commands.Command[*CoveragePlanResponse, query.Namespace] = (*CoveragePlan)(nil)

func (p *CoveragePlan) QueryInfo() query.Namespace { return p.ns }

// ExecuteAsync requests the plan. If the node cannot compute one, or the returned
// entries overlap or leave gaps, the future fails with an error that matches
// coverage.ErrPlanUnavailable.
func (p *CoveragePlan) ExecuteAsync(c cluster.ICluster) *future.Future[*CoveragePlanResponse] {
	op, err := operations.NewCoveragePlanOperation(p.ns, p.opts)
	if err != nil {
		return commands.Failed[*CoveragePlanResponse](err)
	}

	resp := commands.Run(c, op, p.convertResponse)
	return future.MapError(resp, func(err error) error {
		if cluster.HasCode(err, store.RetCPlanUnavailable) {
			return &coverage.PlanUnavailableError{Namespace: p.ns, Err: err}
		}
		return nil
	})
}

func (p *CoveragePlan) convertResponse(plan *coverage.Plan) (*CoveragePlanResponse, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &CoveragePlanResponse{plan: plan}, nil
}
