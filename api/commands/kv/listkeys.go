package kv

import (
	"time"

	"github.com/ValentinKolb/dCMD/api/commands"
	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/operations"
)

// ListKeysBuilder builds a ListKeys command for one entry of a coverage plan
type ListKeysBuilder struct {
	ns    query.Namespace
	entry *coverage.Entry
	opts  common.ListKeysRequest
}

// NewListKeysBuilder creates a builder listing the keys of ns in entry's range
func NewListKeysBuilder(ns query.Namespace, entry *coverage.Entry) *ListKeysBuilder {
	return &ListKeysBuilder{ns: ns, entry: entry}
}

func (b *ListKeysBuilder) WithTimeout(timeout time.Duration) *ListKeysBuilder {
	b.opts.TimeoutMs = uint32(timeout.Milliseconds())
	return b
}

func (b *ListKeysBuilder) Build() (*ListKeys, error) {
	v := commands.NewValidator("list keys").
		RequireNamespace(b.ns).
		Require("coverage entry", b.entry != nil)
	if b.entry != nil {
		_, err := b.entry.Range()
		v.Check("coverage entry", err)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &ListKeys{ns: b.ns, entry: *b.entry, opts: b.opts}, nil
}

// ListKeys lists the keys of a namespace that belong to one coverage entry.
// The keys are sorted.
type ListKeys struct {
	ns    query.Namespace
	entry coverage.Entry
	opts  common.ListKeysRequest
}

var _ commands.Command[[]string, coverage.Entry] = (*ListKeys)(nil)

func (l *ListKeys) QueryInfo() coverage.Entry { return l.entry }

func (l *ListKeys) ExecuteAsync(c cluster.ICluster) *future.Future[[]string] {
	op, err := operations.NewListKeysOperation(l.ns, l.entry, l.opts)
	if err != nil {
		return commands.Failed[[]string](err)
	}
	return cluster.Execute[[]string](c, op)
}
