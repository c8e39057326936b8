package datatypes

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/dCMD/api/commands"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/operations"
)

// --------------------------------------------------------------------------
// Response
// --------------------------------------------------------------------------

// FetchResponse is the typed result of a fetch
type FetchResponse[T crdt.Datatype] struct {
	location query.Location
	datatype T
	context  crdt.Context
	notFound bool
}

// Location returns the fetched location
func (r *FetchResponse[T]) Location() query.Location { return r.location }

// Datatype returns the fetched value. If nothing is stored at the location this is
// the empty value of the requested kind.
func (r *FetchResponse[T]) Datatype() T { return r.datatype }

// Context returns the causal context to pass to a following update. It is nil if
// the context was not requested or nothing is stored.
func (r *FetchResponse[T]) Context() crdt.Context { return r.context }

// HasContext reports whether the response carries a context
func (r *FetchResponse[T]) HasContext() bool { return !r.context.IsEmpty() }

// NotFound reports whether nothing is stored at the location
func (r *FetchResponse[T]) NotFound() bool { return r.notFound }

// --------------------------------------------------------------------------
// Builder
// --------------------------------------------------------------------------

// FetchBuilder builds a Fetch of a datatype of type T
type FetchBuilder[T crdt.Datatype] struct {
	loc  query.Location
	kind crdt.Kind
	as   func(crdt.Datatype) (T, error)
	opts common.DtFetchRequest
}

func newFetchBuilder[T crdt.Datatype](loc query.Location, kind crdt.Kind, as func(crdt.Datatype) (T, error)) *FetchBuilder[T] {
	return &FetchBuilder[T]{loc: loc, kind: kind, as: as}
}

// NewFetchCounterBuilder creates a builder for fetching the counter at loc
func NewFetchCounterBuilder(loc query.Location) *FetchBuilder[*crdt.Counter] {
	return newFetchBuilder(loc, crdt.KindCounter, crdt.AsCounter)
}

// NewFetchSetBuilder creates a builder for fetching the set at loc
func NewFetchSetBuilder(loc query.Location) *FetchBuilder[*crdt.Set] {
	return newFetchBuilder(loc, crdt.KindSet, crdt.AsSet)
}

// NewFetchGSetBuilder creates a builder for fetching the grow-only set at loc
func NewFetchGSetBuilder(loc query.Location) *FetchBuilder[*crdt.GSet] {
	return newFetchBuilder(loc, crdt.KindGSet, crdt.AsGSet)
}

// NewFetchMapBuilder creates a builder for fetching the map at loc
func NewFetchMapBuilder(loc query.Location) *FetchBuilder[*crdt.Map] {
	return newFetchBuilder(loc, crdt.KindMap, crdt.AsMap)
}

// NewFetchHllBuilder creates a builder for fetching the HyperLogLog at loc
func NewFetchHllBuilder(loc query.Location) *FetchBuilder[*crdt.Hll] {
	return newFetchBuilder(loc, crdt.KindHll, crdt.AsHll)
}

// WithLocation replaces the location to fetch
func (b *FetchBuilder[T]) WithLocation(loc query.Location) *FetchBuilder[T] {
	b.loc = loc
	return b
}

// WithR sets the number of replicas that must answer
func (b *FetchBuilder[T]) WithR(r uint32) *FetchBuilder[T] {
	b.opts.R = r
	return b
}

// WithPR sets the number of primary replicas that must answer
func (b *FetchBuilder[T]) WithPR(pr uint32) *FetchBuilder[T] {
	b.opts.PR = pr
	return b
}

// WithBasicQuorum sets whether to return early if a quorum answered "not found"
func (b *FetchBuilder[T]) WithBasicQuorum(basicQuorum bool) *FetchBuilder[T] {
	b.opts.BasicQuorum = basicQuorum
	return b
}

// WithNotFoundOK sets whether "not found" answers count towards the read quorum
func (b *FetchBuilder[T]) WithNotFoundOK(notFoundOK bool) *FetchBuilder[T] {
	b.opts.NotFoundOK = notFoundOK
	return b
}

// WithTimeout sets the server side timeout
func (b *FetchBuilder[T]) WithTimeout(timeout time.Duration) *FetchBuilder[T] {
	b.opts.TimeoutMs = uint32(timeout.Milliseconds())
	return b
}

// WithIncludeContext sets whether the response carries the causal context
func (b *FetchBuilder[T]) WithIncludeContext(include bool) *FetchBuilder[T] {
	b.opts.IncludeContext = include
	return b
}

// Build validates the parameters and returns the command
func (b *FetchBuilder[T]) Build() (*Fetch[T], error) {
	err := commands.NewValidator(fmt.Sprintf("fetch %s", b.kind)).
		RequireLocation(b.loc).
		Err()
	if err != nil {
		return nil, err
	}

	opts := b.opts
	opts.Kind = b.kind
	return &Fetch[T]{loc: b.loc, as: b.as, opts: opts}, nil
}

// --------------------------------------------------------------------------
// Command
// --------------------------------------------------------------------------

// Fetch fetches the datatype stored at a location and extracts it as a T
type Fetch[T crdt.Datatype] struct {
	loc  query.Location
	as   func(crdt.Datatype) (T, error)
	opts common.DtFetchRequest
}

var _ commands.Command[*FetchResponse[*crdt.Counter], query.Location] = (*Fetch[*crdt.Counter])(nil)

func (f *Fetch[T]) QueryInfo() query.Location { return f.loc }

func (f *Fetch[T]) ExecuteAsync(c cluster.ICluster) *future.Future[*FetchResponse[T]] {
	op, err := operations.NewDtFetchOperation(f.loc, f.opts)
	if err != nil {
		return commands.Failed[*FetchResponse[T]](err)
	}
	return commands.Run(c, op, f.convertResponse)
}

// convertResponse extracts the requested variant. A value of another kind fails
// with a *crdt.TypeMismatchError, a miss yields the empty value without context.
func (f *Fetch[T]) convertResponse(res operations.DtFetchResult) (*FetchResponse[T], error) {
	var dt crdt.Datatype
	if res.Value != nil {
		var err error
		if dt, err = crdt.DecodeValue(*res.Value); err != nil {
			return nil, err
		}
	}

	typed, err := f.as(dt)
	if err != nil {
		return nil, err
	}

	resp := &FetchResponse[T]{location: f.loc, datatype: typed, notFound: res.Value == nil}
	if !resp.notFound && f.opts.IncludeContext {
		resp.context = res.Context
	}
	return resp, nil
}
