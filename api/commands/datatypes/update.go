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

// UpdateResponse is the typed result of an update. Datatype and Context are only
// available if the return body was requested.
type UpdateResponse[T crdt.Datatype] struct {
	location query.Location
	datatype T
	context  crdt.Context
	hasBody  bool
}

func (r *UpdateResponse[T]) Location() query.Location { return r.location }

// Datatype returns the value after the update (zero without return body)
func (r *UpdateResponse[T]) Datatype() T { return r.datatype }

func (r *UpdateResponse[T]) Context() crdt.Context { return r.context }

func (r *UpdateResponse[T]) HasContext() bool { return !r.context.IsEmpty() }

// HasBody reports whether the node returned the updated value
func (r *UpdateResponse[T]) HasBody() bool { return r.hasBody }

// --------------------------------------------------------------------------
// Builder
// --------------------------------------------------------------------------

// UpdateBuilder builds an Update of a datatype of type T
type UpdateBuilder[T crdt.Datatype] struct {
	loc    query.Location
	kind   crdt.Kind
	as     func(crdt.Datatype) (T, error)
	update DatatypeUpdate
	ctx    crdt.Context
	opts   common.DtUpdateRequest
}

func newUpdateBuilder[T crdt.Datatype](loc query.Location, kind crdt.Kind, as func(crdt.Datatype) (T, error)) *UpdateBuilder[T] {
	return &UpdateBuilder[T]{loc: loc, kind: kind, as: as}
}

// NewUpdateCounterBuilder creates a builder for updating the counter at loc
func NewUpdateCounterBuilder(loc query.Location, update *CounterUpdate) *UpdateBuilder[*crdt.Counter] {
	b := newUpdateBuilder(loc, crdt.KindCounter, crdt.AsCounter)
	if update != nil {
		b.update = update
	}
	return b
}

// NewUpdateSetBuilder creates a builder for updating the set at loc
func NewUpdateSetBuilder(loc query.Location, update *SetUpdate) *UpdateBuilder[*crdt.Set] {
	b := newUpdateBuilder(loc, crdt.KindSet, crdt.AsSet)
	if update != nil {
		b.update = update
	}
	return b
}

// NewUpdateGSetBuilder creates a builder for updating the grow-only set at loc
func NewUpdateGSetBuilder(loc query.Location, update *GSetUpdate) *UpdateBuilder[*crdt.GSet] {
	b := newUpdateBuilder(loc, crdt.KindGSet, crdt.AsGSet)
	if update != nil {
		b.update = update
	}
	return b
}

// NewUpdateHllBuilder creates a builder for updating the HyperLogLog at loc
func NewUpdateHllBuilder(loc query.Location, update *HllUpdate) *UpdateBuilder[*crdt.Hll] {
	b := newUpdateBuilder(loc, crdt.KindHll, crdt.AsHll)
	if update != nil {
		b.update = update
	}
	return b
}

// NewUpdateMapBuilder creates a builder for updating the map at loc
func NewUpdateMapBuilder(loc query.Location, update *MapUpdate) *UpdateBuilder[*crdt.Map] {
	b := newUpdateBuilder(loc, crdt.KindMap, crdt.AsMap)
	if update != nil {
		b.update = update
	}
	return b
}

func (b *UpdateBuilder[T]) WithLocation(loc query.Location) *UpdateBuilder[T] {
	b.loc = loc
	return b
}

// WithContext sets the causal context of a previous fetch. It is required for removes.
func (b *UpdateBuilder[T]) WithContext(ctx crdt.Context) *UpdateBuilder[T] {
	b.ctx = append(crdt.Context(nil), ctx...)
	return b
}

// WithW sets the number of replicas that must acknowledge the write
func (b *UpdateBuilder[T]) WithW(w uint32) *UpdateBuilder[T] {
	b.opts.W = w
	return b
}

// WithDW sets the number of replicas that must durably store the write
func (b *UpdateBuilder[T]) WithDW(dw uint32) *UpdateBuilder[T] {
	b.opts.DW = dw
	return b
}

// WithPW sets the number of primary replicas that must acknowledge the write
func (b *UpdateBuilder[T]) WithPW(pw uint32) *UpdateBuilder[T] {
	b.opts.PW = pw
	return b
}

// WithReturnBody sets whether the node returns the updated value and its context
func (b *UpdateBuilder[T]) WithReturnBody(returnBody bool) *UpdateBuilder[T] {
	b.opts.ReturnBody = returnBody
	return b
}

func (b *UpdateBuilder[T]) WithTimeout(timeout time.Duration) *UpdateBuilder[T] {
	b.opts.TimeoutMs = uint32(timeout.Milliseconds())
	return b
}

// Build validates the parameters and returns the command
func (b *UpdateBuilder[T]) Build() (*Update[T], error) {
	err := commands.NewValidator(fmt.Sprintf("update %s", b.kind)).
		RequireLocation(b.loc).
		Require("update", b.update != nil).
		Err()
	if err != nil {
		return nil, err
	}

	opts := b.opts
	opts.IncludeContext = opts.ReturnBody
	return &Update[T]{
		loc:  b.loc,
		as:   b.as,
		op:   b.update.Op(),
		ctx:  b.ctx,
		opts: opts,
	}, nil
}

// --------------------------------------------------------------------------
// Command
// --------------------------------------------------------------------------

// Update applies an update to the datatype stored at a location
type Update[T crdt.Datatype] struct {
	loc  query.Location
	as   func(crdt.Datatype) (T, error)
	op   crdt.Op
	ctx  crdt.Context
	opts common.DtUpdateRequest
}

var _ commands.Command[*UpdateResponse[*crdt.Counter], query.Location] = (*Update[*crdt.Counter])(nil)

func (u *Update[T]) QueryInfo() query.Location { return u.loc }

func (u *Update[T]) ExecuteAsync(c cluster.ICluster) *future.Future[*UpdateResponse[T]] {
	op, err := operations.NewDtUpdateOperation(u.loc, u.op, u.ctx, u.opts)
	if err != nil {
		return commands.Failed[*UpdateResponse[T]](err)
	}
	return commands.Run(c, op, u.convertResponse)
}

func (u *Update[T]) convertResponse(res operations.DtUpdateResult) (*UpdateResponse[T], error) {
	resp := &UpdateResponse[T]{location: u.loc, context: res.Context}
	if res.Value == nil {
		return resp, nil
	}

	dt, err := crdt.DecodeValue(*res.Value)
	if err != nil {
		return nil, err
	}
	if resp.datatype, err = u.as(dt); err != nil {
		return nil, err
	}
	resp.hasBody = true
	return resp, nil
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// DeleteBuilder builds a Delete
type DeleteBuilder struct {
	loc  query.Location
	opts common.DtDeleteRequest
}

func NewDeleteBuilder(loc query.Location) *DeleteBuilder {
	return &DeleteBuilder{loc: loc}
}

func (b *DeleteBuilder) WithTimeout(timeout time.Duration) *DeleteBuilder {
	b.opts.TimeoutMs = uint32(timeout.Milliseconds())
	return b
}

func (b *DeleteBuilder) Build() (*Delete, error) {
	if err := commands.NewValidator("delete datatype").RequireLocation(b.loc).Err(); err != nil {
		return nil, err
	}
	return &Delete{loc: b.loc, opts: b.opts}, nil
}

// Delete removes the datatype stored at a location
type Delete struct {
	loc  query.Location
	opts common.DtDeleteRequest
}

func (d *Delete) QueryInfo() query.Location { return d.loc }

func (d *Delete) ExecuteAsync(c cluster.ICluster) *future.Future[struct{}] {
	op, err := operations.NewDtDeleteOperation(d.loc, d.opts)
	if err != nil {
		return commands.Failed[struct{}](err)
	}
	return cluster.Execute[struct{}](c, op)
}
