package operations

import (
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

// --------------------------------------------------------------------------
// Fetch
// --------------------------------------------------------------------------

// DtFetchResult is the raw result of a datatype fetch. Value is nil when nothing
// is stored at the location.
type DtFetchResult struct {
	Location query.Location
	Value    *crdt.Value
	Context  crdt.Context
}

// DtFetchOperation fetches the datatype stored at a location
type DtFetchOperation struct {
	loc query.Location
	req *common.Message
}

// NewDtFetchOperation creates a fetch for loc. opts.Kind names the expected kind,
// the node does not check it.
func NewDtFetchOperation(loc query.Location, opts common.DtFetchRequest) (*DtFetchOperation, error) {
	req, err := common.NewLocationRequest(common.MsgTDtFetch, loc, opts)
	if err != nil {
		return nil, err
	}
	return &DtFetchOperation{loc: loc, req: req}, nil
}

func (o *DtFetchOperation) Request() *common.Message { return o.req }

func (o *DtFetchOperation) DecodeResponse(resp *common.Message) (DtFetchResult, error) {
	p, err := common.DecodePayload[common.DtFetchResponse](resp)
	if err != nil {
		return DtFetchResult{}, err
	}
	out := DtFetchResult{Location: o.loc}
	if p.Found {
		out.Value = p.Value
		out.Context = contextOf(resp)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Update
// --------------------------------------------------------------------------

// DtUpdateResult is the raw result of a datatype update. Value and Context are
// only set when the return body was requested.
type DtUpdateResult struct {
	Location query.Location
	Value    *crdt.Value
	Context  crdt.Context
}

// DtUpdateOperation applies an update to the datatype at a location
type DtUpdateOperation struct {
	loc query.Location
	req *common.Message
}

// NewDtUpdateOperation creates an update of loc. ctx is the context of a previous
// fetch, it is required for removals.
func NewDtUpdateOperation(loc query.Location, op crdt.Op, ctx crdt.Context, opts common.DtUpdateRequest) (*DtUpdateOperation, error) {
	ov, err := crdt.EncodeOp(op)
	if err != nil {
		return nil, err
	}
	opts.Op = ov

	req, err := common.NewLocationRequest(common.MsgTDtUpdate, loc, opts)
	if err != nil {
		return nil, err
	}
	if !ctx.IsEmpty() {
		req.Context = ctx.Bytes()
	}
	return &DtUpdateOperation{loc: loc, req: req}, nil
}

func (o *DtUpdateOperation) Request() *common.Message { return o.req }

func (o *DtUpdateOperation) DecodeResponse(resp *common.Message) (DtUpdateResult, error) {
	out := DtUpdateResult{Location: o.loc, Context: contextOf(resp)}
	if len(resp.Payload) == 0 {
		return out, nil
	}
	p, err := common.DecodePayload[common.DtUpdateResponse](resp)
	if err != nil {
		return DtUpdateResult{}, err
	}
	out.Value = p.Value
	return out, nil
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// DtDeleteOperation removes the datatype at a location
type DtDeleteOperation struct {
	req *common.Message
}

func NewDtDeleteOperation(loc query.Location, opts common.DtDeleteRequest) (*DtDeleteOperation, error) {
	req, err := common.NewLocationRequest(common.MsgTDtDelete, loc, opts)
	if err != nil {
		return nil, err
	}
	return &DtDeleteOperation{req: req}, nil
}

func (o *DtDeleteOperation) Request() *common.Message { return o.req }

func (o *DtDeleteOperation) DecodeResponse(*common.Message) (struct{}, error) {
	return struct{}{}, nil
}

// contextOf copies the context of a response, nil if there is none
func contextOf(resp *common.Message) crdt.Context {
	if len(resp.Context) == 0 {
		return nil
	}
	return append(crdt.Context(nil), resp.Context...)
}
