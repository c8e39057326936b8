package operations

import (
	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

// CoveragePlanOperation asks a node for the coverage plan of a namespace.
// The returned plan is not validated.
type CoveragePlanOperation struct {
	ns  query.Namespace
	req *common.Message
}

func NewCoveragePlanOperation(ns query.Namespace, opts common.CoveragePlanRequest) (*CoveragePlanOperation, error) {
	req, err := common.NewNamespaceRequest(common.MsgTCoveragePlan, ns, opts)
	if err != nil {
		return nil, err
	}
	return &CoveragePlanOperation{ns: ns, req: req}, nil
}

func (o *CoveragePlanOperation) Request() *common.Message { return o.req }

func (o *CoveragePlanOperation) DecodeResponse(resp *common.Message) (*coverage.Plan, error) {
	p, err := common.DecodePayload[common.CoveragePlanResponse](resp)
	if err != nil {
		return nil, err
	}
	return &coverage.Plan{Namespace: o.ns, Entries: p.Entries}, nil
}

// ListKeysOperation lists the keys of a namespace that fall into one coverage entry
type ListKeysOperation struct {
	req *common.Message
}

func NewListKeysOperation(ns query.Namespace, entry coverage.Entry, opts common.ListKeysRequest) (*ListKeysOperation, error) {
	opts.Token = entry.Token
	req, err := common.NewNamespaceRequest(common.MsgTListKeys, ns, opts)
	if err != nil {
		return nil, err
	}
	return &ListKeysOperation{req: req}, nil
}

func (o *ListKeysOperation) Request() *common.Message { return o.req }

func (o *ListKeysOperation) DecodeResponse(resp *common.Message) ([]string, error) {
	p, err := common.DecodePayload[common.ListKeysResponse](resp)
	if err != nil {
		return nil, err
	}
	return p.Keys, nil
}
