package server

import (
	"fmt"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

// NewIStoreServerAdapter creates the adapter that serves datatype, coverage and
// timeseries requests from a store.IStore. Coverage plans are computed from ring.
func NewIStoreServerAdapter(ring *coverage.Ring) IRPCServerAdapter {
	return &iStoreServerAdapterImpl{ring: ring}
}

type iStoreServerAdapterImpl struct {
	ring *coverage.Ring
}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse(req.MsgType, store.NewError(store.RetCInternalError, "handler: store is nil"))
	}

	var (
		resp *common.Message
		err  error
	)

	switch req.MsgType {
	case common.MsgTDtFetch:
		resp, err = adapter.dtFetch(req, s)
	case common.MsgTDtUpdate:
		resp, err = adapter.dtUpdate(req, s)
	case common.MsgTDtDelete:
		if err = s.DeleteDatatype(req.Location()); err == nil {
			resp, err = common.NewResponse(req.MsgType, nil)
		}
	case common.MsgTCoveragePlan:
		resp, err = adapter.coveragePlan(req)
	case common.MsgTListKeys:
		resp, err = adapter.listKeys(req, s)
	case common.MsgTTsCreateTable:
		resp, err = adapter.tsCreateTable(req, s)
	case common.MsgTTsStore:
		resp, err = adapter.tsStore(req, s)
	case common.MsgTTsFetch:
		resp, err = adapter.tsFetch(req, s)
	case common.MsgTTsDelete:
		resp, err = adapter.tsDelete(req, s)
	default:
		err = store.NewError(store.RetCUnsupportedOperation,
			fmt.Sprintf("RPC IStoreAdapter - Unsupported message type: %s", req.MsgType))
	}

	if err != nil {
		Logger.Debugf("%s %s failed: %v", req.MsgType, req.Location(), err)
		return common.NewErrorResponse(req.MsgType, err)
	}
	return resp
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// decode reads the payload of req, malformed payloads are invalid operations
func decode[T any](req *common.Message) (T, error) {
	p, err := common.DecodePayload[T](req)
	if err != nil {
		return p, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	return p, nil
}

// --------------------------------------------------------------------------
// Datatypes
// --------------------------------------------------------------------------

func (adapter *iStoreServerAdapterImpl) dtFetch(req *common.Message, s store.IStore) (*common.Message, error) {
	p, err := decode[common.DtFetchRequest](req)
	if err != nil {
		return nil, err
	}
	obj, err := s.FetchDatatype(req.Location())
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return common.NewResponse(req.MsgType, common.DtFetchResponse{Found: false})
	}

	resp, err := common.NewResponse(req.MsgType, common.DtFetchResponse{Found: true, Value: &obj.Value})
	if err != nil {
		return nil, err
	}
	if p.IncludeContext {
		resp.Context = obj.Context().Bytes()
	}
	return resp, nil
}

func (adapter *iStoreServerAdapterImpl) dtUpdate(req *common.Message, s store.IStore) (*common.Message, error) {
	p, err := decode[common.DtUpdateRequest](req)
	if err != nil {
		return nil, err
	}
	op, err := crdt.DecodeOp(p.Op)
	if err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}

	obj, err := s.UpdateDatatype(req.Location(), op, crdt.Context(req.Context))
	if err != nil {
		return nil, err
	}
	if !p.ReturnBody {
		return common.NewResponse(req.MsgType, common.DtUpdateResponse{})
	}

	resp, err := common.NewResponse(req.MsgType, common.DtUpdateResponse{Value: &obj.Value})
	if err != nil {
		return nil, err
	}
	if p.IncludeContext {
		resp.Context = obj.Context().Bytes()
	}
	return resp, nil
}

// --------------------------------------------------------------------------
// Coverage
// --------------------------------------------------------------------------

func (adapter *iStoreServerAdapterImpl) coveragePlan(req *common.Message) (*common.Message, error) {
	var p common.CoveragePlanRequest
	if len(req.Payload) > 0 {
		var err error
		if p, err = decode[common.CoveragePlanRequest](req); err != nil {
			return nil, err
		}
	}
	ns := req.Namespace()
	if err := ns.Validate(); err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}

	if p.MinPartitions > coverage.MaxPartitions {
		return nil, store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("min partitions %d exceeds the limit of %d", p.MinPartitions, coverage.MaxPartitions))
	}

	plan, err := adapter.ring.Plan(ns, int(p.MinPartitions))
	if err != nil {
		return nil, store.NewError(store.RetCPlanUnavailable, err.Error())
	}
	return common.NewResponse(req.MsgType, common.CoveragePlanResponse{Entries: plan.Entries})
}

func (adapter *iStoreServerAdapterImpl) listKeys(req *common.Message, s store.IStore) (*common.Message, error) {
	p, err := decode[common.ListKeysRequest](req)
	if err != nil {
		return nil, err
	}
	rng, err := coverage.DecodeToken(p.Token)
	if err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	keys, err := s.ListKeys(req.Namespace(), rng)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return common.NewResponse(req.MsgType, common.ListKeysResponse{Keys: keys})
}

// --------------------------------------------------------------------------
// Timeseries
// --------------------------------------------------------------------------

func (adapter *iStoreServerAdapterImpl) tsCreateTable(req *common.Message, s store.IStore) (*common.Message, error) {
	p, err := decode[common.TsCreateTableRequest](req)
	if err != nil {
		return nil, err
	}
	if req.Key != "" && req.Key != p.Table.Name {
		return nil, store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("table %q addressed as %q", p.Table.Name, req.Key))
	}
	if err := s.CreateTable(p.Table); err != nil {
		return nil, err
	}
	return common.NewResponse(req.MsgType, nil)
}

func (adapter *iStoreServerAdapterImpl) tsStore(req *common.Message, s store.IStore) (*common.Message, error) {
	p, err := decode[common.TsStoreRequest](req)
	if err != nil {
		return nil, err
	}
	if err := s.StoreRows(req.Key, p.Rows); err != nil {
		return nil, err
	}
	return common.NewResponse(req.MsgType, nil)
}

func (adapter *iStoreServerAdapterImpl) tsFetch(req *common.Message, s store.IStore) (*common.Message, error) {
	p, err := decode[common.TsFetchRequest](req)
	if err != nil {
		return nil, err
	}
	def, err := s.DescribeTable(req.Key)
	if err != nil {
		return nil, err
	}
	row, found, err := s.FetchRow(req.Key, p.KeyCells)
	if err != nil {
		return nil, err
	}

	result := timeseries.QueryResult{Columns: def.Columns, Rows: []timeseries.Row{}}
	if found {
		result.Rows = append(result.Rows, *row)
	}
	return common.NewResponse(req.MsgType, common.TsFetchResponse{Result: result})
}

func (adapter *iStoreServerAdapterImpl) tsDelete(req *common.Message, s store.IStore) (*common.Message, error) {
	p, err := decode[common.TsDeleteRequest](req)
	if err != nil {
		return nil, err
	}
	if err := s.DeleteRow(req.Key, p.KeyCells); err != nil {
		return nil, err
	}
	return common.NewResponse(req.MsgType, nil)
}
