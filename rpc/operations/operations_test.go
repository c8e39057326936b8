package operations

import (
	"reflect"
	"testing"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

var loc = query.NewLocation(query.NewNamespace("maps", "users"), "alice")

func response(t *testing.T, typ common.MessageType, payload any) *common.Message {
	t.Helper()
	resp, err := common.NewResponse(typ, payload)
	if err != nil {
		t.Fatalf("NewResponse() error = %v", err)
	}
	return resp
}

func TestDtFetchOperation(t *testing.T) {
	op, err := NewDtFetchOperation(loc, common.DtFetchRequest{Kind: crdt.KindMap, R: 2, IncludeContext: true})
	if err != nil {
		t.Fatalf("NewDtFetchOperation() error = %v", err)
	}

	req := op.Request()
	if req.MsgType != common.MsgTDtFetch || req.Location() != loc {
		t.Errorf("request addressed %s %s", req.MsgType, req.Location())
	}
	p, err := common.DecodePayload[common.DtFetchRequest](req)
	if err != nil || p.Kind != crdt.KindMap || p.R != 2 || !p.IncludeContext {
		t.Errorf("request payload = %+v, %v", p, err)
	}

	tests := []struct {
		name    string
		resp    *common.Message
		found   bool
		context bool
	}{
		{"miss", response(t, common.MsgTDtFetch, common.DtFetchResponse{}), false, false},
		{"hit", func() *common.Message {
			r := response(t, common.MsgTDtFetch, common.DtFetchResponse{Found: true, Value: &crdt.Value{Kind: crdt.KindMap}})
			r.Context = []byte{1, 2, 3}
			return r
		}(), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := op.DecodeResponse(tt.resp)
			if err != nil {
				t.Fatalf("DecodeResponse() error = %v", err)
			}
			if (res.Value != nil) != tt.found || res.Context.IsEmpty() == tt.context {
				t.Errorf("DecodeResponse() = %+v", res)
			}
			if res.Location != loc {
				t.Errorf("location = %s", res.Location)
			}
		})
	}

	if _, err := op.DecodeResponse(&common.Message{MsgType: common.MsgTDtFetch, Ok: true}); err == nil {
		t.Errorf("DecodeResponse() without payload: expected error")
	}
}

func TestDtUpdateOperation(t *testing.T) {
	ctx := crdt.Context{9, 9}
	op, err := NewDtUpdateOperation(loc, crdt.MapOp{}.UpdateCounter("logins", 1), ctx, common.DtUpdateRequest{ReturnBody: true})
	if err != nil {
		t.Fatalf("NewDtUpdateOperation() error = %v", err)
	}
	req := op.Request()
	if !reflect.DeepEqual(req.Context, []byte{9, 9}) {
		t.Errorf("request context = %v", req.Context)
	}
	p, _ := common.DecodePayload[common.DtUpdateRequest](req)
	if p.Op.Kind != crdt.KindMap || len(p.Op.Updates) != 1 || !p.ReturnBody {
		t.Errorf("request payload = %+v", p)
	}

	res, err := op.DecodeResponse(response(t, common.MsgTDtUpdate, nil))
	if err != nil || res.Value != nil {
		t.Errorf("DecodeResponse() without body = %+v, %v", res, err)
	}

	if _, err := NewDtUpdateOperation(loc, nil, nil, common.DtUpdateRequest{}); err == nil {
		t.Errorf("NewDtUpdateOperation() with nil op: expected error")
	}
}

func TestCoverageOperations(t *testing.T) {
	ns := loc.Namespace
	op, err := NewCoveragePlanOperation(ns, common.CoveragePlanRequest{MinPartitions: 4})
	if err != nil {
		t.Fatalf("NewCoveragePlanOperation() error = %v", err)
	}
	if got := op.Request().Namespace(); got != ns {
		t.Errorf("request namespace = %s", got)
	}

	entries := []coverage.Entry{{Endpoint: "n1", Token: coverage.EncodeToken(coverage.Range{Start: 0, End: coverage.MaxPosition})}}
	plan, err := op.DecodeResponse(response(t, common.MsgTCoveragePlan, common.CoveragePlanResponse{Entries: entries}))
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if plan.Namespace != ns || !reflect.DeepEqual(plan.Entries, entries) {
		t.Errorf("plan = %+v", plan)
	}

	list, err := NewListKeysOperation(ns, entries[0], common.ListKeysRequest{})
	if err != nil {
		t.Fatalf("NewListKeysOperation() error = %v", err)
	}
	p, _ := common.DecodePayload[common.ListKeysRequest](list.Request())
	if !reflect.DeepEqual(p.Token, entries[0].Token) {
		t.Errorf("token = %x", p.Token)
	}
	keys, err := list.DecodeResponse(response(t, common.MsgTListKeys, common.ListKeysResponse{Keys: []string{"a", "b"}}))
	if err != nil || !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Errorf("keys = %v, %v", keys, err)
	}
}

func TestTimeseriesOperations(t *testing.T) {
	key := []timeseries.Cell{timeseries.NewCell("hash1")}

	create, err := NewTsCreateTableOperation(timeseries.TableDefinition{Name: "GeoCheckin"})
	if err != nil || create.Request().Key != "GeoCheckin" {
		t.Errorf("create request = %+v, %v", create.Request(), err)
	}

	fetch, err := NewTsFetchOperation("GeoCheckin", key, common.TsFetchRequest{})
	if err != nil {
		t.Fatalf("NewTsFetchOperation() error = %v", err)
	}
	p, _ := common.DecodePayload[common.TsFetchRequest](fetch.Request())
	if len(p.KeyCells) != 1 || p.KeyCells[0].Utf8String() != "hash1" {
		t.Errorf("fetch payload = %+v", p)
	}

	want := timeseries.QueryResult{
		Columns: []timeseries.ColumnDescription{{Name: "geohash", Type: timeseries.TypeVarchar, PartitionKey: true}},
		Rows:    []timeseries.Row{timeseries.NewRow(timeseries.NewCell("hash1"))},
	}
	got, err := fetch.DecodeResponse(response(t, common.MsgTTsFetch, common.TsFetchResponse{Result: want}))
	if err != nil || !reflect.DeepEqual(got, want) {
		t.Errorf("DecodeResponse() = %+v, %v", got, err)
	}

	del, _ := NewTsDeleteOperation("GeoCheckin", key, common.TsDeleteRequest{})
	if del.Request().MsgType != common.MsgTTsDelete {
		t.Errorf("delete type = %s", del.Request().MsgType)
	}
	store, _ := NewTsStoreOperation("GeoCheckin", []timeseries.Row{want.Rows[0]})
	if store.Request().MsgType != common.MsgTTsStore {
		t.Errorf("store type = %s", store.Request().MsgType)
	}
}
