package operations

import (
	"github.com/ValentinKolb/dCMD/lib/timeseries"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

// TsCreateTableOperation creates a timeseries table
type TsCreateTableOperation struct {
	req *common.Message
}

func NewTsCreateTableOperation(def timeseries.TableDefinition) (*TsCreateTableOperation, error) {
	req, err := common.NewTableRequest(common.MsgTTsCreateTable, def.Name, common.TsCreateTableRequest{Table: def})
	if err != nil {
		return nil, err
	}
	return &TsCreateTableOperation{req: req}, nil
}

func (o *TsCreateTableOperation) Request() *common.Message { return o.req }

func (o *TsCreateTableOperation) DecodeResponse(*common.Message) (struct{}, error) {
	return struct{}{}, nil
}

// TsStoreOperation writes rows into a table
type TsStoreOperation struct {
	req *common.Message
}

func NewTsStoreOperation(table string, rows []timeseries.Row) (*TsStoreOperation, error) {
	req, err := common.NewTableRequest(common.MsgTTsStore, table, common.TsStoreRequest{Rows: rows})
	if err != nil {
		return nil, err
	}
	return &TsStoreOperation{req: req}, nil
}

func (o *TsStoreOperation) Request() *common.Message { return o.req }

func (o *TsStoreOperation) DecodeResponse(*common.Message) (struct{}, error) {
	return struct{}{}, nil
}

// TsFetchOperation fetches a single row by its key cells
type TsFetchOperation struct {
	req *common.Message
}

func NewTsFetchOperation(table string, key []timeseries.Cell, opts common.TsFetchRequest) (*TsFetchOperation, error) {
	opts.KeyCells = key
	req, err := common.NewTableRequest(common.MsgTTsFetch, table, opts)
	if err != nil {
		return nil, err
	}
	return &TsFetchOperation{req: req}, nil
}

func (o *TsFetchOperation) Request() *common.Message { return o.req }

func (o *TsFetchOperation) DecodeResponse(resp *common.Message) (timeseries.QueryResult, error) {
	p, err := common.DecodePayload[common.TsFetchResponse](resp)
	if err != nil {
		return timeseries.QueryResult{}, err
	}
	return p.Result, nil
}

// TsDeleteOperation deletes a single row by its key cells
type TsDeleteOperation struct {
	req *common.Message
}

func NewTsDeleteOperation(table string, key []timeseries.Cell, opts common.TsDeleteRequest) (*TsDeleteOperation, error) {
	opts.KeyCells = key
	req, err := common.NewTableRequest(common.MsgTTsDelete, table, opts)
	if err != nil {
		return nil, err
	}
	return &TsDeleteOperation{req: req}, nil
}

func (o *TsDeleteOperation) Request() *common.Message { return o.req }

func (o *TsDeleteOperation) DecodeResponse(*common.Message) (struct{}, error) {
	return struct{}{}, nil
}
