package lstore

import (
	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/lib/store/engine"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
)

type storeImpl struct {
	engine *engine.Engine
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// This works by using the engine from the engine package directly.
func NewLocalStore() store.IStore {
	return &storeImpl{
		engine: engine.New(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) FetchDatatype(loc query.Location) (*crdt.Object, error) {
	if err := loc.Validate(); err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	return s.engine.FetchDatatype(loc)
}

func (s *storeImpl) UpdateDatatype(loc query.Location, op crdt.Op, ctx crdt.Context) (*crdt.Object, error) {
	if err := loc.Validate(); err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	return s.engine.UpdateDatatype(loc, op, ctx)
}

func (s *storeImpl) DeleteDatatype(loc query.Location) error {
	if err := loc.Validate(); err != nil {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}
	return s.engine.DeleteDatatype(loc)
}

func (s *storeImpl) ListKeys(ns query.Namespace, rng coverage.Range) ([]string, error) {
	return s.engine.ListKeys(ns, rng)
}

func (s *storeImpl) CreateTable(def timeseries.TableDefinition) error {
	return s.engine.CreateTable(def)
}

func (s *storeImpl) DescribeTable(name string) (*timeseries.TableDefinition, error) {
	return s.engine.DescribeTable(name)
}

func (s *storeImpl) StoreRows(table string, rows []timeseries.Row) error {
	return s.engine.StoreRows(table, rows)
}

func (s *storeImpl) FetchRow(table string, key []timeseries.Cell) (*timeseries.Row, bool, error) {
	return s.engine.FetchRow(table, key)
}

func (s *storeImpl) DeleteRow(table string, key []timeseries.Cell) error {
	return s.engine.DeleteRow(table, key)
}
