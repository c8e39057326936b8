package engine

import (
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
	"github.com/puzpuzpuz/xsync/v3"
)

// rowKey addresses a single row of a timeseries table
type rowKey struct {
	Table string
	Key   string // timeseries.EncodeKey of the key cells
}

// Engine is the in-memory state of a node. It is shared by the local store and
// the raft state machine.
//
// Thread-safety: all methods may be called concurrently, except Load.
type Engine struct {
	objects *xsync.MapOf[query.Location, *crdt.Object]
	tables  *xsync.MapOf[string, timeseries.TableDefinition]
	rows    *xsync.MapOf[rowKey, timeseries.Row]
	writes  atomic.Uint64
}

// New creates an empty engine
func New() *Engine {
	return &Engine{
		objects: xsync.NewMapOf[query.Location, *crdt.Object](),
		tables:  xsync.NewMapOf[string, timeseries.TableDefinition](),
		rows:    xsync.NewMapOf[rowKey, timeseries.Row](),
	}
}

// Writes returns the number of successful writes since creation
func (e *Engine) Writes() uint64 { return e.writes.Load() }

// --------------------------------------------------------------------------
// Datatypes
// --------------------------------------------------------------------------

func (e *Engine) FetchDatatype(loc query.Location) (*crdt.Object, error) {
	obj, _ := e.objects.Load(loc)
	return obj, nil
}

func (e *Engine) UpdateDatatype(loc query.Location, op crdt.Op, ctx crdt.Context) (*crdt.Object, error) {
	var applyErr error

	// Compute serializes concurrent updates of the same key
	actual, _ := e.objects.Compute(loc, func(old *crdt.Object, loaded bool) (*crdt.Object, bool) {
		var cur *crdt.Object
		if loaded {
			cur = old
		}
		next, err := crdt.Apply(cur, op, ctx)
		if err != nil {
			applyErr = err
			// keep the old object, or keep the key absent
			return old, !loaded
		}
		return next, false
	})

	if applyErr != nil {
		return nil, store.FromApplyError(applyErr)
	}
	e.writes.Add(1)
	return actual, nil
}

func (e *Engine) DeleteDatatype(loc query.Location) error {
	e.objects.Delete(loc)
	e.writes.Add(1)
	return nil
}

func (e *Engine) ListKeys(ns query.Namespace, rng coverage.Range) ([]string, error) {
	keys := make([]string, 0)
	e.objects.Range(func(loc query.Location, _ *crdt.Object) bool {
		if loc.Namespace == ns && rng.Contains(coverage.Position(ns, loc.Key)) {
			keys = append(keys, loc.Key)
		}
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// --------------------------------------------------------------------------
// Timeseries
// --------------------------------------------------------------------------

func (e *Engine) CreateTable(def timeseries.TableDefinition) error {
	if err := def.Validate(); err != nil {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}
	existing, loaded := e.tables.LoadOrStore(def.Name, def)
	if loaded && !reflect.DeepEqual(existing, def) {
		return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("table %s already exists with another definition", def.Name))
	}
	if !loaded {
		e.writes.Add(1)
	}
	return nil
}

func (e *Engine) DescribeTable(name string) (*timeseries.TableDefinition, error) {
	def, ok := e.tables.Load(name)
	if !ok {
		return nil, store.NewError(store.RetCNotFound, fmt.Sprintf("table %s does not exist", name))
	}
	return &def, nil
}

func (e *Engine) StoreRows(table string, rows []timeseries.Row) error {
	def, err := e.DescribeTable(table)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if err := def.ValidateRow(row); err != nil {
			return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("row %d: %v", i, err))
		}
	}
	for _, row := range rows {
		e.rows.Store(rowKey{Table: table, Key: timeseries.EncodeKey(def.KeyOf(row))}, row)
	}
	e.writes.Add(1)
	return nil
}

func (e *Engine) FetchRow(table string, key []timeseries.Cell) (*timeseries.Row, bool, error) {
	def, err := e.DescribeTable(table)
	if err != nil {
		return nil, false, err
	}
	if err := def.KeyCellsValid(key); err != nil {
		return nil, false, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	row, ok := e.rows.Load(rowKey{Table: table, Key: timeseries.EncodeKey(key)})
	if !ok {
		return nil, false, nil
	}
	return &row, true, nil
}

func (e *Engine) DeleteRow(table string, key []timeseries.Cell) error {
	def, err := e.DescribeTable(table)
	if err != nil {
		return err
	}
	if err := def.KeyCellsValid(key); err != nil {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}
	if _, ok := e.rows.LoadAndDelete(rowKey{Table: table, Key: timeseries.EncodeKey(key)}); !ok {
		return store.NewError(store.RetCNotFound, fmt.Sprintf("no row with key %v in table %s", key, table))
	}
	e.writes.Add(1)
	return nil
}
