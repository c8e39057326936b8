package dstore

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/lib/store/dstore/internal"
	"github.com/ValentinKolb/dCMD/lib/store/engine"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// DatatypeStateMachine is a state machine implementation for Dragonboat RAFT
type DatatypeStateMachine struct {
	replicaID uint64
	shardID   uint64
	engine    *engine.Engine // the actual data storage
}

// CreateStateMachineFactory returns a function that can be used by dragonboat to create a new state machine for a node host
func CreateStateMachineFactory() func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		return &DatatypeStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			engine:    engine.New(),
		}
	}
}

// Lookup handles read-only queries by mapping each Query operation to the corresponding engine method.
func (fsm *DatatypeStateMachine) Lookup(itf interface{}) (interface{}, error) {

	// try to parse Query into Query struct
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("invalid Query type: %T", itf))
	}

	switch q.Type {
	case internal.QueryTFetchDatatype:
		return fsm.engine.FetchDatatype(q.Location)
	case internal.QueryTListKeys:
		return fsm.engine.ListKeys(q.Location.Namespace, q.Range)
	case internal.QueryTDescribeTable:
		return fsm.engine.DescribeTable(q.Table)
	case internal.QueryTFetchRow:
		row, found, err := fsm.engine.FetchRow(q.Table, q.KeyCells)
		if err != nil {
			return nil, err
		}
		return internal.RowResult{Found: found, Row: row}, nil
	default:
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown Query operation: %s", q.Type))
	}
}

// result converts the outcome of an engine call into a raft entry result
func result(data []byte, err error) sm.Result {
	if err == nil {
		return sm.Result{Value: uint64(store.RetCSuccess), Data: data}
	}
	if se, ok := err.(*store.Error); ok {
		return sm.Result{Value: uint64(se.Code), Data: []byte(se.Msg)}
	}
	return sm.Result{Value: uint64(store.RetCInternalError), Data: []byte(err.Error())}
}

// apply executes a single command on the engine
func (fsm *DatatypeStateMachine) apply(cmd *internal.Command) sm.Result {
	switch cmd.Type {
	case internal.CommandTUpdateDatatype:
		op, err := cmd.Op()
		if err != nil {
			return result(nil, store.NewError(store.RetCInvalidOperation, err.Error()))
		}
		obj, err := fsm.engine.UpdateDatatype(cmd.Location(), op, cmd.Context)
		if err != nil {
			return result(nil, err)
		}
		data, err := json.Marshal(obj)
		return result(data, err)

	case internal.CommandTDeleteDatatype:
		return result(nil, fsm.engine.DeleteDatatype(cmd.Location()))

	case internal.CommandTCreateTable:
		def, err := cmd.TableDefinition()
		if err != nil {
			return result(nil, store.NewError(store.RetCInvalidOperation, err.Error()))
		}
		return result(nil, fsm.engine.CreateTable(def))

	case internal.CommandTStoreRows:
		rows, err := cmd.Rows()
		if err != nil {
			return result(nil, store.NewError(store.RetCInvalidOperation, err.Error()))
		}
		return result(nil, fsm.engine.StoreRows(cmd.Key, rows))

	case internal.CommandTDeleteRow:
		cells, err := cmd.KeyCells()
		if err != nil {
			return result(nil, store.NewError(store.RetCInvalidOperation, err.Error()))
		}
		return result(nil, fsm.engine.DeleteRow(cmd.Key, cells))

	default:
		return result(nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown Command operation: %s", cmd.Type)))
	}
}

// Update handles write commands on the engine
// All write operations are serialized into []byte and are accessible via the entries struct
func (fsm *DatatypeStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {

	// Nothing to do
	if len(entries) == 0 {
		return entries, nil
	}

	// Stats
	start := time.Now()

	for idx, e := range entries {
		if len(e.Cmd) == 0 {
			entries[idx].Result = sm.Result{Value: uint64(store.RetCInvalidOperation), Data: []byte("empty command ignored")}
			continue
		}

		cmd := internal.Command{}
		if err := cmd.Deserialize(e.Cmd); err != nil {
			entries[idx].Result = sm.Result{Value: uint64(store.RetCInternalError), Data: []byte(fmt.Sprintf("failed to deserialize command: %v", err))}
			continue
		}

		entries[idx].Result = fsm.apply(&cmd)
	}

	// Log if the update took long
	if elapsed := time.Since(start); elapsed > time.Millisecond {
		log.Infof("State machine took long to update. Batch updated %d entries, took %.2fms:", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

// PrepareSnapshot is not used. We don't need to prepare anything since we use fuzzy snapshotting
func (fsm *DatatypeStateMachine) PrepareSnapshot() (interface{}, error) {
	return nil, nil
}

// SaveSnapshot saves a fuzzy engine snapshot to the writer
func (fsm *DatatypeStateMachine) SaveSnapshot(_ interface{}, writer io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	return fsm.engine.Save(writer)
}

// RecoverFromSnapshot restores the engine from a snapshot.
func (fsm *DatatypeStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	return fsm.engine.Load(r)
}

// Close performs any necessary cleanup.
func (fsm *DatatypeStateMachine) Close() error {
	return nil
}
