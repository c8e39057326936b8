package dstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/lib/store/dstore/internal"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	retries = 5
	log     = logger.GetLogger("store")
)

// storeImpl is the concrete implementation of the distributed store.
// It encapsulates a Dragonboat NodeHost which is used to communicate with the state machine.
type storeImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration
}

// NewDistributedStore creates a new distributed store instance which uses raft consensus to ensure strict linearizability
// across multiple nodes.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.IStore {
	cs := nh.GetNoOPSession(shardID)
	return &storeImpl{
		nh:      nh,
		shardID: shardID,
		cs:      cs,
		timeout: timeout,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write proposes a serialized Command via SyncPropose.
// It returns the result data on success or a *store.Error.
func (s *storeImpl) write(cmd internal.Command) ([]byte, error) {
	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)

		res, err := s.nh.SyncPropose(ctx, s.cs, cmd.Serialize())
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}

		if err != nil {
			return nil, store.NewError(store.RetCInternalError, err.Error())
		}
		if res.Value != uint64(store.RetCSuccess) {
			return nil, store.NewError(store.RetCode(res.Value), string(res.Data))
		}
		return res.Data, nil
	}
	return nil, store.NewError(store.RetCInternalError, "timeout")
}

// read is a generic helper function queries the state machine
// and attempts to convert the response into the expected type R.
//
// This function uses the SyncRead function (dragonboat) by default to Query the state machine.
// If linearizability is not required, the stale parameter can be set to true to use the faster StaleRead function.
//
// If the read operation fails due to a system busy error, the function retries up to 5 times.
func read[R any](r *storeImpl, q internal.Query, stale bool) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {

		var res interface{}
		var err error

		if stale {
			res, err = r.nh.StaleRead(r.shardID, q)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			res, err = r.nh.SyncRead(ctx, r.shardID, q)
			cancel()
		}

		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(r.timeout / 10)
			continue
		}

		if err != nil {
			var se *store.Error
			if errors.As(err, &se) {
				return zero, se
			}
			return zero, store.NewError(store.RetCInternalError, err.Error())
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, store.NewError(store.RetCInternalError,
				fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, store.NewError(store.RetCInternalError, "timeout")
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) FetchDatatype(loc query.Location) (*crdt.Object, error) {
	if err := loc.Validate(); err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	return read[*crdt.Object](s, internal.Query{
		Type:     internal.QueryTFetchDatatype,
		Location: loc,
	}, false)
}

func (s *storeImpl) UpdateDatatype(loc query.Location, op crdt.Op, ctx crdt.Context) (*crdt.Object, error) {
	if err := loc.Validate(); err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	cmd, err := internal.NewUpdateDatatypeCommand(loc, op, ctx)
	if err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}
	data, err := s.write(cmd)
	if err != nil {
		return nil, err
	}
	obj := &crdt.Object{}
	if err := json.Unmarshal(data, obj); err != nil {
		return nil, store.NewError(store.RetCInternalError, err.Error())
	}
	return obj, nil
}

func (s *storeImpl) DeleteDatatype(loc query.Location) error {
	if err := loc.Validate(); err != nil {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}
	_, err := s.write(internal.NewDeleteDatatypeCommand(loc))
	return err
}

func (s *storeImpl) ListKeys(ns query.Namespace, rng coverage.Range) ([]string, error) {
	return read[[]string](s, internal.Query{
		Type:     internal.QueryTListKeys,
		Location: query.Location{Namespace: ns},
		Range:    rng,
	}, true) // Note: listing keys tolerates stale reads
}

func (s *storeImpl) CreateTable(def timeseries.TableDefinition) error {
	cmd, err := internal.NewCreateTableCommand(def)
	if err != nil {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}
	_, err = s.write(cmd)
	return err
}

func (s *storeImpl) DescribeTable(name string) (*timeseries.TableDefinition, error) {
	return read[*timeseries.TableDefinition](s, internal.Query{
		Type:  internal.QueryTDescribeTable,
		Table: name,
	}, false)
}

func (s *storeImpl) StoreRows(table string, rows []timeseries.Row) error {
	cmd, err := internal.NewStoreRowsCommand(table, rows)
	if err != nil {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}
	_, err = s.write(cmd)
	return err
}

func (s *storeImpl) FetchRow(table string, key []timeseries.Cell) (*timeseries.Row, bool, error) {
	res, err := read[internal.RowResult](s, internal.Query{
		Type:     internal.QueryTFetchRow,
		Table:    table,
		KeyCells: key,
	}, false)
	if err != nil {
		return nil, false, err
	}
	return res.Row, res.Found, nil
}

func (s *storeImpl) DeleteRow(table string, key []timeseries.Cell) error {
	cmd, err := internal.NewDeleteRowCommand(table, key)
	if err != nil {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}
	_, err = s.write(cmd)
	return err
}
