package store

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the storage behind a node. It holds distributed data types addressed by
// location and rows of timeseries tables.
// All methods return a *Error on failure.
type IStore interface {
	// FetchDatatype returns the object stored at loc. A nil object without error means
	// nothing is stored there.
	FetchDatatype(loc query.Location) (obj *crdt.Object, err error)
	// UpdateDatatype applies op to the object at loc (creating it if needed) and
	// returns the new object. Removes need the context of a previous fetch.
	UpdateDatatype(loc query.Location, op crdt.Op, ctx crdt.Context) (obj *crdt.Object, err error)
	// DeleteDatatype removes the object at loc. Deleting a missing object is not an error.
	DeleteDatatype(loc query.Location) (err error)
	// ListKeys returns the sorted keys of ns whose ring position lies in rng.
	ListKeys(ns query.Namespace, rng coverage.Range) (keys []string, err error)

	// CreateTable creates a timeseries table. Creating an identical table again is a no-op.
	CreateTable(def timeseries.TableDefinition) (err error)
	// DescribeTable returns the definition of a table.
	DescribeTable(name string) (def *timeseries.TableDefinition, err error)
	// StoreRows writes rows to a table. Either all rows are stored or none.
	StoreRows(table string, rows []timeseries.Row) (err error)
	// FetchRow returns the row with the given key cells. The boolean reports whether it was found.
	FetchRow(table string, key []timeseries.Cell) (row *timeseries.Row, found bool, err error)
	// DeleteRow deletes the row with the given key cells.
	DeleteRow(table string, key []timeseries.Cell) (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// FromApplyError converts an error returned by crdt.Apply into a store Error
func FromApplyError(err error) *Error {
	var mismatch *crdt.TypeMismatchError
	switch {
	case errors.Is(err, crdt.ErrPreconditionFailed):
		return NewError(RetCPreconditionFailed, err.Error())
	case errors.As(err, &mismatch), errors.Is(err, crdt.ErrInvalidOperation):
		return NewError(RetCInvalidOperation, err.Error())
	default:
		return NewError(RetCInternalError, err.Error())
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the node.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCNotFound                            // 4: The addressed table or row does not exist.
	RetCPlanUnavailable                     // 5: No coverage plan can be computed.
	RetCPreconditionFailed                  // 6: A remove referenced something not present, or had no context.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCNotFound:
		return "NotFound"
	case RetCPlanUnavailable:
		return "PlanUnavailable"
	case RetCPreconditionFailed:
		return "PreconditionFailed"
	default:
		return fmt.Sprintf("Unknown(%d)", uint64(c))
	}
}
