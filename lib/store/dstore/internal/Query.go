package internal

import (
	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
)

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTFetchDatatype QueryType = iota // Retrieve a datatype by location.
	QueryTListKeys                       // List the keys of a namespace within a ring range.
	QueryTDescribeTable                  // Retrieve a table definition.
	QueryTFetchRow                       // Retrieve a row by its key cells.
)

func (q QueryType) String() string {
	switch q {
	case QueryTFetchDatatype:
		return "FetchDatatype"
	case QueryTListKeys:
		return "ListKeys"
	case QueryTDescribeTable:
		return "DescribeTable"
	case QueryTFetchRow:
		return "FetchRow"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via SyncRead or ReadStale
type Query struct {
	Type     QueryType         // The type of Query to perform.
	Location query.Location    // Used for: FetchDatatype, ListKeys (namespace only)
	Range    coverage.Range    // Used for: ListKeys
	Table    string            // Used for: DescribeTable, FetchRow
	KeyCells []timeseries.Cell // Used for: FetchRow
}

// RowResult is the result of a QueryTFetchRow operation.
// All other query results are returned as is (*crdt.Object, []string, *timeseries.TableDefinition).
type RowResult struct {
	Found bool
	Row   *timeseries.Row
}
