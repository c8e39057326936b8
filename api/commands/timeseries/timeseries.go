package timeseries

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/dCMD/api/commands"
	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/operations"
)

// --------------------------------------------------------------------------
// Create Table
// --------------------------------------------------------------------------

// CreateTableBuilder builds a CreateTable command
type CreateTableBuilder struct {
	name    string
	columns []timeseries.ColumnDescription
}

// NewCreateTableBuilder creates a builder for the table name
func NewCreateTableBuilder(name string) *CreateTableBuilder {
	return &CreateTableBuilder{name: name}
}

// WithColumns appends columns to the schema
func (b *CreateTableBuilder) WithColumns(columns ...timeseries.ColumnDescription) *CreateTableBuilder {
	b.columns = append(b.columns, columns...)
	return b
}

// Build validates the schema. A table needs at least one partition key column.
func (b *CreateTableBuilder) Build() (*CreateTable, error) {
	def := timeseries.TableDefinition{
		Name:    b.name,
		Columns: append([]timeseries.ColumnDescription(nil), b.columns...),
	}
	v := commands.NewValidator("create table").
		RequireString("table", b.name).
		Require("columns", len(b.columns) > 0)
	if b.name != "" && len(b.columns) > 0 {
		v.Check("columns", def.Validate())
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &CreateTable{def: def}, nil
}

// CreateTable creates a timeseries table. Creating an identical table again succeeds,
// a different schema under an existing name fails with RetCInvalidOperation.
type CreateTable struct {
	def timeseries.TableDefinition
}

var _ commands.Command[struct{}, string] = (*CreateTable)(nil)

func (c *CreateTable) QueryInfo() string { return c.def.Name }

// Definition returns the schema of the table
func (c *CreateTable) Definition() timeseries.TableDefinition { return c.def }

func (c *CreateTable) ExecuteAsync(cl cluster.ICluster) *future.Future[struct{}] {
	op, err := operations.NewTsCreateTableOperation(c.def)
	if err != nil {
		return commands.Failed[struct{}](err)
	}
	return cluster.Execute[struct{}](cl, op)
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// StoreBuilder builds a Store command
type StoreBuilder struct {
	table string
	rows  []timeseries.Row
}

func NewStoreBuilder(table string) *StoreBuilder {
	return &StoreBuilder{table: table}
}

// WithRows appends rows. The cells of a row are in column order.
func (b *StoreBuilder) WithRows(rows ...timeseries.Row) *StoreBuilder {
	b.rows = append(b.rows, rows...)
	return b
}

func (b *StoreBuilder) Build() (*Store, error) {
	err := commands.NewValidator("store rows").
		RequireString("table", b.table).
		Require("rows", len(b.rows) > 0).
		Err()
	if err != nil {
		return nil, err
	}
	return &Store{table: b.table, rows: append([]timeseries.Row(nil), b.rows...)}, nil
}

// Store writes rows into a table. Either all rows are stored or none.
type Store struct {
	table string
	rows  []timeseries.Row
}

var _ commands.Command[struct{}, string] = (*Store)(nil)

func (s *Store) QueryInfo() string { return s.table }

func (s *Store) ExecuteAsync(c cluster.ICluster) *future.Future[struct{}] {
	op, err := operations.NewTsStoreOperation(s.table, s.rows)
	if err != nil {
		return commands.Failed[struct{}](err)
	}
	return cluster.Execute[struct{}](c, op)
}

// --------------------------------------------------------------------------
// Fetch
// --------------------------------------------------------------------------

// FetchBuilder builds a Fetch command
type FetchBuilder struct {
	table string
	key   []timeseries.Cell
	opts  common.TsFetchRequest
}

// NewFetchBuilder creates a builder fetching the row of table with the given key
// cells (partition key columns first, then local key columns)
func NewFetchBuilder(table string, key []timeseries.Cell) *FetchBuilder {
	return &FetchBuilder{table: table, key: key}
}

func (b *FetchBuilder) WithTimeout(timeout time.Duration) *FetchBuilder {
	b.opts.TimeoutMs = uint32(timeout.Milliseconds())
	return b
}

func (b *FetchBuilder) Build() (*Fetch, error) {
	err := commands.NewValidator("fetch row").
		RequireString("table", b.table).
		Require("key", len(b.key) > 0).
		Err()
	if err != nil {
		return nil, err
	}
	return &Fetch{table: b.table, key: append([]timeseries.Cell(nil), b.key...), opts: b.opts}, nil
}

// Fetch reads a single row by key. The result holds the column descriptions of the
// table and zero or one row.
type Fetch struct {
	table string
	key   []timeseries.Cell
	opts  common.TsFetchRequest
}

var _ commands.Command[timeseries.QueryResult, string] = (*Fetch)(nil)

func (f *Fetch) QueryInfo() string { return f.table }

func (f *Fetch) ExecuteAsync(c cluster.ICluster) *future.Future[timeseries.QueryResult] {
	op, err := operations.NewTsFetchOperation(f.table, f.key, f.opts)
	if err != nil {
		return commands.Failed[timeseries.QueryResult](err)
	}
	return commands.Run(c, op, f.convertResponse)
}

// convertResponse checks that every row matches the returned columns
func (f *Fetch) convertResponse(res timeseries.QueryResult) (timeseries.QueryResult, error) {
	for i, row := range res.Rows {
		if len(row.Cells) != len(res.Columns) {
			return timeseries.QueryResult{}, fmt.Errorf("row %d has %d cells for %d columns", i, len(row.Cells), len(res.Columns))
		}
	}
	return res, nil
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// DeleteBuilder builds a Delete command
type DeleteBuilder struct {
	table string
	key   []timeseries.Cell
	opts  common.TsDeleteRequest
}

func NewDeleteBuilder(table string, key []timeseries.Cell) *DeleteBuilder {
	return &DeleteBuilder{table: table, key: key}
}

func (b *DeleteBuilder) WithTimeout(timeout time.Duration) *DeleteBuilder {
	b.opts.TimeoutMs = uint32(timeout.Milliseconds())
	return b
}

func (b *DeleteBuilder) Build() (*Delete, error) {
	err := commands.NewValidator("delete row").
		RequireString("table", b.table).
		Require("key", len(b.key) > 0).
		Err()
	if err != nil {
		return nil, err
	}
	return &Delete{table: b.table, key: append([]timeseries.Cell(nil), b.key...), opts: b.opts}, nil
}

// Delete removes a single row by key. Deleting a missing row fails with RetCNotFound.
type Delete struct {
	table string
	key   []timeseries.Cell
	opts  common.TsDeleteRequest
}

var _ commands.Command[struct{}, string] = (*Delete)(nil)

func (d *Delete) QueryInfo() string { return d.table }

func (d *Delete) ExecuteAsync(c cluster.ICluster) *future.Future[struct{}] {
	op, err := operations.NewTsDeleteOperation(d.table, d.key, d.opts)
	if err != nil {
		return commands.Failed[struct{}](err)
	}
	return cluster.Execute[struct{}](c, op)
}
