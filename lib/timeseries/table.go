package timeseries

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// Row is an ordered list of cells, one per table column
type Row struct {
	Cells []Cell `json:"cells"`
}

// NewRow creates a row from cells
func NewRow(cells ...Cell) Row { return Row{Cells: cells} }

// ColumnDescription describes a single column. PartitionKey and LocalKey mark the
// columns that form the row key, LocalKey columns are ordered by their position.
type ColumnDescription struct {
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	Nullable     bool       `json:"nullable,omitempty"`
	PartitionKey bool       `json:"partitionKey,omitempty"`
	LocalKey     bool       `json:"localKey,omitempty"`
}

// TableDefinition is the schema of a timeseries table
type TableDefinition struct {
	Name    string              `json:"name"`
	Columns []ColumnDescription `json:"columns"`
}

// QueryResult is the result of a fetch: the column descriptions and the matching rows
type QueryResult struct {
	Columns []ColumnDescription `json:"columns"`
	Rows    []Row               `json:"rows"`
}

// Validate checks the table definition
func (d *TableDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("table name must not be empty")
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", d.Name)
	}
	names := make(map[string]struct{}, len(d.Columns))
	hasPartition := false
	for _, c := range d.Columns {
		if c.Name == "" {
			return fmt.Errorf("table %s has a column without a name", d.Name)
		}
		if _, ok := names[c.Name]; ok {
			return fmt.Errorf("table %s has duplicate column %s", d.Name, c.Name)
		}
		names[c.Name] = struct{}{}
		if c.Type < TypeVarchar || c.Type > TypeBlob {
			return fmt.Errorf("column %s has invalid type %s", c.Name, c.Type)
		}
		if (c.PartitionKey || c.LocalKey) && c.Nullable {
			return fmt.Errorf("key column %s must not be nullable", c.Name)
		}
		hasPartition = hasPartition || c.PartitionKey
	}
	if !hasPartition {
		return fmt.Errorf("table %s has no partition key", d.Name)
	}
	return nil
}

// keyColumns returns the indexes of the columns that form the row key
func (d *TableDefinition) keyColumns() []int {
	var idx []int
	for i, c := range d.Columns {
		if c.PartitionKey || c.LocalKey {
			idx = append(idx, i)
		}
	}
	return idx
}

// KeyColumns returns the descriptions of the key columns in key order
func (d *TableDefinition) KeyColumns() []ColumnDescription {
	var out []ColumnDescription
	for _, i := range d.keyColumns() {
		out = append(out, d.Columns[i])
	}
	return out
}

// ValidateRow checks that row matches the table schema
func (d *TableDefinition) ValidateRow(row Row) error {
	if len(row.Cells) != len(d.Columns) {
		return fmt.Errorf("row has %d cells, table %s has %d columns", len(row.Cells), d.Name, len(d.Columns))
	}
	for i, c := range d.Columns {
		cell := row.Cells[i]
		if cell.IsNull() {
			if !c.Nullable {
				return fmt.Errorf("column %s must not be null", c.Name)
			}
			continue
		}
		if cell.Type() != c.Type {
			return fmt.Errorf("column %s expects %s, got %s", c.Name, c.Type, cell.Type())
		}
	}
	return nil
}

// KeyCellsValid checks that cells form a complete key of the table
func (d *TableDefinition) KeyCellsValid(cells []Cell) error {
	keys := d.keyColumns()
	if len(cells) != len(keys) {
		return fmt.Errorf("key has %d cells, table %s has %d key columns", len(cells), d.Name, len(keys))
	}
	for i, ci := range keys {
		if cells[i].Type() != d.Columns[ci].Type {
			return fmt.Errorf("key column %s expects %s, got %s", d.Columns[ci].Name, d.Columns[ci].Type, cells[i].Type())
		}
	}
	return nil
}

// KeyOf returns the key cells of a row
func (d *TableDefinition) KeyOf(row Row) []Cell {
	keys := d.keyColumns()
	out := make([]Cell, len(keys))
	for i, ci := range keys {
		out[i] = row.Cells[ci]
	}
	return out
}

// EncodeKey returns a canonical string for a list of key cells. Equal cells yield
// equal keys.
func EncodeKey(cells []Cell) string {
	var sb strings.Builder
	var buf [8]byte
	for i, c := range cells {
		if i > 0 {
			sb.WriteByte('|')
		}
		sb.WriteByte(byte('0' + c.T))
		sb.WriteByte(':')
		switch c.T {
		case TypeVarchar:
			sb.WriteString(hex.EncodeToString([]byte(c.S)))
		case TypeBlob:
			sb.WriteString(hex.EncodeToString(c.B))
		case TypeDouble:
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(c.F))
			sb.WriteString(hex.EncodeToString(buf[:]))
		default:
			binary.BigEndian.PutUint64(buf[:], uint64(c.I))
			sb.WriteString(hex.EncodeToString(buf[:]))
		}
	}
	return sb.String()
}
