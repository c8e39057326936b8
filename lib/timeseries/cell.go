package timeseries

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ColumnType is the type of a timeseries column (and of the cells in it)
type ColumnType uint8

const (
	TypeNull ColumnType = iota
	TypeVarchar
	TypeSInt64
	TypeDouble
	TypeTimestamp
	TypeBoolean
	TypeBlob
)

// String returns the string representation of a ColumnType.
func (t ColumnType) String() string {
	switch t {
	case TypeVarchar:
		return "varchar"
	case TypeSInt64:
		return "sint64"
	case TypeDouble:
		return "double"
	case TypeTimestamp:
		return "timestamp"
	case TypeBoolean:
		return "boolean"
	case TypeBlob:
		return "blob"
	default:
		return "null"
	}
}

// ParseColumnType converts a string representation back into a ColumnType
func ParseColumnType(s string) (ColumnType, error) {
	for t := TypeVarchar; t <= TypeBlob; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return TypeNull, fmt.Errorf("unknown column type: %s", s)
}

// MarshalJSON implements the json.Marshaller interface for ColumnType.
func (t ColumnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for ColumnType.
func (t *ColumnType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "null" {
		*t = TypeNull
		return nil
	}
	parsed, err := ParseColumnType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// --------------------------------------------------------------------------
// Cell
// --------------------------------------------------------------------------

// Cell holds a single value of a row. The zero Cell is null.
// Fields are exported for serialization only, use the constructors and accessors.
type Cell struct {
	T ColumnType `json:"t"`
	S string     `json:"s,omitempty"`
	I int64      `json:"i,omitempty"`
	F float64    `json:"f,omitempty"`
	B []byte     `json:"b,omitempty"`
}

// NewCell creates a varchar cell
func NewCell(s string) Cell { return Cell{T: TypeVarchar, S: s} }

// NewSInt64Cell creates a signed integer cell
func NewSInt64Cell(i int64) Cell { return Cell{T: TypeSInt64, I: i} }

// NewDoubleCell creates a double cell
func NewDoubleCell(f float64) Cell { return Cell{T: TypeDouble, F: f} }

// NewTimestampCell creates a timestamp cell with millisecond precision
func NewTimestampCell(ts time.Time) Cell { return Cell{T: TypeTimestamp, I: ts.UnixMilli()} }

// NewBooleanCell creates a boolean cell
func NewBooleanCell(b bool) Cell {
	c := Cell{T: TypeBoolean}
	if b {
		c.I = 1
	}
	return c
}

// NewBlobCell creates a blob cell
func NewBlobCell(b []byte) Cell { return Cell{T: TypeBlob, B: append([]byte(nil), b...)} }

// Type returns the type of the cell, TypeNull for null cells
func (c Cell) Type() ColumnType { return c.T }

// IsNull reports whether the cell holds no value
func (c Cell) IsNull() bool { return c.T == TypeNull }

func (c Cell) Utf8String() string { return c.S }
func (c Cell) Int64() int64       { return c.I }
func (c Cell) Double() float64    { return c.F }
func (c Cell) Boolean() bool      { return c.I != 0 }
func (c Cell) Blob() []byte       { return c.B }

// Timestamp returns the value of a timestamp cell in UTC
func (c Cell) Timestamp() time.Time { return time.UnixMilli(c.I).UTC() }

// Equal reports whether both cells have the same type and value
func (c Cell) Equal(o Cell) bool {
	if c.T != o.T {
		return false
	}
	switch c.T {
	case TypeVarchar:
		return c.S == o.S
	case TypeDouble:
		return c.F == o.F || (math.IsNaN(c.F) && math.IsNaN(o.F))
	case TypeBlob:
		return bytes.Equal(c.B, o.B)
	case TypeNull:
		return true
	default:
		return c.I == o.I
	}
}

func (c Cell) String() string {
	switch c.T {
	case TypeVarchar:
		return c.S
	case TypeSInt64:
		return fmt.Sprintf("%d", c.I)
	case TypeDouble:
		return fmt.Sprintf("%g", c.F)
	case TypeTimestamp:
		return c.Timestamp().Format(time.RFC3339Nano)
	case TypeBoolean:
		return fmt.Sprintf("%t", c.Boolean())
	case TypeBlob:
		return fmt.Sprintf("%x", c.B)
	default:
		return "NULL"
	}
}

// ParseCell parses the text form of a value of type t, as accepted by the CLI.
// Timestamps are RFC3339 or milliseconds since the epoch.
func ParseCell(t ColumnType, s string) (Cell, error) {
	switch t {
	case TypeVarchar:
		return NewCell(s), nil
	case TypeSInt64:
		var i int64
		if _, err := fmt.Sscan(s, &i); err != nil {
			return Cell{}, fmt.Errorf("invalid sint64 %q: %w", s, err)
		}
		return NewSInt64Cell(i), nil
	case TypeDouble:
		var f float64
		if _, err := fmt.Sscan(s, &f); err != nil {
			return Cell{}, fmt.Errorf("invalid double %q: %w", s, err)
		}
		return NewDoubleCell(f), nil
	case TypeTimestamp:
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return NewTimestampCell(ts), nil
		}
		var ms int64
		if _, err := fmt.Sscan(s, &ms); err != nil {
			return Cell{}, fmt.Errorf("invalid timestamp %q", s)
		}
		return NewTimestampCell(time.UnixMilli(ms)), nil
	case TypeBoolean:
		switch s {
		case "true", "1":
			return NewBooleanCell(true), nil
		case "false", "0":
			return NewBooleanCell(false), nil
		}
		return Cell{}, fmt.Errorf("invalid boolean %q", s)
	case TypeBlob:
		return NewBlobCell([]byte(s)), nil
	default:
		return Cell{}, fmt.Errorf("cannot parse a %s cell", t)
	}
}
