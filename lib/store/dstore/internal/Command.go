package internal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
)

// CommandType defines the possible operations for the state machine.
type CommandType uint8

const (
	CommandTUpdateDatatype CommandType = iota // Apply an operation to a datatype.
	CommandTDeleteDatatype                    // Delete a datatype.
	CommandTCreateTable                       // Create a timeseries table.
	CommandTStoreRows                         // Store rows in a table.
	CommandTDeleteRow                         // Delete a single row.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTUpdateDatatype:
		return "UpdateDatatype"
	case CommandTDeleteDatatype:
		return "DeleteDatatype"
	case CommandTCreateTable:
		return "CreateTable"
	case CommandTStoreRows:
		return "StoreRows"
	case CommandTDeleteRow:
		return "DeleteRow"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// Command represents a command to be executed by the state machine (a single entry in the raft log).
// For timeseries commands Key holds the table name.
type Command struct {
	Type       CommandType
	BucketType string
	Bucket     string
	Key        string
	Context    []byte
	Body       []byte // json encoded operation, table definition, rows or key cells
}

// headerSize is the size of the fixed part: type + 3 string lengths + context length
const headerSize = 1 + 2 + 2 + 4 + 4

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	return headerSize + len(command.BucketType) + len(command.Bucket) + len(command.Key) + len(command.Context) + len(command.Body)
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 2 bytes for bucket type length, 2 bytes for bucket length,
// 4 bytes for key length, 4 bytes for context length (all big endian),
// N bytes bucket type, N bytes bucket, N bytes key, N bytes context,
// N bytes for the body (optional)
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	result[0] = byte(command.Type)
	binary.BigEndian.PutUint16(result[1:3], uint16(len(command.BucketType)))
	binary.BigEndian.PutUint16(result[3:5], uint16(len(command.Bucket)))
	binary.BigEndian.PutUint32(result[5:9], uint32(len(command.Key)))
	binary.BigEndian.PutUint32(result[9:13], uint32(len(command.Context)))

	offset := headerSize
	offset += copy(result[offset:], command.BucketType)
	offset += copy(result[offset:], command.Bucket)
	offset += copy(result[offset:], command.Key)
	offset += copy(result[offset:], command.Context)
	copy(result[offset:], command.Body)

	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	command.Type = CommandType(data[0])
	btLen := int(binary.BigEndian.Uint16(data[1:3]))
	bLen := int(binary.BigEndian.Uint16(data[3:5]))
	keyLen := int(binary.BigEndian.Uint32(data[5:9]))
	ctxLen := int(binary.BigEndian.Uint32(data[9:13]))

	if len(data) < headerSize+btLen+bLen+keyLen+ctxLen {
		return fmt.Errorf("data too short for a command with key of length %d", keyLen)
	}

	offset := headerSize
	command.BucketType = string(data[offset : offset+btLen])
	offset += btLen
	command.Bucket = string(data[offset : offset+bLen])
	offset += bLen
	command.Key = string(data[offset : offset+keyLen])
	offset += keyLen

	command.Context = nil
	if ctxLen > 0 {
		command.Context = append([]byte(nil), data[offset:offset+ctxLen]...)
	}
	offset += ctxLen

	command.Body = nil
	if len(data) > offset {
		command.Body = append([]byte(nil), data[offset:]...)
	}
	return nil
}

// Location returns the datatype location addressed by the command
func (command *Command) Location() query.Location {
	return query.NewLocation(query.Namespace{BucketType: command.BucketType, Bucket: command.Bucket}, command.Key)
}

// --------------------------------------------------------------------------
// Command Factory Functions
// --------------------------------------------------------------------------

func NewUpdateDatatypeCommand(loc query.Location, op crdt.Op, ctx crdt.Context) (Command, error) {
	ov, err := crdt.EncodeOp(op)
	if err != nil {
		return Command{}, err
	}
	body, err := json.Marshal(ov)
	if err != nil {
		return Command{}, err
	}
	return Command{
		Type:       CommandTUpdateDatatype,
		BucketType: loc.Namespace.BucketType,
		Bucket:     loc.Namespace.Bucket,
		Key:        loc.Key,
		Context:    ctx,
		Body:       body,
	}, nil
}

func NewDeleteDatatypeCommand(loc query.Location) Command {
	return Command{
		Type:       CommandTDeleteDatatype,
		BucketType: loc.Namespace.BucketType,
		Bucket:     loc.Namespace.Bucket,
		Key:        loc.Key,
	}
}

func NewCreateTableCommand(def timeseries.TableDefinition) (Command, error) {
	body, err := json.Marshal(def)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: CommandTCreateTable, Key: def.Name, Body: body}, nil
}

func NewStoreRowsCommand(table string, rows []timeseries.Row) (Command, error) {
	body, err := json.Marshal(rows)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: CommandTStoreRows, Key: table, Body: body}, nil
}

func NewDeleteRowCommand(table string, key []timeseries.Cell) (Command, error) {
	body, err := json.Marshal(key)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: CommandTDeleteRow, Key: table, Body: body}, nil
}

// Op decodes the body of an update command
func (command *Command) Op() (crdt.Op, error) {
	var ov crdt.OpValue
	if err := json.Unmarshal(command.Body, &ov); err != nil {
		return nil, err
	}
	return crdt.DecodeOp(ov)
}

// TableDefinition decodes the body of a create table command
func (command *Command) TableDefinition() (def timeseries.TableDefinition, err error) {
	err = json.Unmarshal(command.Body, &def)
	return
}

// Rows decodes the body of a store rows command
func (command *Command) Rows() (rows []timeseries.Row, err error) {
	err = json.Unmarshal(command.Body, &rows)
	return
}

// KeyCells decodes the body of a delete row command
func (command *Command) KeyCells() (cells []timeseries.Cell, err error) {
	err = json.Unmarshal(command.Body, &cells)
	return
}
