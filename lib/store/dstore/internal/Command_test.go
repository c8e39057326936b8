package internal

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"
	"time"

	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
)

// TestSizeBytes tests the SizeBytes method
func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name: "Command with location, context and body",
			command: Command{
				Type:       CommandTUpdateDatatype,
				BucketType: "maps",
				Bucket:     "users",
				Key:        "alice",
				Context:    []byte{1, 2, 3},
				Body:       []byte(`{"kind":"counter"}`),
			},
			expected: headerSize + 4 + 5 + 5 + 3 + 18,
		},
		{
			name: "Command with table name only",
			command: Command{
				Type: CommandTCreateTable,
				Key:  "GeoCheckin",
			},
			expected: headerSize + 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := tt.command.SizeBytes()
			if size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

// TestSerializeDeserialize tests both Serialize and Deserialize methods
func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{
			name: "Full update command",
			command: Command{
				Type:       CommandTUpdateDatatype,
				BucketType: "sets",
				Bucket:     "tags",
				Key:        "post-1",
				Context:    []byte{0, 1, 2, 254, 255},
				Body:       []byte(`{"kind":"set"}`),
			},
		},
		{
			name: "Command without context and body",
			command: Command{
				Type:       CommandTDeleteDatatype,
				BucketType: "sets",
				Bucket:     "tags",
				Key:        "post-1",
			},
		},
		{
			name: "Command with empty key",
			command: Command{
				Type:   CommandTUpdateDatatype,
				Bucket: "b",
				Body:   []byte("x"),
			},
		},
		{
			name: "Command with Unicode key",
			command: Command{
				Type:       CommandTUpdateDatatype,
				BucketType: "default",
				Bucket:     "b",
				Key:        "你好世界", // Hello World in Chinese
				Body:       []byte("unicode test"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.command.Serialize()

			var newCommand Command
			if err := newCommand.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}

			if !reflect.DeepEqual(newCommand, tt.command) {
				t.Errorf("Deserialize() = %+v, want %+v", newCommand, tt.command)
			}

			if tt.command.SizeBytes() != len(data) {
				t.Errorf("SizeBytes() = %d, but serialized data length = %d",
					tt.command.SizeBytes(), len(data))
			}
		})
	}
}

// TestDeserializeErrors tests error cases in Deserialize
func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expectedErr string
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectedErr: "data too short for command",
		},
		{
			name:        "Data too short (less than header)",
			data:        []byte{1, 2, 3, 4, 5},
			expectedErr: "data too short for command",
		},
		{
			name: "Invalid key length",
			data: func() []byte {
				data := make([]byte, headerSize)
				data[0] = byte(CommandTUpdateDatatype)
				binary.BigEndian.PutUint32(data[5:9], 1000)
				return data
			}(),
			expectedErr: "data too short for a command with key of length 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			err := cmd.Deserialize(tt.data)
			if err == nil {
				t.Fatalf("Expected error but got nil")
			}
			if err.Error() != tt.expectedErr {
				t.Errorf("Expected error %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

// TestBinaryFormat tests the exact binary format of serialized commands
func TestBinaryFormat(t *testing.T) {
	cmd := Command{
		Type:       CommandTDeleteRow,
		BucketType: "t",
		Bucket:     "bb",
		Key:        "key",
		Context:    []byte{9},
		Body:       []byte("body"),
	}

	expected := make([]byte, cmd.SizeBytes())
	expected[0] = byte(CommandTDeleteRow)
	binary.BigEndian.PutUint16(expected[1:3], 1)
	binary.BigEndian.PutUint16(expected[3:5], 2)
	binary.BigEndian.PutUint32(expected[5:9], 3)
	binary.BigEndian.PutUint32(expected[9:13], 1)
	copy(expected[13:], "tbbkey")
	expected[19] = 9
	copy(expected[20:], "body")

	serialized := cmd.Serialize()
	if !bytes.Equal(serialized, expected) {
		t.Errorf("Binary format does not match:\nGot:      %v\nExpected: %v", serialized, expected)
	}
}

// TestFactories tests that the factory functions produce decodable commands
func TestFactories(t *testing.T) {
	loc := query.NewLocation(query.NewNamespace("maps", "users"), "alice")
	op := crdt.MapOp{}.UpdateCounter("logins", 1).UpdateFlag("active", true)

	cmd, err := NewUpdateDatatypeCommand(loc, op, crdt.Context{1, 2})
	if err != nil {
		t.Fatalf("NewUpdateDatatypeCommand() error = %v", err)
	}
	var back Command
	if err := back.Deserialize(cmd.Serialize()); err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	if back.Location() != loc {
		t.Errorf("Location() = %v, want %v", back.Location(), loc)
	}
	gotOp, err := back.Op()
	if err != nil {
		t.Fatalf("Op() error = %v", err)
	}
	if !reflect.DeepEqual(gotOp, crdt.Op(op)) {
		t.Errorf("Op() = %+v, want %+v", gotOp, op)
	}

	key := []timeseries.Cell{timeseries.NewCell("h"), timeseries.NewTimestampCell(time.UnixMilli(5))}
	cmd, _ = NewDeleteRowCommand("t", key)
	cells, err := cmd.KeyCells()
	if err != nil || len(cells) != 2 || !cells[1].Equal(key[1]) {
		t.Errorf("KeyCells() = %v, %v", cells, err)
	}
}
