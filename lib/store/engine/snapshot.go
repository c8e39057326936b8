package engine

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	magicNum        = "DCMDSNAP"
	snapshotVersion = 1
)

// record types of a snapshot
const (
	recObject uint8 = iota + 1
	recTable
	recRow
)

type objectRecord struct {
	Location query.Location `json:"location"`
	Object   *crdt.Object   `json:"object"`
}

type rowRecord struct {
	Table string         `json:"table"`
	Key   string         `json:"key"`
	Row   timeseries.Row `json:"row"`
}

// Save writes all objects, tables and rows to w.
//
// Format: magic number, version byte, then records of
// [type uint8][length uint32][json body], terminated by a zero type byte.
//
// Thread-safety: concurrent writes are allowed, they may or may not be part of
// the snapshot.
func (e *Engine) Save(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1024*1024)

	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(snapshotVersion)); err != nil {
		return err
	}

	var writeErr error
	write := func(typ uint8, v any) bool {
		body, err := json.Marshal(v)
		if err != nil {
			writeErr = err
			return false
		}
		if err := binary.Write(bw, binary.LittleEndian, typ); err != nil {
			writeErr = err
			return false
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(body))); err != nil {
			writeErr = err
			return false
		}
		if _, err := bw.Write(body); err != nil {
			writeErr = err
			return false
		}
		return true
	}

	e.tables.Range(func(_ string, def timeseries.TableDefinition) bool {
		return write(recTable, def)
	})
	if writeErr != nil {
		return writeErr
	}
	e.objects.Range(func(loc query.Location, obj *crdt.Object) bool {
		return write(recObject, objectRecord{Location: loc, Object: obj})
	})
	if writeErr != nil {
		return writeErr
	}
	e.rows.Range(func(k rowKey, row timeseries.Row) bool {
		return write(recRow, rowRecord{Table: k.Table, Key: k.Key, Row: row})
	})
	if writeErr != nil {
		return writeErr
	}

	if err := binary.Write(bw, binary.LittleEndian, uint8(0)); err != nil {
		return err
	}
	return bw.Flush()
}

// Load replaces the content of the engine with a snapshot written by Save.
//
// Thread-safety: This function is not thread-safe and should not be called concurrently
func (e *Engine) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024)

	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid snapshot format: magic number mismatch")
	}

	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %d (expected %d)", version, snapshotVersion)
	}

	objects := xsync.NewMapOf[query.Location, *crdt.Object]()
	tables := xsync.NewMapOf[string, timeseries.TableDefinition]()
	rows := xsync.NewMapOf[rowKey, timeseries.Row]()

	for {
		var typ uint8
		if err := binary.Read(br, binary.LittleEndian, &typ); err != nil {
			return err
		}
		if typ == 0 {
			break
		}

		var length uint32
		if err := binary.Read(br, binary.LittleEndian, &length); err != nil {
			return err
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(br, body); err != nil {
			return err
		}

		switch typ {
		case recTable:
			var def timeseries.TableDefinition
			if err := json.Unmarshal(body, &def); err != nil {
				return fmt.Errorf("invalid table record: %w", err)
			}
			tables.Store(def.Name, def)
		case recObject:
			var rec objectRecord
			if err := json.Unmarshal(body, &rec); err != nil {
				return fmt.Errorf("invalid object record: %w", err)
			}
			objects.Store(rec.Location, rec.Object)
		case recRow:
			var rec rowRecord
			if err := json.Unmarshal(body, &rec); err != nil {
				return fmt.Errorf("invalid row record: %w", err)
			}
			rows.Store(rowKey{Table: rec.Table, Key: rec.Key}, rec.Row)
		default:
			return fmt.Errorf("unknown snapshot record type %d", typ)
		}
	}

	e.objects = objects
	e.tables = tables
	e.rows = rows
	return nil
}
