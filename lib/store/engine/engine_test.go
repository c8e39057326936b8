package engine

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
)

var ns = query.NewNamespace("counters", "hits")

func retCode(err error) store.RetCode {
	var se *store.Error
	if errors.As(err, &se) {
		return se.Code
	}
	return store.RetCSuccess
}

func TestConcurrentCounterUpdates(t *testing.T) {
	e := New()
	loc := query.NewLocation(ns, "page")

	const workers, perWorker = 16, 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if _, err := e.UpdateDatatype(loc, crdt.CounterOp{Increment: 1}, nil); err != nil {
					t.Errorf("UpdateDatatype() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	obj, _ := e.FetchDatatype(loc)
	dt, _ := obj.Datatype()
	c, _ := crdt.AsCounter(dt)
	if c.View() != workers*perWorker {
		t.Errorf("counter = %d, want %d", c.View(), workers*perWorker)
	}
}

func TestUpdateErrors(t *testing.T) {
	e := New()
	loc := query.NewLocation(ns, "k")

	if _, err := e.UpdateDatatype(loc, crdt.SetOp{Removes: [][]byte{[]byte("x")}}, nil); retCode(err) != store.RetCPreconditionFailed {
		t.Errorf("remove without context: error = %v", err)
	}
	if obj, _ := e.FetchDatatype(loc); obj != nil {
		t.Errorf("failed update created an object")
	}

	_, _ = e.UpdateDatatype(loc, crdt.CounterOp{Increment: 1}, nil)
	if _, err := e.UpdateDatatype(loc, crdt.GSetOp{}, nil); retCode(err) != store.RetCInvalidOperation {
		t.Errorf("type mismatch: error = %v", err)
	}
	obj, _ := e.FetchDatatype(loc)
	if obj.Version != 1 {
		t.Errorf("failed update changed the object, version = %d", obj.Version)
	}
}

func TestListKeysByRange(t *testing.T) {
	e := New()
	other := query.NewNamespace("counters", "other")
	for i := 0; i < 50; i++ {
		_, _ = e.UpdateDatatype(query.NewLocation(ns, fmt.Sprintf("k%02d", i)), crdt.CounterOp{Increment: 1}, nil)
		_, _ = e.UpdateDatatype(query.NewLocation(other, fmt.Sprintf("o%02d", i)), crdt.CounterOp{Increment: 1}, nil)
	}

	plan, _ := coverage.NewRing(8, []string{"a"}).Plan(ns, 0)
	var all []string
	for _, entry := range plan.Entries {
		rng, _ := entry.Range()
		keys, err := e.ListKeys(ns, rng)
		if err != nil {
			t.Fatalf("ListKeys() error = %v", err)
		}
		all = append(all, keys...)
	}
	if len(all) != 50 {
		t.Errorf("keys over all ranges = %d, want 50", len(all))
	}
	seen := map[string]bool{}
	for _, k := range all {
		if seen[k] {
			t.Errorf("key %s listed twice", k)
		}
		seen[k] = true
	}
}

func weather() timeseries.TableDefinition {
	return timeseries.TableDefinition{
		Name: "GeoCheckin",
		Columns: []timeseries.ColumnDescription{
			{Name: "geohash", Type: timeseries.TypeVarchar, PartitionKey: true},
			{Name: "user", Type: timeseries.TypeVarchar, PartitionKey: true},
			{Name: "time", Type: timeseries.TypeTimestamp, LocalKey: true},
			{Name: "weather", Type: timeseries.TypeVarchar},
			{Name: "temperature", Type: timeseries.TypeDouble},
		},
	}
}

func TestTimeseries(t *testing.T) {
	e := New()
	def := weather()
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	if err := e.StoreRows(def.Name, nil); retCode(err) != store.RetCNotFound {
		t.Errorf("store into missing table: error = %v", err)
	}
	if err := e.CreateTable(def); err != nil {
		t.Fatalf("CreateTable() error = %v", err)
	}
	if err := e.CreateTable(def); err != nil {
		t.Errorf("identical CreateTable() error = %v", err)
	}
	changed := weather()
	changed.Columns[4].Type = timeseries.TypeSInt64
	if err := e.CreateTable(changed); retCode(err) != store.RetCInvalidOperation {
		t.Errorf("conflicting CreateTable() error = %v", err)
	}

	rows := []timeseries.Row{
		timeseries.NewRow(timeseries.NewCell("hash1"), timeseries.NewCell("user2"), timeseries.NewTimestampCell(ts), timeseries.NewCell("cloudy"), timeseries.NewDoubleCell(79.0)),
		timeseries.NewRow(timeseries.NewCell("hash2"), timeseries.NewCell("user4"), timeseries.NewTimestampCell(ts), timeseries.NewCell("rain"), timeseries.NewDoubleCell(79.0)),
	}
	if err := e.StoreRows(def.Name, rows); err != nil {
		t.Fatalf("StoreRows() error = %v", err)
	}

	bad := append(rows, timeseries.NewRow(timeseries.NewCell("x")))
	if err := e.StoreRows(def.Name, bad); retCode(err) != store.RetCInvalidOperation {
		t.Errorf("StoreRows() with a bad row: error = %v", err)
	}

	key := []timeseries.Cell{timeseries.NewCell("hash2"), timeseries.NewCell("user4"), timeseries.NewTimestampCell(ts)}
	row, found, err := e.FetchRow(def.Name, key)
	if err != nil || !found {
		t.Fatalf("FetchRow() = %v, %v, %v", row, found, err)
	}
	if row.Cells[3].Utf8String() != "rain" || row.Cells[4].Double() != 79.0 {
		t.Errorf("row = %v", row.Cells)
	}

	if err := e.DeleteRow(def.Name, key); err != nil {
		t.Fatalf("DeleteRow() error = %v", err)
	}
	if _, found, _ := e.FetchRow(def.Name, key); found {
		t.Errorf("row still present after delete")
	}
	if err := e.DeleteRow(def.Name, key); retCode(err) != store.RetCNotFound {
		t.Errorf("second DeleteRow() error = %v", err)
	}
	if _, _, err := e.FetchRow(def.Name, key[:1]); retCode(err) != store.RetCInvalidOperation {
		t.Errorf("FetchRow() with a partial key: error = %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	e := New()
	loc := query.NewLocation(ns, "hll")
	_, _ = e.UpdateDatatype(loc, crdt.HllOp{Adds: [][]byte{[]byte("a"), []byte("b")}}, nil)
	_, _ = e.UpdateDatatype(query.NewLocation(ns, "map"), crdt.MapOp{}.UpdateCounter("c", 3).UpdateSet("s", crdt.SetOp{Adds: [][]byte{[]byte("x")}}), nil)
	def := weather()
	_ = e.CreateTable(def)
	row := timeseries.NewRow(timeseries.NewCell("h"), timeseries.NewCell("u"), timeseries.NewTimestampCell(time.UnixMilli(1)), timeseries.NewCell("sun"), timeseries.NewDoubleCell(20))
	_ = e.StoreRows(def.Name, []timeseries.Row{row})

	var buf bytes.Buffer
	if err := e.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	restored := New()
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, key := range []string{"hll", "map"} {
		l := query.NewLocation(ns, key)
		a, _ := e.FetchDatatype(l)
		b, _ := restored.FetchDatatype(l)
		if !a.Equal(b) {
			t.Errorf("object %s differs after Load: %+v vs %+v", key, a, b)
		}
	}
	gotDef, err := restored.DescribeTable(def.Name)
	if err != nil || !reflect.DeepEqual(*gotDef, def) {
		t.Errorf("DescribeTable() = %+v, %v", gotDef, err)
	}
	got, found, _ := restored.FetchRow(def.Name, def.KeyOf(row))
	if !found || !got.Cells[3].Equal(row.Cells[3]) {
		t.Errorf("row lost after Load")
	}

	// the restored hll keeps its sketch
	obj, _ := restored.UpdateDatatype(loc, crdt.HllOp{Adds: [][]byte{[]byte("a"), []byte("c")}}, nil)
	if obj.Value.Hll != 3 {
		t.Errorf("hll after restore = %d, want 3", obj.Value.Hll)
	}

	if err := New().Load(bytes.NewReader([]byte("garbage!!"))); err == nil {
		t.Errorf("Load() should reject garbage")
	}
}
