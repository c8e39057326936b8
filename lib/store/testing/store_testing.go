package testing

import (
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

// StoreFactory is a function that creates a new, empty instance of an IStore implementation
type StoreFactory func() store.IStore

// RunStoreTests runs the conformance test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("FetchMissing", func(t *testing.T) {
			testFetchMissing(t, factory())
		})

		t.Run("CounterUpdates", func(t *testing.T) {
			testCounterUpdates(t, factory())
		})

		t.Run("SetContext", func(t *testing.T) {
			testSetContext(t, factory())
		})

		t.Run("MapUpdates", func(t *testing.T) {
			testMapUpdates(t, factory())
		})

		t.Run("TypeMismatch", func(t *testing.T) {
			testTypeMismatch(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("InvalidLocation", func(t *testing.T) {
			testInvalidLocation(t, factory())
		})

		t.Run("ListKeys", func(t *testing.T) {
			testListKeys(t, factory())
		})

		t.Run("ConcurrentUpdates", func(t *testing.T) {
			testConcurrentUpdates(t, factory())
		})

		t.Run("Timeseries", func(t *testing.T) {
			testTimeseries(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

var testNamespace = query.NewNamespace("maps", "conformance")

func loc(key string) query.Location {
	return query.NewLocation(testNamespace, key)
}

// retCode returns the return code of a *store.Error (RetCSuccess for nil)
func retCode(err error) store.RetCode {
	if err == nil {
		return store.RetCSuccess
	}
	var se *store.Error
	if errors.As(err, &se) {
		return se.Code
	}
	return store.RetCInternalError
}

func datatypeOf(t *testing.T, obj *crdt.Object) crdt.Datatype {
	t.Helper()
	if obj == nil {
		t.Fatalf("expected an object, got nil")
	}
	dt, err := obj.Datatype()
	if err != nil {
		t.Fatalf("failed to decode stored value: %v", err)
	}
	return dt
}

// GeoCheckin returns the table definition used by the timeseries tests
func GeoCheckin() timeseries.TableDefinition {
	return timeseries.TableDefinition{
		Name: "GeoCheckin",
		Columns: []timeseries.ColumnDescription{
			{Name: "geohash", Type: timeseries.TypeVarchar, PartitionKey: true},
			{Name: "user", Type: timeseries.TypeVarchar, PartitionKey: true},
			{Name: "time", Type: timeseries.TypeTimestamp, LocalKey: true},
			{Name: "weather", Type: timeseries.TypeVarchar},
			{Name: "temperature", Type: timeseries.TypeDouble, Nullable: true},
		},
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testFetchMissing(t *testing.T, s store.IStore) {
	obj, err := s.FetchDatatype(loc("missing"))
	if err != nil {
		t.Fatalf("FetchDatatype of a missing key failed: %v", err)
	}
	if obj != nil {
		t.Errorf("expected nil object for a missing key, got %+v", obj)
	}
}

func testCounterUpdates(t *testing.T, s store.IStore) {
	l := loc("counter")

	for _, delta := range []int64{5, -2, 10} {
		if _, err := s.UpdateDatatype(l, crdt.CounterOp{Increment: delta}, nil); err != nil {
			t.Fatalf("UpdateDatatype(%d) failed: %v", delta, err)
		}
	}

	obj, err := s.FetchDatatype(l)
	if err != nil {
		t.Fatalf("FetchDatatype failed: %v", err)
	}
	counter, err := crdt.AsCounter(datatypeOf(t, obj))
	if err != nil {
		t.Fatalf("expected a counter: %v", err)
	}
	if counter.View() != 13 {
		t.Errorf("expected counter value 13, got %d", counter.View())
	}

	// reading twice without a write in between yields the same context
	again, _ := s.FetchDatatype(l)
	if !reflect.DeepEqual(obj.Context(), again.Context()) {
		t.Errorf("context changed without a write")
	}
}

func testSetContext(t *testing.T, s store.IStore) {
	l := loc("set")

	obj, err := s.UpdateDatatype(l, crdt.SetOp{Adds: [][]byte{[]byte("a"), []byte("b")}}, nil)
	if err != nil {
		t.Fatalf("adding elements failed: %v", err)
	}

	// removes need a context
	if _, err := s.UpdateDatatype(l, crdt.SetOp{Removes: [][]byte{[]byte("a")}}, nil); retCode(err) != store.RetCPreconditionFailed {
		t.Errorf("remove without context: expected RetCPreconditionFailed, got %v", err)
	}

	// removing an element that is not present fails
	if _, err := s.UpdateDatatype(l, crdt.SetOp{Removes: [][]byte{[]byte("zz")}}, obj.Context()); retCode(err) != store.RetCPreconditionFailed {
		t.Errorf("remove of a missing element: expected RetCPreconditionFailed, got %v", err)
	}

	obj, err = s.UpdateDatatype(l, crdt.SetOp{Removes: [][]byte{[]byte("a")}, Adds: [][]byte{[]byte("c")}}, obj.Context())
	if err != nil {
		t.Fatalf("remove with context failed: %v", err)
	}

	set, err := crdt.AsSet(datatypeOf(t, obj))
	if err != nil {
		t.Fatalf("expected a set: %v", err)
	}
	if set.Contains([]byte("a")) || !set.Contains([]byte("b")) || !set.Contains([]byte("c")) {
		t.Errorf("unexpected set content after remove: %q", set.View())
	}
}

func testMapUpdates(t *testing.T, s store.IStore) {
	l := loc("map")

	op := crdt.MapOp{}.
		UpdateCounter("visits", 3).
		UpdateRegister("name", []byte("alice")).
		UpdateFlag("active", true).
		UpdateSet("tags", crdt.SetOp{Adds: [][]byte{[]byte("x")}})
	obj, err := s.UpdateDatatype(l, op, nil)
	if err != nil {
		t.Fatalf("map update failed: %v", err)
	}

	m, err := crdt.AsMap(datatypeOf(t, obj))
	if err != nil {
		t.Fatalf("expected a map: %v", err)
	}
	if m.Size() != 4 {
		t.Errorf("expected 4 fields, got %d (%v)", m.Size(), m.Fields())
	}

	visits, err := crdt.AsCounter(m.Get(crdt.MapField{Name: "visits", Kind: crdt.KindCounter}))
	if err != nil || visits.View() != 3 {
		t.Errorf("expected visits counter 3, got %v (err %v)", visits, err)
	}

	// removing a field needs a context
	if _, err := s.UpdateDatatype(l, crdt.MapOp{}.Remove("name", crdt.KindRegister), nil); retCode(err) != store.RetCPreconditionFailed {
		t.Errorf("field remove without context: expected RetCPreconditionFailed, got %v", err)
	}

	obj, err = s.UpdateDatatype(l, crdt.MapOp{}.Remove("name", crdt.KindRegister), obj.Context())
	if err != nil {
		t.Fatalf("field remove with context failed: %v", err)
	}
	m, _ = crdt.AsMap(datatypeOf(t, obj))
	if m.Get(crdt.MapField{Name: "name", Kind: crdt.KindRegister}) != nil {
		t.Errorf("field name was not removed")
	}
}

func testTypeMismatch(t *testing.T, s store.IStore) {
	l := loc("typed")

	if _, err := s.UpdateDatatype(l, crdt.CounterOp{Increment: 1}, nil); err != nil {
		t.Fatalf("counter update failed: %v", err)
	}
	if _, err := s.UpdateDatatype(l, crdt.GSetOp{Adds: [][]byte{[]byte("a")}}, nil); retCode(err) != store.RetCInvalidOperation {
		t.Errorf("gset update of a counter: expected RetCInvalidOperation, got %v", err)
	}

	// the failed update must not change the stored object
	obj, _ := s.FetchDatatype(l)
	if _, err := crdt.AsCounter(datatypeOf(t, obj)); err != nil {
		t.Errorf("stored value changed its kind: %v", err)
	}
}

func testDelete(t *testing.T, s store.IStore) {
	l := loc("deleted")

	if _, err := s.UpdateDatatype(l, crdt.HllOp{Adds: [][]byte{[]byte("a")}}, nil); err != nil {
		t.Fatalf("hll update failed: %v", err)
	}
	if err := s.DeleteDatatype(l); err != nil {
		t.Fatalf("DeleteDatatype failed: %v", err)
	}
	if obj, _ := s.FetchDatatype(l); obj != nil {
		t.Errorf("object still exists after delete")
	}

	// deleting a missing object is not an error
	if err := s.DeleteDatatype(l); err != nil {
		t.Errorf("deleting a missing object failed: %v", err)
	}
}

func testInvalidLocation(t *testing.T, s store.IStore) {
	invalid := []query.Location{
		{Namespace: query.Namespace{BucketType: "t"}, Key: "k"},
		{Namespace: testNamespace},
	}
	for _, l := range invalid {
		if _, err := s.FetchDatatype(l); retCode(err) != store.RetCInvalidOperation {
			t.Errorf("FetchDatatype(%s): expected RetCInvalidOperation, got %v", l, err)
		}
		if _, err := s.UpdateDatatype(l, crdt.CounterOp{Increment: 1}, nil); retCode(err) != store.RetCInvalidOperation {
			t.Errorf("UpdateDatatype(%s): expected RetCInvalidOperation, got %v", l, err)
		}
	}
}

func testListKeys(t *testing.T, s store.IStore) {
	other := query.NewNamespace("maps", "other")
	want := make(map[string]bool)
	for i := 0; i < 64; i++ {
		key := fmt.Sprintf("key-%02d", i)
		want[key] = true
		if _, err := s.UpdateDatatype(loc(key), crdt.CounterOp{Increment: 1}, nil); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if _, err := s.UpdateDatatype(query.NewLocation(other, key), crdt.CounterOp{Increment: 1}, nil); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}

	plan, err := coverage.NewRing(16, []string{"node"}).Plan(testNamespace, 0)
	if err != nil {
		t.Fatalf("failed to create plan: %v", err)
	}

	seen := make(map[string]bool)
	for _, entry := range plan.Entries {
		rng, err := entry.Range()
		if err != nil {
			t.Fatalf("invalid entry: %v", err)
		}
		keys, err := s.ListKeys(testNamespace, rng)
		if err != nil {
			t.Fatalf("ListKeys(%s) failed: %v", rng, err)
		}
		for i, key := range keys {
			if i > 0 && keys[i-1] >= key {
				t.Errorf("keys of %s are not sorted: %v", rng, keys)
			}
			if !rng.Contains(coverage.Position(testNamespace, key)) {
				t.Errorf("key %s is outside of %s", key, rng)
			}
			if seen[key] {
				t.Errorf("key %s listed twice", key)
			}
			seen[key] = true
		}
	}

	if !reflect.DeepEqual(seen, want) {
		t.Errorf("listed %d keys, want %d", len(seen), len(want))
	}
}

func testConcurrentUpdates(t *testing.T, s store.IStore) {
	l := loc("concurrent")
	numWorkers := 20
	perWorker := 50

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.UpdateDatatype(l, crdt.CounterOp{Increment: 1}, nil); err != nil {
					t.Errorf("worker %d: update failed: %v", w, err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	obj, _ := s.FetchDatatype(l)
	counter, err := crdt.AsCounter(datatypeOf(t, obj))
	if err != nil {
		t.Fatalf("expected a counter: %v", err)
	}
	if counter.View() != int64(numWorkers*perWorker) {
		t.Errorf("expected %d increments, got %d", numWorkers*perWorker, counter.View())
	}
}

func testTimeseries(t *testing.T, s store.IStore) {
	def := GeoCheckin()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if _, err := s.DescribeTable(def.Name); retCode(err) != store.RetCNotFound {
		t.Errorf("DescribeTable of a missing table: expected RetCNotFound, got %v", err)
	}
	if err := s.CreateTable(def); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	if err := s.CreateTable(def); err != nil {
		t.Errorf("creating an identical table again failed: %v", err)
	}

	changed := GeoCheckin()
	changed.Columns[3].Type = timeseries.TypeBlob
	if err := s.CreateTable(changed); retCode(err) != store.RetCInvalidOperation {
		t.Errorf("redefining a table: expected RetCInvalidOperation, got %v", err)
	}

	got, err := s.DescribeTable(def.Name)
	if err != nil || !reflect.DeepEqual(*got, def) {
		t.Errorf("DescribeTable = %+v (err %v), want %+v", got, err, def)
	}

	row := timeseries.NewRow(
		timeseries.NewCell("hash1"),
		timeseries.NewCell("user2"),
		timeseries.NewTimestampCell(ts),
		timeseries.NewCell("cloudy"),
		timeseries.Cell{},
	)
	key := def.KeyOf(row)

	if err := s.StoreRows(def.Name, []timeseries.Row{row}); err != nil {
		t.Fatalf("StoreRows failed: %v", err)
	}

	// a batch with one invalid row stores nothing
	bad := timeseries.NewRow(timeseries.NewCell("hash2"))
	valid := timeseries.NewRow(
		timeseries.NewCell("hash3"),
		timeseries.NewCell("user3"),
		timeseries.NewTimestampCell(ts),
		timeseries.NewCell("sunny"),
		timeseries.NewDoubleCell(21.5),
	)
	if err := s.StoreRows(def.Name, []timeseries.Row{valid, bad}); retCode(err) != store.RetCInvalidOperation {
		t.Errorf("StoreRows with an invalid row: expected RetCInvalidOperation, got %v", err)
	}
	if _, found, _ := s.FetchRow(def.Name, def.KeyOf(valid)); found {
		t.Errorf("row of a rejected batch was stored")
	}

	fetched, found, err := s.FetchRow(def.Name, key)
	if err != nil || !found {
		t.Fatalf("FetchRow: found=%v, err=%v", found, err)
	}
	if len(fetched.Cells) != len(row.Cells) {
		t.Fatalf("expected %d cells, got %d", len(row.Cells), len(fetched.Cells))
	}
	for i := range row.Cells {
		if !fetched.Cells[i].Equal(row.Cells[i]) {
			t.Errorf("cell %d: expected %v, got %v", i, row.Cells[i], fetched.Cells[i])
		}
	}

	if _, _, err := s.FetchRow(def.Name, key[:1]); retCode(err) != store.RetCInvalidOperation {
		t.Errorf("FetchRow with a partial key: expected RetCInvalidOperation, got %v", err)
	}
	if _, _, err := s.FetchRow("missing", key); retCode(err) != store.RetCNotFound {
		t.Errorf("FetchRow on a missing table: expected RetCNotFound, got %v", err)
	}

	if err := s.DeleteRow(def.Name, key); err != nil {
		t.Fatalf("DeleteRow failed: %v", err)
	}
	if _, found, _ := s.FetchRow(def.Name, key); found {
		t.Errorf("row still exists after delete")
	}
	if err := s.DeleteRow(def.Name, key); retCode(err) != store.RetCNotFound {
		t.Errorf("deleting a missing row: expected RetCNotFound, got %v", err)
	}
}
