package dstore

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/lib/store/dstore/internal"
	sm "github.com/lni/dragonboat/v4/statemachine"
)

func newTestMachine() *DatatypeStateMachine {
	return CreateStateMachineFactory()(1, 1).(*DatatypeStateMachine)
}

func propose(t *testing.T, fsm *DatatypeStateMachine, cmds ...internal.Command) []sm.Entry {
	t.Helper()
	entries := make([]sm.Entry, len(cmds))
	for i := range cmds {
		entries[i] = sm.Entry{Index: uint64(i + 1), Cmd: cmds[i].Serialize()}
	}
	out, err := fsm.Update(entries)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	return out
}

func TestStateMachineUpdateAndLookup(t *testing.T) {
	fsm := newTestMachine()
	loc := query.NewLocation(query.NewNamespace("sets", "tags"), "post")

	add, _ := internal.NewUpdateDatatypeCommand(loc, crdt.SetOp{Adds: [][]byte{[]byte("go"), []byte("db")}}, nil)
	removeNoCtx, _ := internal.NewUpdateDatatypeCommand(loc, crdt.SetOp{Removes: [][]byte{[]byte("go")}}, nil)

	results := propose(t, fsm, add, removeNoCtx)
	if results[0].Result.Value != uint64(store.RetCSuccess) {
		t.Fatalf("add failed: %s", results[0].Result.Data)
	}
	if results[1].Result.Value != uint64(store.RetCPreconditionFailed) {
		t.Errorf("remove without context: code = %d", results[1].Result.Value)
	}

	var obj crdt.Object
	if err := json.Unmarshal(results[0].Result.Data, &obj); err != nil {
		t.Fatalf("result data is not an object: %v", err)
	}

	res, err := fsm.Lookup(internal.Query{Type: internal.QueryTFetchDatatype, Location: loc})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	stored := res.(*crdt.Object)
	if !stored.Equal(&obj) {
		t.Errorf("stored object differs from the update result")
	}

	keys, err := fsm.Lookup(internal.Query{Type: internal.QueryTListKeys, Location: query.Location{Namespace: loc.Namespace}, Range: coverage.Range{Start: 0, End: coverage.MaxPosition}})
	if err != nil || len(keys.([]string)) != 1 {
		t.Errorf("ListKeys lookup = %v, %v", keys, err)
	}
}

func TestStateMachineRejectsGarbage(t *testing.T) {
	fsm := newTestMachine()
	out, _ := fsm.Update([]sm.Entry{{Index: 1, Cmd: nil}, {Index: 2, Cmd: []byte{1, 2}}, {Index: 3, Cmd: (&internal.Command{Type: 99}).Serialize()}})
	want := []store.RetCode{store.RetCInvalidOperation, store.RetCInternalError, store.RetCInvalidOperation}
	for i, e := range out {
		if store.RetCode(e.Result.Value) != want[i] {
			t.Errorf("entry %d: code = %s, want %s", i, store.RetCode(e.Result.Value), want[i])
		}
	}
	if _, err := fsm.Lookup("not a query"); err == nil {
		t.Errorf("Lookup() should reject unknown query types")
	}
}

func TestStateMachineSnapshot(t *testing.T) {
	fsm := newTestMachine()
	loc := query.NewLocation(query.NewDefaultNamespace("c"), "k")
	inc, _ := internal.NewUpdateDatatypeCommand(loc, crdt.CounterOp{Increment: 41}, nil)
	propose(t, fsm, inc)

	var buf bytes.Buffer
	if err := fsm.SaveSnapshot(nil, &buf, nil, nil); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}
	restored := newTestMachine()
	if err := restored.RecoverFromSnapshot(&buf, nil, nil); err != nil {
		t.Fatalf("RecoverFromSnapshot() error = %v", err)
	}

	res, _ := restored.Lookup(internal.Query{Type: internal.QueryTFetchDatatype, Location: loc})
	dt, _ := res.(*crdt.Object).Datatype()
	if c, _ := crdt.AsCounter(dt); c.View() != 41 {
		t.Errorf("counter after recovery = %d, want 41", c.View())
	}
}
