package crdt

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// --------------------------------------------------------------------------
// Extraction
// --------------------------------------------------------------------------

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		dt       Datatype
		wanted   Kind
		wantKind Kind
		mismatch bool
	}{
		{"counter as counter", NewCounter(3), KindCounter, KindCounter, false},
		{"set as set", NewSet([]byte("a")), KindSet, KindSet, false},
		{"gset as gset", NewGSet([]byte("a")), KindGSet, KindGSet, false},
		{"map as map", NewMap(nil), KindMap, KindMap, false},
		{"hll as hll", NewHll(10), KindHll, KindHll, false},
		{"nothing stored gives empty", nil, KindSet, KindSet, false},
		{"counter as set", NewCounter(3), KindSet, KindUnknown, true},
		{"set as gset", NewSet(), KindGSet, KindUnknown, true},
		{"map as hll", NewMap(nil), KindHll, KindUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.dt, tt.wanted)
			if tt.mismatch {
				var mismatch *TypeMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("Extract() error = %v, want TypeMismatchError", err)
				}
				if mismatch.Wanted != tt.wanted || mismatch.Stored != tt.dt.Kind() {
					t.Errorf("mismatch = %+v", mismatch)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", got.Kind(), tt.wantKind)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	if c, _ := AsCounter(nil); c.View() != 0 {
		t.Errorf("empty counter = %d", c.View())
	}
	if s, _ := AsSet(nil); s.Size() != 0 {
		t.Errorf("empty set has %d elements", s.Size())
	}
	if m, _ := AsMap(nil); m.Size() != 0 {
		t.Errorf("empty map has %d fields", m.Size())
	}
	if h, _ := AsHll(nil); h.View() != 0 {
		t.Errorf("empty hll = %d", h.View())
	}
	if Empty(KindUnknown) != nil {
		t.Errorf("Empty(KindUnknown) should be nil")
	}
}

func TestSetDeduplicatesAndSorts(t *testing.T) {
	s := NewSet([]byte("c"), []byte("a"), []byte("b"), []byte("a"))
	want := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	if !reflect.DeepEqual(s.View(), want) {
		t.Errorf("View() = %q, want %q", s.View(), want)
	}
	if !s.Contains([]byte("b")) || s.Contains([]byte("d")) {
		t.Errorf("Contains() gave wrong answers")
	}
}

// --------------------------------------------------------------------------
// Wire forms
// --------------------------------------------------------------------------

func TestValueWireForm(t *testing.T) {
	m := NewMap(map[MapField]Datatype{
		{Name: "visits", Kind: KindCounter}:  NewCounter(7),
		{Name: "tags", Kind: KindSet}:        NewSet([]byte("go"), []byte("db")),
		{Name: "name", Kind: KindRegister}:   NewRegister([]byte("alice")),
		{Name: "admin", Kind: KindFlag}:      NewFlag(true),
		{Name: "address", Kind: KindMap}:     NewMap(map[MapField]Datatype{{Name: "city", Kind: KindRegister}: NewRegister([]byte("Ulm"))}),
		{Name: "wrong", Kind: KindCounter}:   NewFlag(false), // dropped, kind does not match
	})

	v, err := EncodeValue(m)
	if err != nil {
		t.Fatalf("EncodeValue() error = %v", err)
	}

	// the value must survive json, which is how payloads travel
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var back Value
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	dt, err := DecodeValue(back)
	if err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	got, err := AsMap(dt)
	if err != nil {
		t.Fatalf("AsMap() error = %v", err)
	}

	if got.Size() != 5 {
		t.Errorf("Size() = %d, want 5", got.Size())
	}
	if got.Counter("visits").View() != 7 {
		t.Errorf("visits = %d", got.Counter("visits").View())
	}
	if !got.Set("tags").Contains([]byte("go")) {
		t.Errorf("tags lost an element")
	}
	if string(got.Register("name").View()) != "alice" || !got.Flag("admin").View() {
		t.Errorf("register/flag not preserved")
	}
	if string(got.Map("address").Register("city").View()) != "Ulm" {
		t.Errorf("nested map not preserved")
	}
	if got.Counter("wrong") != nil {
		t.Errorf("mismatched field should have been dropped")
	}
}

func TestDecodeValueRejectsBadMaps(t *testing.T) {
	bad := Value{Kind: KindMap, Entries: []MapEntry{{Field: MapField{Name: "h", Kind: KindHll}, Value: Value{Kind: KindHll}}}}
	if _, err := DecodeValue(bad); err == nil {
		t.Errorf("hll inside a map should be rejected")
	}
	bad = Value{Kind: KindMap, Entries: []MapEntry{{Field: MapField{Name: "c", Kind: KindCounter}, Value: Value{Kind: KindFlag}}}}
	if _, err := DecodeValue(bad); err == nil {
		t.Errorf("mismatched field kind should be rejected")
	}
}

func TestOpWireForm(t *testing.T) {
	op := MapOp{}.
		UpdateCounter("visits", 2).
		UpdateSet("tags", SetOp{Adds: [][]byte{[]byte("go")}}).
		UpdateMap("address", MapOp{}.UpdateRegister("city", []byte("Ulm"))).
		UpdateFlag("admin", true).
		Remove("old", KindRegister)

	v, err := EncodeOp(op)
	if err != nil {
		t.Fatalf("EncodeOp() error = %v", err)
	}
	back, err := DecodeOp(v)
	if err != nil {
		t.Fatalf("DecodeOp() error = %v", err)
	}
	if !reflect.DeepEqual(back, Op(op)) {
		t.Errorf("DecodeOp() = %+v, want %+v", back, op)
	}

	mismatched := MapOp{Updates: []MapUpdate{{Field: MapField{Name: "x", Kind: KindFlag}, Op: CounterOp{Increment: 1}}}}
	if _, err := EncodeOp(mismatched); err == nil {
		t.Errorf("EncodeOp() should reject an op that does not match its field")
	}
}

// --------------------------------------------------------------------------
// Apply
// --------------------------------------------------------------------------

func TestApplyCounter(t *testing.T) {
	obj, err := Apply(nil, CounterOp{Increment: 5}, nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	obj, err = Apply(obj, CounterOp{Increment: -2}, nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	dt, _ := obj.Datatype()
	c, err := AsCounter(dt)
	if err != nil || c.View() != 3 {
		t.Errorf("counter = %v (%v), want 3", c, err)
	}
	if obj.Version != 2 {
		t.Errorf("Version = %d, want 2", obj.Version)
	}
}

func TestApplySetRemoves(t *testing.T) {
	obj, _ := Apply(nil, SetOp{Adds: [][]byte{[]byte("a"), []byte("b")}}, nil)

	if _, err := Apply(obj, SetOp{Removes: [][]byte{[]byte("a")}}, nil); !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("remove without context: error = %v, want ErrPreconditionFailed", err)
	}
	if _, err := Apply(obj, SetOp{Removes: [][]byte{[]byte("zz")}}, obj.Context()); !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("remove of a missing element: error = %v, want ErrPreconditionFailed", err)
	}

	next, err := Apply(obj, SetOp{Removes: [][]byte{[]byte("a")}, Adds: [][]byte{[]byte("c")}}, obj.Context())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	dt, _ := next.Datatype()
	s, _ := AsSet(dt)
	want := [][]byte{[]byte("b"), []byte("c")}
	if !reflect.DeepEqual(s.View(), want) {
		t.Errorf("set = %q, want %q", s.View(), want)
	}

	// the original object is untouched
	dt, _ = obj.Datatype()
	if s, _ := AsSet(dt); s.Size() != 2 || !s.Contains([]byte("a")) {
		t.Errorf("Apply() modified its input")
	}
}

func TestApplyMap(t *testing.T) {
	obj, err := Apply(nil, MapOp{}.UpdateCounter("n", 1).UpdateRegister("r", []byte("x")), nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, err := Apply(obj, MapOp{}.Remove("r", KindRegister), nil); !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("map remove without context: error = %v", err)
	}
	obj, err = Apply(obj, MapOp{}.Remove("r", KindRegister).UpdateCounter("n", 4), obj.Context())
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	dt, _ := obj.Datatype()
	m, _ := AsMap(dt)
	if m.Register("r") != nil || m.Counter("n").View() != 5 {
		t.Errorf("map = %+v", m.Fields())
	}

	hllInMap := MapOp{Updates: []MapUpdate{{Field: MapField{Name: "h", Kind: KindHll}, Op: HllOp{}}}}
	if _, err := Apply(obj, hllInMap, nil); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("hll in map: error = %v, want ErrInvalidOperation", err)
	}
}

func TestApplyTypeMismatch(t *testing.T) {
	obj, _ := Apply(nil, CounterOp{Increment: 1}, nil)
	_, err := Apply(obj, SetOp{Adds: [][]byte{[]byte("a")}}, nil)
	var mismatch *TypeMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want TypeMismatchError", err)
	}
	if _, err := Apply(nil, RegisterOp{}, nil); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("top level register: error = %v", err)
	}
	if _, err := Apply(obj, CounterOp{}, Context("garbage")); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("malformed context: error = %v", err)
	}
}

func TestContextStable(t *testing.T) {
	obj, _ := Apply(nil, GSetOp{Adds: [][]byte{[]byte("a")}}, nil)
	if !reflect.DeepEqual(obj.Context(), obj.Context()) {
		t.Errorf("context of an unchanged object changed")
	}
	next, _ := Apply(obj, GSetOp{Adds: [][]byte{[]byte("b")}}, nil)
	if reflect.DeepEqual(obj.Context(), next.Context()) {
		t.Errorf("context did not change after an update")
	}
}

// --------------------------------------------------------------------------
// HyperLogLog
// --------------------------------------------------------------------------

func TestSketchEstimate(t *testing.T) {
	s := NewSketch()
	if s.Estimate() != 0 {
		t.Fatalf("empty sketch estimates %d", s.Estimate())
	}

	const n = 10000
	for i := 0; i < n; i++ {
		s.Add([]byte(fmt.Sprintf("element-%d", i)))
	}
	before := s.Estimate()
	for i := 0; i < n; i++ {
		s.Add([]byte(fmt.Sprintf("element-%d", i)))
	}
	if s.Estimate() != before {
		t.Errorf("duplicates changed the estimate: %d -> %d", before, s.Estimate())
	}

	errRate := float64(int64(before)-n) / n
	if errRate < -0.03 || errRate > 0.03 {
		t.Errorf("estimate %d is off by %.2f%%", before, errRate*100)
	}
}

func TestSketchMergeAndMarshal(t *testing.T) {
	a, b := NewSketch(), NewSketch()
	for i := 0; i < 500; i++ {
		a.Add([]byte(fmt.Sprintf("a-%d", i)))
		b.Add([]byte(fmt.Sprintf("b-%d", i)))
	}
	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	raw, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	var back Sketch
	if err := back.UnmarshalBinary(raw); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if back.Estimate() != a.Estimate() {
		t.Errorf("estimate after unmarshal = %d, want %d", back.Estimate(), a.Estimate())
	}
	if est := a.Estimate(); est < 970 || est > 1030 {
		t.Errorf("merged estimate = %d, want about 1000", est)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"header only", raw[:1]},
		{"unknown format", append([]byte{sketchFormat + 1}, raw[1:]...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Sketch
			if err := s.UnmarshalBinary(tt.data); err == nil {
				t.Errorf("UnmarshalBinary() should reject %q", tt.data)
			}
		})
	}
}

func TestApplyHll(t *testing.T) {
	obj, err := Apply(nil, HllOp{Adds: [][]byte{[]byte("a"), []byte("b"), []byte("c")}}, nil)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	obj, _ = Apply(obj, HllOp{Adds: [][]byte{[]byte("a"), []byte("d")}}, nil)
	dt, _ := obj.Datatype()
	h, _ := AsHll(dt)
	if h.View() != 4 {
		t.Errorf("hll = %d, want 4", h.View())
	}
}
