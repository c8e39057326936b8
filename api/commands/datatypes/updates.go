package datatypes

import (
	"github.com/ValentinKolb/dCMD/lib/crdt"
)

// DatatypeUpdate describes a change to a datatype. It is turned into a crdt.Op
// when the update command is built, later changes do not affect built commands.
type DatatypeUpdate interface {
	Kind() crdt.Kind
	Op() crdt.Op
}

// copyElements copies a list of elements so the op does not share the builder's slices
func copyElements(in [][]byte) [][]byte {
	if len(in) == 0 {
		return nil
	}
	out := make([][]byte, len(in))
	for i, e := range in {
		out[i] = append([]byte(nil), e...)
	}
	return out
}

// --------------------------------------------------------------------------
// Counter
// --------------------------------------------------------------------------

// CounterUpdate increments (or decrements) a counter
type CounterUpdate struct {
	delta int64
}

func NewCounterUpdate(delta int64) *CounterUpdate {
	return &CounterUpdate{delta: delta}
}

// Increment adds delta to the pending increment
func (u *CounterUpdate) Increment(delta int64) *CounterUpdate {
	u.delta += delta
	return u
}

func (u *CounterUpdate) Kind() crdt.Kind { return crdt.KindCounter }
func (u *CounterUpdate) Op() crdt.Op     { return crdt.CounterOp{Increment: u.delta} }

// --------------------------------------------------------------------------
// Sets
// --------------------------------------------------------------------------

// SetUpdate adds and removes elements of a set. Removes need the context of a
// previous fetch.
type SetUpdate struct {
	adds    [][]byte
	removes [][]byte
}

func NewSetUpdate() *SetUpdate { return &SetUpdate{} }

func (u *SetUpdate) Add(elem []byte) *SetUpdate {
	u.adds = append(u.adds, elem)
	return u
}

func (u *SetUpdate) AddString(elem string) *SetUpdate { return u.Add([]byte(elem)) }

func (u *SetUpdate) Remove(elem []byte) *SetUpdate {
	u.removes = append(u.removes, elem)
	return u
}

func (u *SetUpdate) RemoveString(elem string) *SetUpdate { return u.Remove([]byte(elem)) }

func (u *SetUpdate) Kind() crdt.Kind { return crdt.KindSet }

func (u *SetUpdate) Op() crdt.Op {
	return crdt.SetOp{Adds: copyElements(u.adds), Removes: copyElements(u.removes)}
}

// GSetUpdate adds elements to a grow-only set
type GSetUpdate struct {
	adds [][]byte
}

func NewGSetUpdate() *GSetUpdate { return &GSetUpdate{} }

func (u *GSetUpdate) Add(elem []byte) *GSetUpdate {
	u.adds = append(u.adds, elem)
	return u
}

func (u *GSetUpdate) AddString(elem string) *GSetUpdate { return u.Add([]byte(elem)) }

func (u *GSetUpdate) Kind() crdt.Kind { return crdt.KindGSet }
func (u *GSetUpdate) Op() crdt.Op     { return crdt.GSetOp{Adds: copyElements(u.adds)} }

// HllUpdate adds elements to a HyperLogLog
type HllUpdate struct {
	adds [][]byte
}

func NewHllUpdate() *HllUpdate { return &HllUpdate{} }

func (u *HllUpdate) Add(elem []byte) *HllUpdate {
	u.adds = append(u.adds, elem)
	return u
}

func (u *HllUpdate) AddString(elem string) *HllUpdate { return u.Add([]byte(elem)) }

func (u *HllUpdate) Kind() crdt.Kind { return crdt.KindHll }
func (u *HllUpdate) Op() crdt.Op     { return crdt.HllOp{Adds: copyElements(u.adds)} }

// --------------------------------------------------------------------------
// Map
// --------------------------------------------------------------------------

// MapUpdate updates and removes the fields of a map. Field removes need the
// context of a previous fetch.
type MapUpdate struct {
	updates []mapFieldUpdate
	removes []crdt.MapField
}

type mapFieldUpdate struct {
	field  crdt.MapField
	update DatatypeUpdate
}

func NewMapUpdate() *MapUpdate { return &MapUpdate{} }

func (u *MapUpdate) update(name string, upd DatatypeUpdate) *MapUpdate {
	u.updates = append(u.updates, mapFieldUpdate{field: crdt.MapField{Name: name, Kind: upd.Kind()}, update: upd})
	return u
}

func (u *MapUpdate) UpdateCounter(name string, upd *CounterUpdate) *MapUpdate {
	return u.update(name, upd)
}

func (u *MapUpdate) UpdateSet(name string, upd *SetUpdate) *MapUpdate {
	return u.update(name, upd)
}

func (u *MapUpdate) UpdateMap(name string, upd *MapUpdate) *MapUpdate {
	return u.update(name, upd)
}

func (u *MapUpdate) UpdateRegister(name string, value []byte) *MapUpdate {
	return u.update(name, registerUpdate{value: append([]byte(nil), value...)})
}

func (u *MapUpdate) UpdateFlag(name string, enabled bool) *MapUpdate {
	return u.update(name, flagUpdate{enabled: enabled})
}

// Remove removes the field name of the given kind
func (u *MapUpdate) Remove(name string, kind crdt.Kind) *MapUpdate {
	u.removes = append(u.removes, crdt.MapField{Name: name, Kind: kind})
	return u
}

func (u *MapUpdate) Kind() crdt.Kind { return crdt.KindMap }

func (u *MapUpdate) Op() crdt.Op {
	op := crdt.MapOp{Removes: append([]crdt.MapField(nil), u.removes...)}
	for _, fu := range u.updates {
		op = op.Update(fu.field, fu.update.Op())
	}
	return op
}

// registerUpdate and flagUpdate only exist inside maps

type registerUpdate struct{ value []byte }

func (u registerUpdate) Kind() crdt.Kind { return crdt.KindRegister }
func (u registerUpdate) Op() crdt.Op     { return crdt.RegisterOp{Value: u.value} }

type flagUpdate struct{ enabled bool }

func (u flagUpdate) Kind() crdt.Kind { return crdt.KindFlag }
func (u flagUpdate) Op() crdt.Op     { return crdt.FlagOp{Enabled: u.enabled} }
