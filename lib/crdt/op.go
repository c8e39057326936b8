package crdt

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Update Operations
// --------------------------------------------------------------------------

// Op describes a change to a stored datatype. Implementations are CounterOp,
// SetOp, GSetOp, HllOp, RegisterOp, FlagOp and MapOp.
type Op interface {
	// Kind returns the kind of datatype the operation applies to
	Kind() Kind
	isOp()
}

// CounterOp adds Increment (which may be negative) to a counter
type CounterOp struct {
	Increment int64
}

// SetOp adds and removes elements. Removes need a context.
type SetOp struct {
	Adds    [][]byte
	Removes [][]byte
}

// GSetOp adds elements to a grow-only set
type GSetOp struct {
	Adds [][]byte
}

// HllOp adds elements to a HyperLogLog
type HllOp struct {
	Adds [][]byte
}

// RegisterOp sets the value of a register
type RegisterOp struct {
	Value []byte
}

// FlagOp enables or disables a flag
type FlagOp struct {
	Enabled bool
}

// MapUpdate applies Op to a single field. Op.Kind() must equal Field.Kind.
type MapUpdate struct {
	Field MapField
	Op    Op
}

// MapOp updates and removes map fields. Removes need a context.
type MapOp struct {
	Updates []MapUpdate
	Removes []MapField
}

func (CounterOp) Kind() Kind  { return KindCounter }
func (SetOp) Kind() Kind      { return KindSet }
func (GSetOp) Kind() Kind     { return KindGSet }
func (HllOp) Kind() Kind      { return KindHll }
func (RegisterOp) Kind() Kind { return KindRegister }
func (FlagOp) Kind() Kind     { return KindFlag }
func (MapOp) Kind() Kind      { return KindMap }

func (CounterOp) isOp()  {}
func (SetOp) isOp()      {}
func (GSetOp) isOp()     {}
func (HllOp) isOp()      {}
func (RegisterOp) isOp() {}
func (FlagOp) isOp()     {}
func (MapOp) isOp()      {}

// Update applies op to field
func (m MapOp) Update(field MapField, op Op) MapOp {
	m.Updates = append(m.Updates, MapUpdate{Field: field, Op: op})
	return m
}

// UpdateCounter increments a counter field of a map
func (m MapOp) UpdateCounter(name string, increment int64) MapOp {
	m.Updates = append(m.Updates, MapUpdate{Field: MapField{Name: name, Kind: KindCounter}, Op: CounterOp{Increment: increment}})
	return m
}

// UpdateSet updates a set field of a map
func (m MapOp) UpdateSet(name string, op SetOp) MapOp {
	m.Updates = append(m.Updates, MapUpdate{Field: MapField{Name: name, Kind: KindSet}, Op: op})
	return m
}

// UpdateRegister sets a register field of a map
func (m MapOp) UpdateRegister(name string, value []byte) MapOp {
	m.Updates = append(m.Updates, MapUpdate{Field: MapField{Name: name, Kind: KindRegister}, Op: RegisterOp{Value: value}})
	return m
}

// UpdateFlag sets a flag field of a map
func (m MapOp) UpdateFlag(name string, enabled bool) MapOp {
	m.Updates = append(m.Updates, MapUpdate{Field: MapField{Name: name, Kind: KindFlag}, Op: FlagOp{Enabled: enabled}})
	return m
}

// UpdateMap updates a nested map field
func (m MapOp) UpdateMap(name string, op MapOp) MapOp {
	m.Updates = append(m.Updates, MapUpdate{Field: MapField{Name: name, Kind: KindMap}, Op: op})
	return m
}

// Remove removes a field from the map
func (m MapOp) Remove(name string, kind Kind) MapOp {
	m.Removes = append(m.Removes, MapField{Name: name, Kind: kind})
	return m
}

// --------------------------------------------------------------------------
// Wire form of an Op
// --------------------------------------------------------------------------

// OpValue is the serializable form of an Op
type OpValue struct {
	Kind       Kind             `json:"kind"`
	Increment  int64            `json:"increment,omitempty"`
	Adds       [][]byte         `json:"adds,omitempty"`
	Removes    [][]byte         `json:"removes,omitempty"`
	Register   []byte           `json:"register,omitempty"`
	Flag       bool             `json:"flag,omitempty"`
	Updates    []MapUpdateValue `json:"updates,omitempty"`
	MapRemoves []MapField       `json:"mapRemoves,omitempty"`
}

// MapUpdateValue is the serializable form of a MapUpdate
type MapUpdateValue struct {
	Field MapField `json:"field"`
	Op    OpValue  `json:"op"`
}

// EncodeOp converts an Op into its wire form
func EncodeOp(op Op) (OpValue, error) {
	switch o := op.(type) {
	case CounterOp:
		return OpValue{Kind: KindCounter, Increment: o.Increment}, nil
	case SetOp:
		return OpValue{Kind: KindSet, Adds: o.Adds, Removes: o.Removes}, nil
	case GSetOp:
		return OpValue{Kind: KindGSet, Adds: o.Adds}, nil
	case HllOp:
		return OpValue{Kind: KindHll, Adds: o.Adds}, nil
	case RegisterOp:
		return OpValue{Kind: KindRegister, Register: o.Value}, nil
	case FlagOp:
		return OpValue{Kind: KindFlag, Flag: o.Enabled}, nil
	case MapOp:
		out := OpValue{Kind: KindMap, MapRemoves: o.Removes}
		for _, u := range o.Updates {
			if u.Op == nil {
				return OpValue{}, fmt.Errorf("map field %q: missing operation", u.Field.Name)
			}
			if u.Op.Kind() != u.Field.Kind {
				return OpValue{}, fmt.Errorf("map field %q: %s operation on a %s field", u.Field.Name, u.Op.Kind(), u.Field.Kind)
			}
			inner, err := EncodeOp(u.Op)
			if err != nil {
				return OpValue{}, err
			}
			out.Updates = append(out.Updates, MapUpdateValue{Field: u.Field, Op: inner})
		}
		return out, nil
	default:
		return OpValue{}, fmt.Errorf("cannot encode operation %T", op)
	}
}

// DecodeOp converts the wire form back into an Op
func DecodeOp(v OpValue) (Op, error) {
	switch v.Kind {
	case KindCounter:
		return CounterOp{Increment: v.Increment}, nil
	case KindSet:
		return SetOp{Adds: v.Adds, Removes: v.Removes}, nil
	case KindGSet:
		return GSetOp{Adds: v.Adds}, nil
	case KindHll:
		return HllOp{Adds: v.Adds}, nil
	case KindRegister:
		return RegisterOp{Value: v.Register}, nil
	case KindFlag:
		return FlagOp{Enabled: v.Flag}, nil
	case KindMap:
		out := MapOp{Removes: v.MapRemoves}
		for _, u := range v.Updates {
			if u.Op.Kind != u.Field.Kind {
				return nil, fmt.Errorf("map field %q: %s operation on a %s field", u.Field.Name, u.Op.Kind, u.Field.Kind)
			}
			inner, err := DecodeOp(u.Op)
			if err != nil {
				return nil, err
			}
			out.Updates = append(out.Updates, MapUpdate{Field: u.Field, Op: inner})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot decode operation of kind %s", v.Kind)
	}
}
