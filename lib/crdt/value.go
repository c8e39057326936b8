package crdt

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Wire form of a Datatype
// --------------------------------------------------------------------------

// Value is the serializable form of a Datatype. Only the fields of the active
// Kind are set.
type Value struct {
	Kind     Kind       `json:"kind"`
	Counter  int64      `json:"counter,omitempty"`
	Elements [][]byte   `json:"elements,omitempty"`
	Register []byte     `json:"register,omitempty"`
	Flag     bool       `json:"flag,omitempty"`
	Hll      uint64     `json:"hll,omitempty"`
	Entries  []MapEntry `json:"entries,omitempty"`
}

// MapEntry is one field of a map Value
type MapEntry struct {
	Field MapField `json:"field"`
	Value Value    `json:"value"`
}

// EncodeValue converts a Datatype into its wire form
func EncodeValue(dt Datatype) (Value, error) {
	switch v := dt.(type) {
	case *Counter:
		return Value{Kind: KindCounter, Counter: v.value}, nil
	case *Set:
		return Value{Kind: KindSet, Elements: v.elements}, nil
	case *GSet:
		return Value{Kind: KindGSet, Elements: v.elements}, nil
	case *Register:
		return Value{Kind: KindRegister, Register: v.value}, nil
	case *Flag:
		return Value{Kind: KindFlag, Flag: v.enabled}, nil
	case *Hll:
		return Value{Kind: KindHll, Hll: v.cardinality}, nil
	case *Map:
		out := Value{Kind: KindMap}
		for _, f := range v.Fields() {
			ev, err := EncodeValue(v.entries[f])
			if err != nil {
				return Value{}, err
			}
			out.Entries = append(out.Entries, MapEntry{Field: f, Value: ev})
		}
		return out, nil
	default:
		return Value{}, fmt.Errorf("cannot encode datatype %T", dt)
	}
}

// DecodeValue converts the wire form back into a Datatype
func DecodeValue(v Value) (Datatype, error) {
	switch v.Kind {
	case KindCounter:
		return NewCounter(v.Counter), nil
	case KindSet:
		return NewSet(v.Elements...), nil
	case KindGSet:
		return NewGSet(v.Elements...), nil
	case KindRegister:
		return NewRegister(v.Register), nil
	case KindFlag:
		return NewFlag(v.Flag), nil
	case KindHll:
		return NewHll(v.Hll), nil
	case KindMap:
		entries := make(map[MapField]Datatype, len(v.Entries))
		for _, e := range v.Entries {
			if !e.Field.Kind.embeddable() {
				return nil, fmt.Errorf("map field %q: %s cannot be embedded in a map", e.Field.Name, e.Field.Kind)
			}
			if e.Field.Kind != e.Value.Kind {
				return nil, fmt.Errorf("map field %q: declared %s but holds %s", e.Field.Name, e.Field.Kind, e.Value.Kind)
			}
			dt, err := DecodeValue(e.Value)
			if err != nil {
				return nil, fmt.Errorf("map field %q: %w", e.Field.Name, err)
			}
			entries[e.Field] = dt
		}
		return NewMap(entries), nil
	default:
		return nil, fmt.Errorf("cannot decode value of kind %s", v.Kind)
	}
}
