package crdt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrPreconditionFailed is returned when an update removes something that is not
	// there, or removes without a context
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrInvalidOperation is returned for operations that can never succeed
	ErrInvalidOperation = errors.New("invalid operation")
)

const contextMagic = 'c'

// --------------------------------------------------------------------------
// Stored Object (node side)
// --------------------------------------------------------------------------

// Object is a datatype as it is kept by a storage node
type Object struct {
	Value   Value  `json:"value"`
	Sketch  []byte `json:"sketch,omitempty"`
	Version uint64 `json:"version"`
}

// Datatype returns the client view of the stored value
func (o *Object) Datatype() (Datatype, error) {
	return DecodeValue(o.Value)
}

// Context returns the causal token for the current version of the object.
// Reading an unchanged object twice yields the same token.
func (o *Object) Context() Context {
	ctx := make([]byte, 10)
	ctx[0] = contextMagic
	ctx[1] = byte(o.Value.Kind)
	binary.BigEndian.PutUint64(ctx[2:], o.Version)
	return ctx
}

// Storable reports whether a value of this kind can be stored at the top level
func Storable(kind Kind) bool {
	switch kind {
	case KindCounter, KindSet, KindGSet, KindMap, KindHll:
		return true
	default:
		return false
	}
}

// Apply applies op to obj (nil when nothing is stored yet) and returns the new
// object. obj itself is never modified, a failed update leaves it untouched.
func Apply(obj *Object, op Op, ctx Context) (*Object, error) {
	if op == nil {
		return nil, fmt.Errorf("%w: no operation", ErrInvalidOperation)
	}
	if !Storable(op.Kind()) {
		return nil, fmt.Errorf("%w: a %s can only be updated inside a map", ErrInvalidOperation, op.Kind())
	}
	if !ctx.IsEmpty() && (len(ctx) != 10 || ctx[0] != contextMagic) {
		return nil, fmt.Errorf("%w: malformed context", ErrInvalidOperation)
	}

	cur := &Object{Value: Value{Kind: op.Kind()}}
	if obj != nil {
		if obj.Value.Kind != op.Kind() {
			return nil, &TypeMismatchError{Wanted: op.Kind(), Stored: obj.Value.Kind}
		}
		cur = obj
	}

	next := &Object{Version: cur.Version + 1}

	if hop, ok := op.(HllOp); ok {
		sketch := NewSketch()
		if len(cur.Sketch) > 0 {
			if err := sketch.UnmarshalBinary(cur.Sketch); err != nil {
				return nil, err
			}
		}
		for _, e := range hop.Adds {
			sketch.Add(e)
		}
		raw, err := sketch.MarshalBinary()
		if err != nil {
			return nil, err
		}
		next.Sketch = raw
		next.Value = Value{Kind: KindHll, Hll: sketch.Estimate()}
		return next, nil
	}

	v, err := applyValue(cur.Value, op, !ctx.IsEmpty())
	if err != nil {
		return nil, err
	}
	next.Value = v
	return next, nil
}

// applyValue returns a copy of v with op applied
func applyValue(v Value, op Op, hasContext bool) (Value, error) {
	switch o := op.(type) {
	case CounterOp:
		v.Counter += o.Increment
		return v, nil

	case RegisterOp:
		v.Register = append([]byte(nil), o.Value...)
		return v, nil

	case FlagOp:
		v.Flag = o.Enabled
		return v, nil

	case GSetOp:
		v.Elements = newElementSet(append(append([][]byte(nil), v.Elements...), o.Adds...)).elements
		return v, nil

	case SetOp:
		current := NewSet(v.Elements...)
		if len(o.Removes) > 0 && !hasContext {
			return Value{}, fmt.Errorf("%w: removing set elements requires a context", ErrPreconditionFailed)
		}
		removed := make(map[string]struct{}, len(o.Removes))
		for _, r := range o.Removes {
			if !current.Contains(r) {
				return Value{}, fmt.Errorf("%w: element %q is not in the set", ErrPreconditionFailed, r)
			}
			removed[string(r)] = struct{}{}
		}
		elems := make([][]byte, 0, len(v.Elements)+len(o.Adds))
		for _, e := range v.Elements {
			if _, ok := removed[string(e)]; !ok {
				elems = append(elems, e)
			}
		}
		elems = append(elems, o.Adds...)
		v.Elements = newElementSet(elems).elements
		return v, nil

	case MapOp:
		if len(o.Removes) > 0 && !hasContext {
			return Value{}, fmt.Errorf("%w: removing map fields requires a context", ErrPreconditionFailed)
		}
		entries := make(map[MapField]Value, len(v.Entries))
		for _, e := range v.Entries {
			entries[e.Field] = e.Value
		}
		for _, f := range o.Removes {
			if _, ok := entries[f]; !ok {
				return Value{}, fmt.Errorf("%w: map has no %s field %q", ErrPreconditionFailed, f.Kind, f.Name)
			}
			delete(entries, f)
		}
		for _, u := range o.Updates {
			if u.Op == nil || !u.Field.Kind.embeddable() || u.Op.Kind() != u.Field.Kind {
				return Value{}, fmt.Errorf("%w: bad update for map field %q", ErrInvalidOperation, u.Field.Name)
			}
			inner, ok := entries[u.Field]
			if !ok {
				inner = Value{Kind: u.Field.Kind}
			}
			updated, err := applyValue(inner, u.Op, hasContext)
			if err != nil {
				return Value{}, fmt.Errorf("map field %q: %w", u.Field.Name, err)
			}
			entries[u.Field] = updated
		}
		v.Entries = make([]MapEntry, 0, len(entries))
		for f, ev := range entries {
			v.Entries = append(v.Entries, MapEntry{Field: f, Value: ev})
		}
		sort.Slice(v.Entries, func(i, j int) bool {
			a, b := v.Entries[i].Field, v.Entries[j].Field
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.Kind < b.Kind
		})
		return v, nil

	default:
		return Value{}, fmt.Errorf("%w: %T", ErrInvalidOperation, op)
	}
}

// Equal reports whether two stored objects hold the same value and version
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	return o.Version == other.Version && bytes.Equal(o.Sketch, other.Sketch) &&
		valueEqual(o.Value, other.Value)
}

func valueEqual(a, b Value) bool {
	if a.Kind != b.Kind || a.Counter != b.Counter || a.Flag != b.Flag || a.Hll != b.Hll ||
		!bytes.Equal(a.Register, b.Register) || len(a.Elements) != len(b.Elements) || len(a.Entries) != len(b.Entries) {
		return false
	}
	for i := range a.Elements {
		if !bytes.Equal(a.Elements[i], b.Elements[i]) {
			return false
		}
	}
	for i := range a.Entries {
		if a.Entries[i].Field != b.Entries[i].Field || !valueEqual(a.Entries[i].Value, b.Entries[i].Value) {
			return false
		}
	}
	return true
}
