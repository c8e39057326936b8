package crdt

import (
	"fmt"
)

// TypeMismatchError is returned when a value of one kind is requested as another.
// It is a client-local error, no request failed.
type TypeMismatchError struct {
	Wanted Kind
	Stored Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("datatype mismatch: wanted %s but the stored value is a %s", e.Wanted, e.Stored)
}

// Empty returns the value a fetch of a missing location yields for the given kind.
// Returns nil for KindUnknown.
func Empty(kind Kind) Datatype {
	switch kind {
	case KindCounter:
		return NewCounter(0)
	case KindSet:
		return NewSet()
	case KindGSet:
		return NewGSet()
	case KindMap:
		return NewMap(nil)
	case KindRegister:
		return NewRegister(nil)
	case KindFlag:
		return NewFlag(false)
	case KindHll:
		return NewHll(0)
	default:
		return nil
	}
}

// Extract returns dt if its active variant is wanted. A nil dt (nothing stored)
// yields Empty(wanted). Values are never coerced between kinds.
func Extract(dt Datatype, wanted Kind) (Datatype, error) {
	if wanted == KindUnknown {
		return nil, fmt.Errorf("cannot extract a datatype of unknown kind")
	}
	if dt == nil {
		return Empty(wanted), nil
	}
	if dt.Kind() != wanted {
		return nil, &TypeMismatchError{Wanted: wanted, Stored: dt.Kind()}
	}
	return dt, nil
}

// AsCounter extracts a *Counter from dt
func AsCounter(dt Datatype) (*Counter, error) {
	v, err := Extract(dt, KindCounter)
	if err != nil {
		return nil, err
	}
	return v.(*Counter), nil
}

// AsSet extracts a *Set from dt
func AsSet(dt Datatype) (*Set, error) {
	v, err := Extract(dt, KindSet)
	if err != nil {
		return nil, err
	}
	return v.(*Set), nil
}

// AsGSet extracts a *GSet from dt
func AsGSet(dt Datatype) (*GSet, error) {
	v, err := Extract(dt, KindGSet)
	if err != nil {
		return nil, err
	}
	return v.(*GSet), nil
}

// AsMap extracts a *Map from dt
func AsMap(dt Datatype) (*Map, error) {
	v, err := Extract(dt, KindMap)
	if err != nil {
		return nil, err
	}
	return v.(*Map), nil
}

// AsRegister extracts a *Register from dt
func AsRegister(dt Datatype) (*Register, error) {
	v, err := Extract(dt, KindRegister)
	if err != nil {
		return nil, err
	}
	return v.(*Register), nil
}

// AsFlag extracts a *Flag from dt
func AsFlag(dt Datatype) (*Flag, error) {
	v, err := Extract(dt, KindFlag)
	if err != nil {
		return nil, err
	}
	return v.(*Flag), nil
}

// AsHll extracts a *Hll from dt
func AsHll(dt Datatype) (*Hll, error) {
	v, err := Extract(dt, KindHll)
	if err != nil {
		return nil, err
	}
	return v.(*Hll), nil
}
