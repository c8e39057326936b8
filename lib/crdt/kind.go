package crdt

import (
	"encoding/json"
	"fmt"
)

// Kind is the tag of a distributed data type value
type Kind uint8

const (
	KindUnknown  Kind = iota
	KindCounter       // PN-counter
	KindSet           // OR-set of binary elements
	KindGSet          // Grow-only set
	KindMap           // Map of named, typed fields
	KindRegister      // Last-write-wins register (map field only)
	KindFlag          // Enable/disable flag (map field only)
	KindHll           // HyperLogLog cardinality estimator
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindSet:
		return "set"
	case KindGSet:
		return "gset"
	case KindMap:
		return "map"
	case KindRegister:
		return "register"
	case KindFlag:
		return "flag"
	case KindHll:
		return "hll"
	default:
		return "unknown"
	}
}

// ParseKind converts the string representation back into a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "counter":
		return KindCounter, nil
	case "set":
		return KindSet, nil
	case "gset":
		return KindGSet, nil
	case "map":
		return KindMap, nil
	case "register":
		return KindRegister, nil
	case "flag":
		return KindFlag, nil
	case "hll":
		return KindHll, nil
	default:
		return KindUnknown, fmt.Errorf("unknown datatype kind: %s", s)
	}
}

// embeddable reports whether values of this kind may live inside a map
func (k Kind) embeddable() bool {
	switch k {
	case KindCounter, KindSet, KindMap, KindRegister, KindFlag:
		return true
	default:
		return false
	}
}

// MarshalJSON implements the json.Marshaller interface for Kind.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for Kind.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
