package crdt

import (
	"bytes"
	"sort"
)

// --------------------------------------------------------------------------
// Datatype (closed sum type)
// --------------------------------------------------------------------------

// Datatype is a value of one of the distributed data types.
// The set of implementations is closed: *Counter, *Set, *GSet, *Map,
// *Register, *Flag and *Hll.
type Datatype interface {
	// Kind returns the active variant tag
	Kind() Kind
	isDatatype()
}

// Context is the opaque causal token returned by the store alongside a value.
// It must be passed back unchanged on updates of the same value.
type Context []byte

// Bytes returns the raw token
func (c Context) Bytes() []byte { return c }

// IsEmpty reports whether no token is present
func (c Context) IsEmpty() bool { return len(c) == 0 }

// --------------------------------------------------------------------------
// Counter
// --------------------------------------------------------------------------

// Counter is a counter that supports increments and decrements
type Counter struct {
	value int64
}

func NewCounter(value int64) *Counter { return &Counter{value: value} }

func (c *Counter) Kind() Kind  { return KindCounter }
func (c *Counter) isDatatype() {}

// View returns the current value of the counter
func (c *Counter) View() int64 { return c.value }

// --------------------------------------------------------------------------
// Sets
// --------------------------------------------------------------------------

// elementSet holds the elements shared by Set and GSet in sorted order
type elementSet struct {
	elements [][]byte
}

func newElementSet(elements [][]byte) elementSet {
	seen := make(map[string]struct{}, len(elements))
	out := make([][]byte, 0, len(elements))
	for _, e := range elements {
		if _, ok := seen[string(e)]; ok {
			continue
		}
		seen[string(e)] = struct{}{}
		out = append(out, append([]byte(nil), e...))
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return elementSet{elements: out}
}

// View returns the elements in byte order. The slice must not be modified.
func (s elementSet) View() [][]byte { return s.elements }

// Size returns the number of elements
func (s elementSet) Size() int { return len(s.elements) }

// Contains reports whether elem is part of the set
func (s elementSet) Contains(elem []byte) bool {
	i := sort.Search(len(s.elements), func(i int) bool { return bytes.Compare(s.elements[i], elem) >= 0 })
	return i < len(s.elements) && bytes.Equal(s.elements[i], elem)
}

// Set is an observed-remove set of binary elements
type Set struct {
	elementSet
}

func NewSet(elements ...[]byte) *Set { return &Set{newElementSet(elements)} }

func (s *Set) Kind() Kind  { return KindSet }
func (s *Set) isDatatype() {}

// GSet is a set that only supports additions
type GSet struct {
	elementSet
}

func NewGSet(elements ...[]byte) *GSet { return &GSet{newElementSet(elements)} }

func (s *GSet) Kind() Kind  { return KindGSet }
func (s *GSet) isDatatype() {}

// --------------------------------------------------------------------------
// Register and Flag (only used as map fields)
// --------------------------------------------------------------------------

// Register holds an opaque binary value
type Register struct {
	value []byte
}

func NewRegister(value []byte) *Register { return &Register{value: append([]byte(nil), value...)} }

func (r *Register) Kind() Kind  { return KindRegister }
func (r *Register) isDatatype() {}

// View returns the value of the register
func (r *Register) View() []byte { return r.value }

// Flag is a boolean that can be enabled and disabled
type Flag struct {
	enabled bool
}

func NewFlag(enabled bool) *Flag { return &Flag{enabled: enabled} }

func (f *Flag) Kind() Kind  { return KindFlag }
func (f *Flag) isDatatype() {}

// View returns whether the flag is enabled
func (f *Flag) View() bool { return f.enabled }

// --------------------------------------------------------------------------
// HyperLogLog
// --------------------------------------------------------------------------

// Hll is the client view of a HyperLogLog: the estimated cardinality
type Hll struct {
	cardinality uint64
}

func NewHll(cardinality uint64) *Hll { return &Hll{cardinality: cardinality} }

func (h *Hll) Kind() Kind  { return KindHll }
func (h *Hll) isDatatype() {}

// View returns the estimated number of distinct elements added
func (h *Hll) View() uint64 { return h.cardinality }

// --------------------------------------------------------------------------
// Map
// --------------------------------------------------------------------------

// MapField names a map entry. The same name may exist once per kind.
type MapField struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Map is a collection of named, typed fields
type Map struct {
	entries map[MapField]Datatype
}

// NewMap creates a map from entries. Entries whose value kind does not match the
// field kind are dropped.
func NewMap(entries map[MapField]Datatype) *Map {
	m := &Map{entries: make(map[MapField]Datatype, len(entries))}
	for f, v := range entries {
		if v != nil && v.Kind() == f.Kind {
			m.entries[f] = v
		}
	}
	return m
}

func (m *Map) Kind() Kind  { return KindMap }
func (m *Map) isDatatype() {}

// Fields returns all fields sorted by name and kind
func (m *Map) Fields() []MapField {
	fields := make([]MapField, 0, len(m.entries))
	for f := range m.entries {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].Name != fields[j].Name {
			return fields[i].Name < fields[j].Name
		}
		return fields[i].Kind < fields[j].Kind
	})
	return fields
}

// Get returns the value of a field or nil
func (m *Map) Get(field MapField) Datatype { return m.entries[field] }

// Size returns the number of fields
func (m *Map) Size() int { return len(m.entries) }

// Counter returns the counter field name or nil
func (m *Map) Counter(name string) *Counter {
	c, _ := m.entries[MapField{Name: name, Kind: KindCounter}].(*Counter)
	return c
}

// Set returns the set field name or nil
func (m *Map) Set(name string) *Set {
	s, _ := m.entries[MapField{Name: name, Kind: KindSet}].(*Set)
	return s
}

// Map returns the nested map field name or nil
func (m *Map) Map(name string) *Map {
	n, _ := m.entries[MapField{Name: name, Kind: KindMap}].(*Map)
	return n
}

// Register returns the register field name or nil
func (m *Map) Register(name string) *Register {
	r, _ := m.entries[MapField{Name: name, Kind: KindRegister}].(*Register)
	return r
}

// Flag returns the flag field name or nil
func (m *Map) Flag(name string) *Flag {
	f, _ := m.entries[MapField{Name: name, Kind: KindFlag}].(*Flag)
	return f
}
