package coverage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/dCMD/lib/query"
)

var testNs = query.NewNamespace("maps", "users")

func TestTokenRoundTrip(t *testing.T) {
	ranges := []Range{{0, MaxPosition}, {0, 0}, {42, 1 << 40}, {MaxPosition, MaxPosition}}
	for _, r := range ranges {
		got, err := DecodeToken(EncodeToken(r))
		if err != nil {
			t.Fatalf("DecodeToken(%s) error = %v", r, err)
		}
		if got != r {
			t.Errorf("DecodeToken() = %s, want %s", got, r)
		}
	}

	bad := []Token{nil, Token("short"), append(Token{9}, make([]byte, 16)...)}
	for _, tok := range bad {
		if _, err := DecodeToken(tok); err == nil {
			t.Errorf("DecodeToken(%v) should fail", tok)
		}
	}

	inverted := EncodeToken(Range{Start: 10, End: 5})
	if _, err := DecodeToken(inverted); err == nil {
		t.Errorf("DecodeToken() should reject start > end")
	}
}

func TestRingPlanIsExhaustiveAndDisjoint(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		endpoints []string
		min       int
		wantParts int
	}{
		{"single partition", 1, []string{"a"}, 0, 1},
		{"default ring", 0, []string{"a", "b", "c"}, 0, DefaultRingSize},
		{"odd size", 7, []string{"a", "b"}, 0, 7},
		{"min partitions wins", 4, []string{"a"}, 16, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewRing(tt.size, tt.endpoints).Plan(testNs, tt.min)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if len(plan.Entries) != tt.wantParts {
				t.Fatalf("got %d entries, want %d", len(plan.Entries), tt.wantParts)
			}
			if err := plan.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if len(plan.Hosts()) != min(len(tt.endpoints), tt.wantParts) {
				t.Errorf("Hosts() = %v", plan.Hosts())
			}

			// every key is owned by exactly one entry
			for i := 0; i < 200; i++ {
				pos := Position(testNs, fmt.Sprintf("key-%d", i))
				owners := 0
				for _, e := range plan.Entries {
					r, _ := e.Range()
					if Owns(r, pos) {
						owners++
					}
				}
				if owners != 1 {
					t.Fatalf("position %x has %d owners", pos, owners)
				}
			}
		})
	}
}

func TestRingPartitionLimit(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		min       int
		wantParts int
		wantErr   bool
	}{
		{"min at limit", 8, MaxPartitions, MaxPartitions, false},
		{"min above limit", 8, MaxPartitions + 1, 0, true},
		{"huge min", 8, 1 << 31, 0, true},
		{"ring size capped", MaxPartitions * 4, 0, MaxPartitions, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewRing(tt.size, []string{"a"}).Plan(testNs, tt.min)
			if tt.wantErr {
				if !errors.Is(err, ErrTooManyPartitions) {
					t.Errorf("Plan() error = %v, want ErrTooManyPartitions", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if len(plan.Entries) != tt.wantParts {
				t.Errorf("got %d entries, want %d", len(plan.Entries), tt.wantParts)
			}
		})
	}
}

func TestRingWithoutEndpoints(t *testing.T) {
	_, err := NewRing(8, nil).Plan(testNs, 0)
	if !errors.Is(err, ErrPlanUnavailable) {
		t.Errorf("Plan() error = %v, want ErrPlanUnavailable", err)
	}
	var pu *PlanUnavailableError
	if !errors.As(err, &pu) || pu.Namespace != testNs {
		t.Errorf("error should carry the namespace, got %v", err)
	}
}

func TestValidateRejectsBadPlans(t *testing.T) {
	entry := func(start, end uint64) Entry {
		return Entry{Endpoint: "a", Token: EncodeToken(Range{start, end})}
	}

	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"gap at start", []Entry{entry(1, MaxPosition)}},
		{"gap at end", []Entry{entry(0, 100)}},
		{"gap in the middle", []Entry{entry(0, 100), entry(102, MaxPosition)}},
		{"overlap", []Entry{entry(0, 100), entry(100, MaxPosition)}},
		{"duplicate", []Entry{entry(0, MaxPosition), entry(0, MaxPosition)}},
		{"bad token", []Entry{{Endpoint: "a", Token: Token("x")}}},
		{"no endpoint", []Entry{{Token: EncodeToken(Range{0, MaxPosition})}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Plan{Namespace: testNs, Entries: tt.entries}
			if err := p.Validate(); !errors.Is(err, ErrPlanUnavailable) {
				t.Errorf("Validate() error = %v, want ErrPlanUnavailable", err)
			}
		})
	}
}

func TestValidateSortsEntries(t *testing.T) {
	p := &Plan{Namespace: testNs, Entries: []Entry{
		{Endpoint: "c", Token: EncodeToken(Range{201, MaxPosition})},
		{Endpoint: "a", Token: EncodeToken(Range{0, 100})},
		{Endpoint: "b", Token: EncodeToken(Range{101, 200})},
	}}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if p.Entries[i].Endpoint != want {
			t.Errorf("entry %d endpoint = %s, want %s", i, p.Entries[i].Endpoint, want)
		}
	}
	if len(p.EntriesFor("b")) != 1 {
		t.Errorf("EntriesFor(b) = %v", p.EntriesFor("b"))
	}
}

func TestPositionDependsOnNamespace(t *testing.T) {
	a := Position(query.NewNamespace("t", "b"), "k")
	b := Position(query.NewNamespace("t", "c"), "k")
	if a == b {
		t.Errorf("different namespaces should hash differently")
	}
	if a != Position(query.NewNamespace("t", "b"), "k") {
		t.Errorf("Position() is not deterministic")
	}
}
