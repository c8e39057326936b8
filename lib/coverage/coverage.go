package coverage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/cespare/xxhash/v2"
)

// MaxPosition is the last position of the hash ring
const MaxPosition = math.MaxUint64

// ErrPlanUnavailable is matched (errors.Is) by every error that means no usable
// coverage plan could be obtained
var ErrPlanUnavailable = errors.New("coverage plan unavailable")

// PlanUnavailableError is returned when the cluster cannot produce a plan or the
// returned plan does not cover the keyspace exactly once
type PlanUnavailableError struct {
	Namespace query.Namespace
	Err       error
}

func (e *PlanUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("coverage plan for %s unavailable", e.Namespace)
	}
	return fmt.Sprintf("coverage plan for %s unavailable: %v", e.Namespace, e.Err)
}

func (e *PlanUnavailableError) Unwrap() error { return e.Err }

func (e *PlanUnavailableError) Is(target error) bool { return target == ErrPlanUnavailable }

// --------------------------------------------------------------------------
// Keyspace
// --------------------------------------------------------------------------

// Position returns the ring position of a key
func Position(ns query.Namespace, key string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(ns.BucketType)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(ns.Bucket)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(key)
	return d.Sum64()
}

// Range is a contiguous part of the ring. Both ends are inclusive.
type Range struct {
	Start uint64
	End   uint64
}

// Contains reports whether pos lies in r
func (r Range) Contains(pos uint64) bool { return pos >= r.Start && pos <= r.End }

func (r Range) String() string { return fmt.Sprintf("[%016x, %016x]", r.Start, r.End) }

// --------------------------------------------------------------------------
// Tokens
// --------------------------------------------------------------------------

// Token is the opaque descriptor of a plan entry. Clients hand it back to the
// endpoint to scope an operation to the entry's part of the keyspace.
type Token []byte

const (
	tokenVersion = 1
	tokenLength  = 1 + 8 + 8
)

// EncodeToken encodes a range into a token
func EncodeToken(r Range) Token {
	buf := make([]byte, tokenLength)
	buf[0] = tokenVersion
	binary.BigEndian.PutUint64(buf[1:9], r.Start)
	binary.BigEndian.PutUint64(buf[9:17], r.End)
	return buf
}

// DecodeToken decodes a token produced by EncodeToken
func DecodeToken(t Token) (Range, error) {
	if len(t) != tokenLength {
		return Range{}, fmt.Errorf("invalid coverage token length %d", len(t))
	}
	if t[0] != tokenVersion {
		return Range{}, fmt.Errorf("unsupported coverage token version %d", t[0])
	}
	r := Range{
		Start: binary.BigEndian.Uint64(t[1:9]),
		End:   binary.BigEndian.Uint64(t[9:17]),
	}
	if r.Start > r.End {
		return Range{}, fmt.Errorf("invalid coverage range %s", r)
	}
	return r, nil
}

// --------------------------------------------------------------------------
// Plan
// --------------------------------------------------------------------------

// Entry is one element of a coverage plan: the endpoint to ask and the part of the
// keyspace it is responsible for
type Entry struct {
	Endpoint    string `json:"endpoint"`
	Description string `json:"description"`
	Token       Token  `json:"token"`
}

// Range decodes the entry's token
func (e *Entry) Range() (Range, error) {
	return DecodeToken(e.Token)
}

// Plan is a set of entries that together cover a namespace exactly once
type Plan struct {
	Namespace query.Namespace `json:"namespace"`
	Entries   []Entry         `json:"entries"`
}

// Validate sorts the entries by range and checks that they are pairwise disjoint
// and together cover the whole ring
func (p *Plan) Validate() error {
	fail := func(format string, args ...any) error {
		return &PlanUnavailableError{Namespace: p.Namespace, Err: fmt.Errorf(format, args...)}
	}

	if len(p.Entries) == 0 {
		return fail("plan has no entries")
	}

	ranges := make([]Range, len(p.Entries))
	for i := range p.Entries {
		if p.Entries[i].Endpoint == "" {
			return fail("entry %d has no endpoint", i)
		}
		r, err := p.Entries[i].Range()
		if err != nil {
			return fail("entry %d: %w", i, err)
		}
		ranges[i] = r
	}

	idx := make([]int, len(ranges))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return ranges[idx[a]].Start < ranges[idx[b]].Start })

	sorted := make([]Entry, len(idx))
	for i, j := range idx {
		sorted[i] = p.Entries[j]
	}

	if ranges[idx[0]].Start != 0 {
		return fail("keyspace before %016x is not covered", ranges[idx[0]].Start)
	}
	for i := 1; i < len(idx); i++ {
		prev, cur := ranges[idx[i-1]], ranges[idx[i]]
		switch {
		case cur.Start <= prev.End:
			return fail("ranges %s and %s overlap", prev, cur)
		case cur.Start != prev.End+1:
			return fail("gap between %s and %s", prev, cur)
		}
	}
	if last := ranges[idx[len(idx)-1]]; last.End != MaxPosition {
		return fail("keyspace after %016x is not covered", last.End)
	}

	p.Entries = sorted
	return nil
}

// Hosts returns the distinct endpoints of the plan in order of first appearance
func (p *Plan) Hosts() []string {
	seen := make(map[string]struct{})
	var hosts []string
	for _, e := range p.Entries {
		if _, ok := seen[e.Endpoint]; !ok {
			seen[e.Endpoint] = struct{}{}
			hosts = append(hosts, e.Endpoint)
		}
	}
	return hosts
}

// EntriesFor returns the entries served by endpoint
func (p *Plan) EntriesFor(endpoint string) []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Endpoint == endpoint {
			out = append(out, e)
		}
	}
	return out
}
