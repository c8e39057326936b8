package coverage

import (
	"fmt"

	"github.com/ValentinKolb/dCMD/lib/query"
)

// DefaultRingSize is the number of partitions used when none is configured
const DefaultRingSize = 64

// MaxPartitions bounds the number of entries of a single plan
const MaxPartitions = 4096

// ErrTooManyPartitions is returned by Plan when more than MaxPartitions entries are requested
var ErrTooManyPartitions = fmt.Errorf("more than %d partitions requested", MaxPartitions)

// Ring splits the keyspace into Size partitions of equal width and assigns them
// round-robin to Endpoints
type Ring struct {
	Size      int
	Endpoints []string
}

// NewRing creates a ring. A size < 1 falls back to DefaultRingSize, sizes above
// MaxPartitions are capped.
func NewRing(size int, endpoints []string) *Ring {
	if size < 1 {
		size = DefaultRingSize
	}
	size = min(size, MaxPartitions)
	return &Ring{Size: size, Endpoints: append([]string(nil), endpoints...)}
}

// partitions returns the bounds of n equal partitions
func partitions(n int) []Range {
	step := uint64(MaxPosition) / uint64(n)
	out := make([]Range, n)
	for i := 0; i < n; i++ {
		out[i].Start = uint64(i) * step
		if i == n-1 {
			out[i].End = MaxPosition
		} else {
			out[i].End = uint64(i+1)*step - 1
		}
	}
	return out
}

// Plan builds a coverage plan for ns with at least minPartitions entries.
// minPartitions above MaxPartitions fails with ErrTooManyPartitions.
func (r *Ring) Plan(ns query.Namespace, minPartitions int) (*Plan, error) {
	if minPartitions > MaxPartitions {
		return nil, fmt.Errorf("%w: %d", ErrTooManyPartitions, minPartitions)
	}
	if r == nil || r.Size < 1 || len(r.Endpoints) == 0 {
		return nil, &PlanUnavailableError{Namespace: ns, Err: fmt.Errorf("ring has no endpoints")}
	}

	n := min(r.Size, MaxPartitions)
	if minPartitions > n {
		n = minPartitions
	}

	plan := &Plan{Namespace: ns, Entries: make([]Entry, 0, n)}
	for i, rng := range partitions(n) {
		endpoint := r.Endpoints[i%len(r.Endpoints)]
		plan.Entries = append(plan.Entries, Entry{
			Endpoint:    endpoint,
			Description: fmt.Sprintf("partition %d/%d %s on %s", i+1, n, rng, endpoint),
			Token:       EncodeToken(rng),
		})
	}
	return plan, nil
}

// Owns reports whether the key at position pos belongs to the entry range rng
func Owns(rng Range, pos uint64) bool {
	return rng.Contains(pos)
}
