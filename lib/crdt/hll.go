package crdt

import (
	"fmt"

	"github.com/axiomhq/hyperloglog"
)

// sketchFormat is the first byte of a stored sketch
const sketchFormat = 2

// Sketch is the HyperLogLog behind an Hll value, precision 14 (2^14 registers).
// It is not safe for concurrent use.
type Sketch struct {
	hll *hyperloglog.Sketch
}

// NewSketch returns an empty sketch
func NewSketch() *Sketch {
	return &Sketch{hll: hyperloglog.New14()}
}

func (s *Sketch) sketch() *hyperloglog.Sketch {
	if s.hll == nil {
		s.hll = hyperloglog.New14()
	}
	return s.hll
}

// Add inserts elem
func (s *Sketch) Add(elem []byte) {
	s.sketch().Insert(elem)
}

// Estimate returns the estimated number of distinct elements
func (s *Sketch) Estimate() uint64 {
	return s.sketch().Estimate()
}

// Merge folds other into s
func (s *Sketch) Merge(other *Sketch) error {
	return s.sketch().Merge(other.sketch())
}

// MarshalBinary implements encoding.BinaryMarshaler
func (s *Sketch) MarshalBinary() ([]byte, error) {
	raw, err := s.sketch().MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append([]byte{sketchFormat}, raw...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (s *Sketch) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("invalid sketch length %d", len(data))
	}
	if data[0] != sketchFormat {
		return fmt.Errorf("unsupported sketch format %d", data[0])
	}
	hll := hyperloglog.New14()
	if err := hll.UnmarshalBinary(data[1:]); err != nil {
		return fmt.Errorf("invalid sketch: %w", err)
	}
	s.hll = hll
	return nil
}
