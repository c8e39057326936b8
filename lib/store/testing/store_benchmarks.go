package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
)

// benchmarkKeys is the number of distinct keys used by the benchmarks
const benchmarkKeys = 1000

// RunStoreBenchmarks runs all benchmarks for an IStore implementation
func RunStoreBenchmarks(b *testing.B, name string, factory StoreFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("UpdateCounter", func(b *testing.B) {
			benchmarkUpdateCounter(b, factory())
		})

		b.Run("UpdateCounter(contended)", func(b *testing.B) {
			benchmarkUpdateCounterContended(b, factory())
		})

		b.Run("AddSet", func(b *testing.B) {
			benchmarkAddSet(b, factory())
		})

		b.Run("FetchDatatype", func(b *testing.B) {
			benchmarkFetch(b, factory())
		})

		b.Run("FetchDatatype(missing)", func(b *testing.B) {
			benchmarkFetchMissing(b, factory())
		})

		b.Run("ListKeys", func(b *testing.B) {
			benchmarkListKeys(b, factory())
		})

		b.Run("StoreRow", func(b *testing.B) {
			benchmarkStoreRow(b, factory())
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func benchLocations() []query.Location {
	locs := make([]query.Location, benchmarkKeys)
	for i := range locs {
		locs[i] = loc(fmt.Sprintf("bench-%d", i))
	}
	return locs
}

func fillCounters(b *testing.B, s store.IStore, locs []query.Location) {
	b.Helper()
	for _, l := range locs {
		if _, err := s.UpdateDatatype(l, crdt.CounterOp{Increment: 1}, nil); err != nil {
			b.Fatalf("failed to prepare %s: %v", l, err)
		}
	}
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkUpdateCounter(b *testing.B, s store.IStore) {
	locs := benchLocations()
	var counter atomic.Uint64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			_, _ = s.UpdateDatatype(locs[i%benchmarkKeys], crdt.CounterOp{Increment: 1}, nil)
		}
	})
}

func benchmarkUpdateCounterContended(b *testing.B, s store.IStore) {
	l := loc("contended")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = s.UpdateDatatype(l, crdt.CounterOp{Increment: 1}, nil)
		}
	})
}

func benchmarkAddSet(b *testing.B, s store.IStore) {
	locs := benchLocations()
	var counter atomic.Uint64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			elem := []byte(fmt.Sprintf("e%d", i%32))
			_, _ = s.UpdateDatatype(locs[i%benchmarkKeys], crdt.SetOp{Adds: [][]byte{elem}}, nil)
		}
	})
}

func benchmarkFetch(b *testing.B, s store.IStore) {
	locs := benchLocations()
	fillCounters(b, s, locs)
	var counter atomic.Uint64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			_, _ = s.FetchDatatype(locs[i%benchmarkKeys])
		}
	})
}

func benchmarkFetchMissing(b *testing.B, s store.IStore) {
	locs := benchLocations()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = s.FetchDatatype(locs[i%benchmarkKeys])
			i++
		}
	})
}

func benchmarkListKeys(b *testing.B, s store.IStore) {
	fillCounters(b, s, benchLocations())

	plan, err := coverage.NewRing(coverage.DefaultRingSize, []string{"node"}).Plan(testNamespace, 0)
	if err != nil {
		b.Fatalf("failed to create plan: %v", err)
	}
	ranges := make([]coverage.Range, len(plan.Entries))
	for i, entry := range plan.Entries {
		if ranges[i], err = entry.Range(); err != nil {
			b.Fatalf("invalid entry: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.ListKeys(testNamespace, ranges[i%len(ranges)])
	}
}

func benchmarkStoreRow(b *testing.B, s store.IStore) {
	def := GeoCheckin()
	if err := s.CreateTable(def); err != nil {
		b.Fatalf("failed to create table: %v", err)
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			row := timeseries.NewRow(
				timeseries.NewCell("hash1"),
				timeseries.NewCell("user1"),
				timeseries.NewTimestampCell(start.Add(time.Duration(i)*time.Millisecond)),
				timeseries.NewCell("sunny"),
				timeseries.NewDoubleCell(20),
			)
			_ = s.StoreRows(def.Name, []timeseries.Row{row})
		}
	})
}

func benchmarkMixedUsage(b *testing.B, s store.IStore) {
	locs := benchLocations()
	fillCounters(b, s, locs)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			l := locs[r.Intn(benchmarkKeys)]
			switch r.Intn(10) {
			case 0, 1, 2, 3, 4, 5: // 60% reads
				_, _ = s.FetchDatatype(l)
			case 6, 7, 8: // 30% increments
				_, _ = s.UpdateDatatype(l, crdt.CounterOp{Increment: 1}, nil)
			default: // 10% deletes
				_ = s.DeleteDatatype(l)
			}
		}
	})
}
