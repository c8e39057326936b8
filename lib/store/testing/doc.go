// Package testing provides standardised tests and benchmarks for storage
// implementations that satisfy the store.IStore interface.
//
// The package contains:
//   - RunStoreTests: A test suite validating the IStore contract (data type updates
//     and fetches, causal contexts, range scoped key listing, timeseries tables)
//   - RunStoreBenchmarks: Performance tests for the common operations
//
// Example usage:
//
//	factory := func() store.IStore {
//		return lstore.NewLocalStore()
//	}
//
//	storetesting.RunStoreTests(t, "LocalStore", factory)
//	storetesting.RunStoreBenchmarks(b, "LocalStore", factory)
package testing
