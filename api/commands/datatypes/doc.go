// Package datatypes contains the commands for distributed data types.
//
// Fetch commands are created per kind (NewFetchCounterBuilder, NewFetchSetBuilder,
// NewFetchGSetBuilder, NewFetchMapBuilder, NewFetchHllBuilder) and return a
// FetchResponse typed with the requested variant. The node stores a tagged value,
// the response conversion extracts the requested variant from it:
//
//   - a stored value of another kind fails the future with a
//     *future.ConversionError wrapping a *crdt.TypeMismatchError
//   - a location without a value yields the empty value of the requested kind,
//     NotFound() is true and no context is returned
//
// Updates are described with CounterUpdate, SetUpdate, GSetUpdate, HllUpdate and
// MapUpdate and executed with the matching NewUpdate...Builder. Removing set
// elements or map fields requires the context of a previous fetch:
//
//	fetched, _ := commands.Execute(c, fetchCmd) // built WithIncludeContext(true)
//	cmd, _ := datatypes.NewUpdateSetBuilder(loc, datatypes.NewSetUpdate().RemoveString("red")).
//	  WithContext(fetched.Context()).
//	  Build()
//
// A remove without context (or of an element that is not present) fails with a
// *cluster.TransportError with code store.RetCPreconditionFailed.
package datatypes
