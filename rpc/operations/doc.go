// Package operations contains the wire level operations of the protocol.
//
// An operation is an immutable pair of an encoded request (common.Message) and the
// decoder for the matching response. Every type in this package implements
// cluster.Operation[R] for its raw result type R and can be executed with
// cluster.Execute:
//
//	op, err := operations.NewDtFetchOperation(loc, common.DtFetchRequest{Kind: crdt.KindCounter})
//	if err != nil {
//	  return err
//	}
//	res, err := cluster.Execute[operations.DtFetchResult](c, op).Get()
//
// Operations do not validate their parameters and do not interpret the data they
// carry. Results are returned in their wire form (crdt.Value, coverage.Plan with
// unchecked entries, timeseries.QueryResult). Validation and conversion into the
// typed views users work with is done by the commands in api/commands.
//
// Operations:
//
//   - Datatypes: DtFetchOperation, DtUpdateOperation, DtDeleteOperation
//   - Coverage: CoveragePlanOperation, ListKeysOperation
//   - Timeseries: TsCreateTableOperation, TsStoreOperation, TsFetchOperation,
//     TsDeleteOperation
package operations
