// Package commands is the user facing API of dCMD.
//
// A command is an immutable, typed request built by a fluent builder. Executing it
// never blocks: ExecuteAsync turns the command into a wire operation (see
// rpc/operations), submits it to a cluster.ICluster and adapts the raw response
// future into a future of the command's typed response.
//
// Builders:
//
// Every builder takes its required parameters in its constructor and offers chained
// With... setters for the options. Setters return the concrete builder type, so a
// chain never needs a cast. Build validates the parameters with a Validator and
// returns a *MissingParameterError synchronously, nothing is sent for an invalid
// command. A builder can be changed and built again, commands built earlier are
// not affected.
//
//	cmd, err := datatypes.NewFetchCounterBuilder(loc).
//	  WithR(2).
//	  WithIncludeContext(true).
//	  Build()
//	if err != nil {
//	  return err // *commands.MissingParameterError
//	}
//
//	resp, err := commands.Execute(c, cmd) // or cmd.ExecuteAsync(c) for a future
//
// Errors:
//
// Everything that happens after submission is delivered through the future:
//
//   - *cluster.TransportError: the request failed or the node answered with an error
//     (Code tells e.g. NotFound from PreconditionFailed)
//   - *future.ConversionError: the response could not be converted, for example a
//     *crdt.TypeMismatchError when the stored datatype is not the requested one
//   - future.ErrCancelled: the future was cancelled before the response arrived
//
// Sub-packages:
//
//   - datatypes: fetch and update of counters, sets, grow-only sets, maps and HLLs
//   - kv: coverage plans, range-scoped key listing and full scans of a namespace
//   - timeseries: table creation, row storage, fetch and delete
package commands
