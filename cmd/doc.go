// Package cmd implements the command-line interface of dCMD. It provides a
// hierarchical command structure with operations for running a node and for
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starts a node serving local (lstore) or raft replicated (dstore) shards
//   - dt: Fetch and update convergent data types (counters, sets, hyperloglogs, maps)
//     and a performance test (dt perf)
//   - coverage: Request the coverage plan of a namespace and list all of its keys
//   - ts: Create timeseries tables and store, fetch or delete rows
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every client command group shares the connection flags (--transport-endpoints,
// --timeout, --shard, ...). All flags can also be set as environment variables
// with the DCMD_ prefix, e.g. DCMD_TRANSPORT_ENDPOINTS=localhost:8080. The files
// .env and .env.local are loaded on start.
//
// See dcmd -help for a list of all commands.
package cmd
