// Package server implements the node side of the RPC protocol.
// It decodes requests, routes them to the shard they address and lets an adapter
// execute them against the shard's store.
//
// The package focuses on:
//   - Server-side RPC request handling for datatype, coverage and timeseries operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Flexible shard configuration with support for local and distributed stores
//   - Coverage plans computed from the node's ring
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a store.IStore.
//
//   - NewIStoreServerAdapter: Factory function creating the adapter that translates
//     RPC requests to store.IStore method calls. Failures are answered with error
//     responses that carry the store.RetCode, so clients can distinguish a missing
//     table from a rejected remove.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms. Handler exposes the request handler for
//     in-process transports.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeLocalIStore},
//	  },
//	  Endpoint:      "0.0.0.0:8080",
//	  RingSize:      64,
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// The server supports two types of shards, which can be mixed within a single server:
//
//   - ShardTypeLocalIStore: An in-memory store, suitable for single-node deployments
//     or development environments.
//
//   - ShardTypeRemoteIStore: A distributed store using Raft consensus. When using this
//     type, RAFT configuration (RTTMillisecond, SnapshotEntries, CompactionOverhead,
//     DataDir, ReplicaID, and ClusterMembers) must be properly configured.
//
// Thread Safety:
//
//	The server is safe for concurrent requests across multiple connections.
//	Serve should be called only once.
package server
