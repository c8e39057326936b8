// Package rpc provides the communication layer between the command layer and the
// storage nodes.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, the payloads, configuration structures
//     and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP, and an in-process transport for tests). Sending
//     is asynchronous, every request resolves a future.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - cluster: The client side handle (ICluster) that serializes requests, sends them
//     to a shard and turns error responses into typed errors. It also records the
//     operation metrics.
//
//   - operations: Wire level operations, one per message type. An operation builds
//     the request message and decodes the matching response.
//
//   - server: The node side, which deserializes requests and dispatches them to the
//     store of the addressed shard through the IStore adapter.
package rpc
