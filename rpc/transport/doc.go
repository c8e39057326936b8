// Package transport defines the interfaces for RPC communication between the
// cluster client and the nodes. It provides a common contract that all transport
// implementations must fulfill, enabling protocol-agnostic communication.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Supporting shard-based request routing
//   - Enabling multiple transport implementations (HTTP, TCP, Unix sockets, in-process)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending. Send never blocks, it
//     returns a future.Future of the raw response.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and routes them to appropriate handlers.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
//   - Requests: Bookkeeping of in-flight requests shared by the client transports.
//     It decides, with a single LoadAndDelete on a concurrent map, whether a request
//     is completed by its response or by a cancellation.
//
// Cancellation:
//
//	Cancelling the future returned by Send only succeeds while the request is still
//	in flight. The request is removed from the in-flight set and a late response is
//	dropped. The request may still have been executed by the node.
package transport
