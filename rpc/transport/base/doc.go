// Package base implements the socket transports (tcp and unix) that carry
// serialized messages between the cluster client and the storage nodes. The
// protocol specific parts, dialing and listening, are supplied by an
// IClientConnector or IServerConnector.
//
// Framing:
//
//	Every request and response is one frame, a 20 byte header followed by the
//	payload:
//
//	  [shardID u64][requestID u64][payload length u32][payload]
//
//	The server answers with the shardID and requestID of the request, so
//	responses may arrive in any order. Payloads are limited to 64 MiB, a frame
//	announcing more is treated as a broken stream.
//
// Client:
//
//	clientTransport keeps ConnectionsPerEndpoint connections to each endpoint and
//	picks one round-robin per request. A reader goroutine per connection routes
//	responses to waiting requests by requestID. If the stream breaks, every
//	request waiting on that connection fails and the connection is redialed.
//	Failed sends are retried up to RetryCount times with exponential backoff.
//
//	Send returns a future.Future. Cancelling it aborts the retry loop, and the
//	response, if it still arrives, is dropped. After Close every pending and
//	new request fails with "transport is closed".
//
// Server:
//
//	serverTransport accepts connections and reads frames in a loop. Each request
//	is handled on its own goroutine, bounded per connection, with buffers taken
//	from a sync.Pool. Responses are written under a per connection lock.
//
// All exported methods are safe for concurrent use.
package base
