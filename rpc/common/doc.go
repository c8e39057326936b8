// Package common provides the data structures shared by the client and the
// server side of the RPC layer: the message frame, the payloads carried inside
// it, the configuration structs and the logger setup.
//
// The package focuses on:
//   - Message protocol definition for the communication between client and node
//   - Configuration structures for client and server components
//   - Custom logging implementation integrated with Dragonboat
//   - Utilities for Dragonboat (RAFT) integration
//
// Key Components:
//
//   - Message: A flat frame used for both requests and responses. The addressing
//     fields (BucketType, Bucket, Key) and the causal Context are top-level fields so
//     that the binary serializer can encode them compactly; everything operation
//     specific travels as a json encoded Payload.
//
//   - Payloads: One request and (if needed) one response struct per message type,
//     e.g. DtFetchRequest / DtFetchResponse. EncodePayload and the generic
//     DecodePayload convert between the structs and Message.Payload.
//
//   - MessageType: Enumeration of all supported operations, categorized into
//     datatype operations, coverage operations and timeseries operations.
//
//   - ServerConfig: Configuration for nodes, including RAFT parameters, storage
//     settings, the coverage ring and network configuration.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
//
// Error responses carry the store.RetCode of the failure in Message.Code, so
// clients can tell "not found" or "precondition failed" apart from internal errors
// without parsing error strings.
package common
