// Package internal provides the communication protocol structures and serialization
// logic for the dstore package. It defines the wire format used to transmit operations
// between the store client and the distributed state machine.
//
// This package is intended for internal use by the dstore implementation and should
// not be imported directly by external code.
//
//   - Command System: Write operations (UpdateDatatype, DeleteDatatype, CreateTable,
//     StoreRows, DeleteRow). Commands are serialized and proposed to the RAFT cluster.
//
//   - Query System: Read operations (FetchDatatype, ListKeys, DescribeTable, FetchRow).
//     Queries are executed locally on the state machine and are not serialized.
//
// Command Format:
//
//	- 1 byte: Command type
//	- 2 bytes: bucket type length (uint16, big endian)
//	- 2 bytes: bucket length (uint16, big endian)
//	- 4 bytes: key length (uint32, big endian)
//	- 4 bytes: context length (uint32, big endian)
//	- N bytes: bucket type, bucket, key and context
//	- M bytes: body (json, optional)
//
//	The addressing fields are binary so the state machine can route a command
//	without decoding its body. The body holds a crdt.OpValue, a table definition,
//	rows or key cells depending on the command type.
//
// Thread Safety:
//
//	The types in this package are not thread-safe. The RAFT protocol ensures
//	sequential processing of commands on the state machine.
package internal
