package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Addressing fields
	BucketType string `json:"bucket_type,omitempty"` // Used for: datatype and coverage operations
	Bucket     string `json:"bucket,omitempty"`      // Used for: datatype and coverage operations
	Key        string `json:"key,omitempty"`         // Datatype key, or table name for timeseries operations
	Context    []byte `json:"context,omitempty"`     // Causal context: DtUpdate (request), DtFetch and DtUpdate (response)

	// Operation specific body, json encoded (see payload.go)
	Payload []byte `json:"payload,omitempty"`

	// Response only fields
	Ok   bool          `json:"ok,omitempty"`   // Set on every successful response
	Code store.RetCode `json:"code,omitempty"` // Return code of the store, set on error responses
	Err  string        `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message
}

// Namespace returns the namespace addressed by the message
func (m *Message) Namespace() query.Namespace {
	return query.Namespace{BucketType: m.BucketType, Bucket: m.Bucket}
}

// Location returns the location addressed by the message
func (m *Message) Location() query.Location {
	return query.Location{Namespace: m.Namespace(), Key: m.Key}
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewLocationRequest creates a request of type t addressed to loc
func NewLocationRequest(t MessageType, loc query.Location, payload any) (*Message, error) {
	raw, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		MsgType:    t,
		BucketType: loc.Namespace.BucketType,
		Bucket:     loc.Namespace.Bucket,
		Key:        loc.Key,
		Payload:    raw,
	}, nil
}

// NewNamespaceRequest creates a request of type t addressed to ns
func NewNamespaceRequest(t MessageType, ns query.Namespace, payload any) (*Message, error) {
	return NewLocationRequest(t, query.Location{Namespace: ns}, payload)
}

// NewTableRequest creates a timeseries request of type t for table
func NewTableRequest(t MessageType, table string, payload any) (*Message, error) {
	raw, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		MsgType: t,
		Key:     table,
		Payload: raw,
	}, nil
}

// NewResponse creates a successful response of type t
func NewResponse(t MessageType, payload any) (*Message, error) {
	raw, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		MsgType: t,
		Ok:      true,
		Payload: raw,
	}, nil
}

// NewErrorResponse creates an error response. The return code is taken from err if it
// is a *store.Error, otherwise RetCInternalError is used.
func NewErrorResponse(t MessageType, err error) *Message {
	msg := &Message{
		MsgType: t,
		Code:    store.RetCInternalError,
		Err:     "unknown error",
	}
	if err != nil {
		msg.Err = err.Error()
		var se *store.Error
		if errors.As(err, &se) {
			msg.Code = se.Code
			msg.Err = se.Msg
		}
	}
	return msg
}

// IsError reports whether the message is an error response
func (m *Message) IsError() bool {
	return !m.Ok || m.Err != "" || m.Code != store.RetCSuccess
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTSuccess:
		return "success"
	case MsgTError:
		return "error"
	case MsgTDtFetch:
		return "dtFetch"
	case MsgTDtUpdate:
		return "dtUpdate"
	case MsgTDtDelete:
		return "dtDelete"
	case MsgTCoveragePlan:
		return "coveragePlan"
	case MsgTListKeys:
		return "listKeys"
	case MsgTTsCreateTable:
		return "tsCreateTable"
	case MsgTTsStore:
		return "tsStore"
	case MsgTTsFetch:
		return "tsFetch"
	case MsgTTsDelete:
		return "tsDelete"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a known message type
func (t MessageType) Valid() bool {
	return t <= msgTLast
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	for candidate := MsgTUnknown; candidate <= msgTLast; candidate++ {
		if candidate.String() == s {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Datatype operations

	MsgTDtFetch  // Fetch a datatype
	MsgTDtUpdate // Update a datatype
	MsgTDtDelete // Delete a datatype

	// Coverage operations

	MsgTCoveragePlan // Request a coverage plan for a namespace
	MsgTListKeys     // List the keys of one coverage entry

	// Timeseries operations

	MsgTTsCreateTable // Create a table
	MsgTTsStore       // Store rows
	MsgTTsFetch       // Fetch a row by key
	MsgTTsDelete      // Delete a row by key

	msgTLast = MsgTTsDelete
)
