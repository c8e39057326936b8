package common

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
)

// --------------------------------------------------------------------------
// Payloads
// --------------------------------------------------------------------------

// Quorum options are carried for protocol compatibility. A single replica (or a
// raft shard) already answers with the committed value, so nodes accept but do not
// act on them.

// DtFetchRequest is the payload of a MsgTDtFetch request
type DtFetchRequest struct {
	Kind           crdt.Kind `json:"kind"`
	R              uint32    `json:"r,omitempty"`
	PR             uint32    `json:"pr,omitempty"`
	BasicQuorum    bool      `json:"basicQuorum,omitempty"`
	NotFoundOK     bool      `json:"notFoundOk,omitempty"`
	TimeoutMs      uint32    `json:"timeoutMs,omitempty"`
	IncludeContext bool      `json:"includeContext,omitempty"`
}

// DtFetchResponse is the payload of a MsgTDtFetch response.
// The context travels in Message.Context.
type DtFetchResponse struct {
	Found bool        `json:"found"`
	Value *crdt.Value `json:"value,omitempty"`
}

// DtUpdateRequest is the payload of a MsgTDtUpdate request.
// The context travels in Message.Context.
type DtUpdateRequest struct {
	Op             crdt.OpValue `json:"op"`
	W              uint32       `json:"w,omitempty"`
	DW             uint32       `json:"dw,omitempty"`
	PW             uint32       `json:"pw,omitempty"`
	ReturnBody     bool         `json:"returnBody,omitempty"`
	IncludeContext bool         `json:"includeContext,omitempty"`
	TimeoutMs      uint32       `json:"timeoutMs,omitempty"`
}

// DtUpdateResponse is the payload of a MsgTDtUpdate response
type DtUpdateResponse struct {
	Value *crdt.Value `json:"value,omitempty"` // only with ReturnBody
}

// DtDeleteRequest is the payload of a MsgTDtDelete request
type DtDeleteRequest struct {
	TimeoutMs uint32 `json:"timeoutMs,omitempty"`
}

// CoveragePlanRequest is the payload of a MsgTCoveragePlan request
type CoveragePlanRequest struct {
	MinPartitions uint32 `json:"minPartitions,omitempty"`
}

// CoveragePlanResponse is the payload of a MsgTCoveragePlan response
type CoveragePlanResponse struct {
	Entries []coverage.Entry `json:"entries"`
}

// ListKeysRequest is the payload of a MsgTListKeys request
type ListKeysRequest struct {
	Token     coverage.Token `json:"token"`
	TimeoutMs uint32         `json:"timeoutMs,omitempty"`
}

// ListKeysResponse is the payload of a MsgTListKeys response
type ListKeysResponse struct {
	Keys []string `json:"keys"`
}

// TsCreateTableRequest is the payload of a MsgTTsCreateTable request
type TsCreateTableRequest struct {
	Table timeseries.TableDefinition `json:"table"`
}

// TsStoreRequest is the payload of a MsgTTsStore request
type TsStoreRequest struct {
	Rows []timeseries.Row `json:"rows"`
}

// TsFetchRequest is the payload of a MsgTTsFetch request
type TsFetchRequest struct {
	KeyCells  []timeseries.Cell `json:"keyCells"`
	TimeoutMs uint32            `json:"timeoutMs,omitempty"`
}

// TsFetchResponse is the payload of a MsgTTsFetch response
type TsFetchResponse struct {
	Result timeseries.QueryResult `json:"result"`
}

// TsDeleteRequest is the payload of a MsgTTsDelete request
type TsDeleteRequest struct {
	KeyCells  []timeseries.Cell `json:"keyCells"`
	TimeoutMs uint32            `json:"timeoutMs,omitempty"`
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// EncodePayload encodes a payload struct. A nil payload yields no bytes.
func EncodePayload(payload any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T payload: %w", payload, err)
	}
	return raw, nil
}

// DecodePayload decodes the payload of msg into a T
func DecodePayload[T any](msg *Message) (T, error) {
	var out T
	if len(msg.Payload) == 0 {
		return out, fmt.Errorf("%s message has no payload", msg.MsgType)
	}
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s payload: %w", msg.MsgType, err)
	}
	return out, nil
}
