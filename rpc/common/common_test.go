package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
)

func TestMessageTypeJSON(t *testing.T) {
	for mt := MsgTUnknown; mt <= msgTLast; mt++ {
		t.Run(mt.String(), func(t *testing.T) {
			raw, err := json.Marshal(mt)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			var got MessageType
			if err := json.Unmarshal(raw, &got); err != nil {
				t.Fatalf("unmarshal of %s failed: %v", raw, err)
			}
			if got != mt {
				t.Errorf("expected %s, got %s", mt, got)
			}
		})
	}

	var mt MessageType
	if err := json.Unmarshal([]byte(`"dtExplode"`), &mt); err == nil {
		t.Errorf("expected an error for an unknown message type")
	}
}

func TestNewErrorResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode store.RetCode
		wantErr  string
	}{
		{"store error", store.NewError(store.RetCNotFound, "table t does not exist"), store.RetCNotFound, "table t does not exist"},
		{"wrapped store error", fmt.Errorf("fetch: %w", store.NewError(store.RetCPreconditionFailed, "stale")), store.RetCPreconditionFailed, "stale"},
		{"plain error", errors.New("boom"), store.RetCInternalError, "boom"},
		{"nil error", nil, store.RetCInternalError, "unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewErrorResponse(MsgTDtFetch, tt.err)
			if msg.MsgType != MsgTDtFetch {
				t.Errorf("expected message type %s, got %s", MsgTDtFetch, msg.MsgType)
			}
			if msg.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, msg.Code)
			}
			if msg.Err != tt.wantErr {
				t.Errorf("expected error %q, got %q", tt.wantErr, msg.Err)
			}
			if !msg.IsError() {
				t.Errorf("error response is not reported as error")
			}
		})
	}
}

func TestPayloads(t *testing.T) {
	loc := query.NewLocation(query.NewNamespace("sets", "colors"), "favorites")
	req, err := NewLocationRequest(MsgTDtFetch, loc, DtFetchRequest{Kind: crdt.KindSet, IncludeContext: true})
	if err != nil {
		t.Fatalf("NewLocationRequest failed: %v", err)
	}
	if req.Location() != loc {
		t.Errorf("expected location %s, got %s", loc, req.Location())
	}

	payload, err := DecodePayload[DtFetchRequest](req)
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if !reflect.DeepEqual(payload, DtFetchRequest{Kind: crdt.KindSet, IncludeContext: true}) {
		t.Errorf("unexpected payload %+v", payload)
	}

	// a request without payload
	empty, err := NewNamespaceRequest(MsgTCoveragePlan, loc.Namespace, nil)
	if err != nil {
		t.Fatalf("NewNamespaceRequest failed: %v", err)
	}
	if len(empty.Payload) != 0 {
		t.Errorf("expected no payload, got %s", empty.Payload)
	}
	if _, err := DecodePayload[CoveragePlanRequest](empty); err == nil {
		t.Errorf("expected an error decoding an empty payload")
	}

	garbage := &Message{MsgType: MsgTListKeys, Payload: []byte("{nope")}
	if _, err := DecodePayload[ListKeysRequest](garbage); err == nil {
		t.Errorf("expected an error decoding garbage")
	}

	resp, err := NewResponse(MsgTDtFetch, DtFetchResponse{Found: false})
	if err != nil {
		t.Fatalf("NewResponse failed: %v", err)
	}
	if resp.IsError() {
		t.Errorf("successful response is reported as error")
	}
}
