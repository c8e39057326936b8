package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dCMD/rpc/common"
)

// NewJSONSerializer creates a serializer that writes messages as json objects.
// Context and Payload are base64 encoded, the message type is written by name.
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

type jsonSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	if !msg.MsgType.Valid() {
		return nil, fmt.Errorf("cannot serialize message type %d", msg.MsgType)
	}
	return json.Marshal(msg)
}

// Deserialize accepts exactly one message object. Unknown fields and trailing
// data are rejected, a message written by a newer node is reported instead of
// being silently truncated.
func (j jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	var decoded common.Message
	if err := dec.Decode(&decoded); err != nil {
		return fmt.Errorf("invalid json message: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid json message: trailing data after message")
	}

	*msg = decoded
	return nil
}
