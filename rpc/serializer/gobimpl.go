package serializer

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/ValentinKolb/dCMD/rpc/common"
)

// NewGOBSerializer creates a serializer based on encoding/gob. Every message is a
// self-contained gob stream carrying its own type description.
func NewGOBSerializer() IRPCSerializer {
	return &gobSerializerImpl{}
}

type gobSerializerImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	if !msg.MsgType.Valid() {
		return nil, fmt.Errorf("cannot serialize message type %d", msg.MsgType)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	buf := bytes.NewReader(b)

	var decoded common.Message
	if err := gob.NewDecoder(buf).Decode(&decoded); err != nil {
		return fmt.Errorf("invalid gob message: %w", err)
	}
	if buf.Len() > 0 {
		return fmt.Errorf("invalid gob message: %d trailing bytes", buf.Len())
	}
	if !decoded.MsgType.Valid() {
		return fmt.Errorf("invalid gob message: unknown message type %d", decoded.MsgType)
	}

	*msg = decoded
	return nil
}
