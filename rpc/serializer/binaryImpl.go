package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: [MsgType u8][flags u8] followed by every field whose flag is set, in
// flag order. Strings and byte slices are length prefixed (u16 for the bucket
// type and bucket, u32 otherwise), Ok is a single byte and Code a u64.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasBucketType byte = 1 << 0
	hasBucket     byte = 1 << 1
	hasKey        byte = 1 << 2
	hasContext    byte = 1 << 3
	hasPayload    byte = 1 << 4
	hasOk         byte = 1 << 5
	hasCode       byte = 1 << 6
	hasErr        byte = 1 << 7
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	if len(msg.BucketType) > 0xFFFF || len(msg.Bucket) > 0xFFFF {
		return nil, fmt.Errorf("bucket type and bucket must be shorter than 65536 bytes")
	}

	result := make([]byte, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags byte = 0
	pos := 2 // Start after MsgType and flags

	if msg.BucketType != "" {
		flags |= hasBucketType
		pos = putShort(result, pos, []byte(msg.BucketType))
	}
	if msg.Bucket != "" {
		flags |= hasBucket
		pos = putShort(result, pos, []byte(msg.Bucket))
	}
	if msg.Key != "" {
		flags |= hasKey
		pos = putLong(result, pos, []byte(msg.Key))
	}
	if msg.Context != nil {
		flags |= hasContext
		pos = putLong(result, pos, msg.Context)
	}
	if msg.Payload != nil {
		flags |= hasPayload
		pos = putLong(result, pos, msg.Payload)
	}
	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}
	if msg.Code != store.RetCSuccess {
		flags |= hasCode
		binary.BigEndian.PutUint64(result[pos:pos+8], uint64(msg.Code))
		pos += 8
	}
	if msg.Err != "" {
		flags |= hasErr
		pos = putLong(result, pos, []byte(msg.Err))
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	r := reader{data: data, pos: 2}

	msg.BucketType = ""
	if flags&hasBucketType != 0 {
		raw, err := r.short("bucket type")
		if err != nil {
			return err
		}
		msg.BucketType = string(raw)
	}

	msg.Bucket = ""
	if flags&hasBucket != 0 {
		raw, err := r.short("bucket")
		if err != nil {
			return err
		}
		msg.Bucket = string(raw)
	}

	msg.Key = ""
	if flags&hasKey != 0 {
		raw, err := r.long("key")
		if err != nil {
			return err
		}
		msg.Key = string(raw)
	}

	if flags&hasContext != 0 {
		raw, err := r.long("context")
		if err != nil {
			return err
		}
		msg.Context = reuse(msg.Context, raw)
	} else {
		msg.Context = nil
	}

	if flags&hasPayload != 0 {
		raw, err := r.long("payload")
		if err != nil {
			return err
		}
		msg.Payload = reuse(msg.Payload, raw)
	} else {
		msg.Payload = nil
	}

	msg.Ok = false
	if flags&hasOk != 0 {
		raw, err := r.fixed(1, "Ok flag")
		if err != nil {
			return err
		}
		msg.Ok = raw[0] != 0
	}

	msg.Code = store.RetCSuccess
	if flags&hasCode != 0 {
		raw, err := r.fixed(8, "code")
		if err != nil {
			return err
		}
		msg.Code = store.RetCode(binary.BigEndian.Uint64(raw))
	}

	msg.Err = ""
	if flags&hasErr != 0 {
		raw, err := r.long("error")
		if err != nil {
			return err
		}
		msg.Err = string(raw)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.BucketType != "" {
		size += 2 + len(msg.BucketType)
	}
	if msg.Bucket != "" {
		size += 2 + len(msg.Bucket)
	}
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Context != nil {
		size += 4 + len(msg.Context)
	}
	if msg.Payload != nil {
		size += 4 + len(msg.Payload)
	}
	if msg.Ok {
		size += 1
	}
	if msg.Code != store.RetCSuccess {
		size += 8
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}

// putShort writes a u16 length prefixed field and returns the new position
func putShort(buf []byte, pos int, field []byte) int {
	binary.BigEndian.PutUint16(buf[pos:pos+2], uint16(len(field)))
	pos += 2
	return pos + copy(buf[pos:], field)
}

// putLong writes a u32 length prefixed field and returns the new position
func putLong(buf []byte, pos int, field []byte) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(field)))
	pos += 4
	return pos + copy(buf[pos:], field)
}

// reuse copies raw into dst, allocating only if dst is too small.
// The result is never nil, so empty fields survive a round trip.
func reuse(dst, raw []byte) []byte {
	if dst == nil || cap(dst) < len(raw) {
		dst = make([]byte, len(raw))
	} else {
		dst = dst[:len(raw)]
	}
	copy(dst, raw)
	return dst
}

// reader walks over a serialized message
type reader struct {
	data []byte
	pos  int
}

func (r *reader) fixed(n int, field string) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("data too short for %s", field)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) short(field string) ([]byte, error) {
	raw, err := r.fixed(2, field+" length")
	if err != nil {
		return nil, err
	}
	return r.fixed(int(binary.BigEndian.Uint16(raw)), field+" data")
}

func (r *reader) long(field string) ([]byte, error) {
	raw, err := r.fixed(4, field+" length")
	if err != nil {
		return nil, err
	}
	return r.fixed(int(binary.BigEndian.Uint32(raw)), field+" data")
}
