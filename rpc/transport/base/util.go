package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const (
	// frameHeaderSize is the size of an encoded frameHeader
	frameHeaderSize = 20

	// maxFrameSize bounds the payload of a single frame. A larger length field
	// means the stream is corrupt or the peer speaks another protocol.
	maxFrameSize = 64 << 20
)

// frameHeader precedes every request and response on a connection:
//
//	[shardID u64][requestID u64][payload length u32], big endian
//
// The response to a request carries the same shardID and requestID.
type frameHeader struct {
	shardID   uint64
	requestID uint64
	length    uint32
}

func (h frameHeader) encode(buf []byte) {
	binary.BigEndian.PutUint64(buf[:8], h.shardID)
	binary.BigEndian.PutUint64(buf[8:16], h.requestID)
	binary.BigEndian.PutUint32(buf[16:frameHeaderSize], h.length)
}

func decodeFrameHeader(buf []byte) (frameHeader, error) {
	h := frameHeader{
		shardID:   binary.BigEndian.Uint64(buf[:8]),
		requestID: binary.BigEndian.Uint64(buf[8:16]),
		length:    binary.BigEndian.Uint32(buf[16:frameHeaderSize]),
	}
	if h.length > maxFrameSize {
		return h, fmt.Errorf("frame for shard %d announces %d bytes, limit is %d", h.shardID, h.length, maxFrameSize)
	}
	return h, nil
}

// writeFrame writes header and payload with a single vectored write. Nothing is
// written if data exceeds maxFrameSize.
func writeFrame(conn net.Conn, shardID uint64, requestID uint64, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("payload of %d bytes exceeds the frame limit of %d", len(data), maxFrameSize)
	}

	header := make([]byte, frameHeaderSize)
	frameHeader{shardID: shardID, requestID: requestID, length: uint32(len(data))}.encode(header)

	if len(data) == 0 {
		_, err := conn.Write(header)
		return err
	}
	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads the next frame. buf is used for the header and, if it is large
// enough, for the payload, so the returned slice may alias buf. A nil or small
// buf makes readFrame allocate.
func readFrame(conn net.Conn, buf []byte) (uint64, uint64, []byte, error) {
	if len(buf) < frameHeaderSize {
		buf = make([]byte, frameHeaderSize)
	}

	if _, err := io.ReadFull(conn, buf[:frameHeaderSize]); err != nil {
		return 0, 0, nil, err
	}
	h, err := decodeFrameHeader(buf)
	if err != nil {
		return 0, 0, nil, err
	}

	if h.length == 0 {
		return h.shardID, h.requestID, []byte{}, nil
	}

	if len(buf) < int(h.length) {
		buf = make([]byte, h.length)
	}
	if _, err := io.ReadFull(conn, buf[:h.length]); err != nil {
		return 0, 0, nil, err
	}
	return h.shardID, h.requestID, buf[:h.length], nil
}
