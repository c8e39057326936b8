package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		shardID   uint64
		requestID uint64
		data      []byte
		buf       []byte
	}{
		{"empty payload", 1, 2, nil, nil},
		{"fresh buffer", 100, 7, []byte("dtFetch counters/visits/home"), nil},
		{"pooled buffer", 100, 8, bytes.Repeat([]byte{0xab}, 300), make([]byte, 512)},
		{"buffer too small", 3, 9, bytes.Repeat([]byte{0x01}, 300), make([]byte, 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			errCh := make(chan error, 1)
			go func() { errCh <- writeFrame(client, tt.shardID, tt.requestID, tt.data) }()

			shardID, requestID, data, err := readFrame(server, tt.buf)
			if err != nil {
				t.Fatalf("readFrame() error = %v", err)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("writeFrame() error = %v", err)
			}
			if shardID != tt.shardID || requestID != tt.requestID {
				t.Errorf("header = (%d, %d), want (%d, %d)", shardID, requestID, tt.shardID, tt.requestID)
			}
			if !bytes.Equal(data, tt.data) {
				t.Errorf("payload = %x, want %x", data, tt.data)
			}
		})
	}
}

func TestFrameSizeLimit(t *testing.T) {
	t.Run("read", func(t *testing.T) {
		client, server := net.Pipe()
		defer client.Close()
		defer server.Close()

		header := make([]byte, frameHeaderSize)
		binary.BigEndian.PutUint32(header[16:], maxFrameSize+1)
		go func() { _, _ = client.Write(header) }()

		if _, _, _, err := readFrame(server, nil); err == nil {
			t.Errorf("readFrame() should reject an oversized length field")
		}
	})

	t.Run("write", func(t *testing.T) {
		client, server := net.Pipe()
		defer client.Close()
		defer server.Close()

		// nothing is read from server, a partial write would block
		if err := writeFrame(client, 1, 1, make([]byte, maxFrameSize+1)); err == nil {
			t.Errorf("writeFrame() should reject an oversized payload")
		}
	})
}
