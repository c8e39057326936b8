package cluster

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/serializer"
	"github.com/ValentinKolb/dCMD/rpc/transport/local"
)

// newTestCluster registers handler under a unique endpoint and returns a cluster using it
func newTestCluster(t *testing.T, handler func(req *common.Message) *common.Message) ICluster {
	t.Helper()
	ser := serializer.NewBinarySerializer()
	endpoint := fmt.Sprintf("cluster-test-%s", t.Name())

	t.Cleanup(local.Register(endpoint, func(_ uint64, b []byte) []byte {
		req := &common.Message{}
		if err := ser.Deserialize(b, req); err != nil {
			return []byte{0xFF} // not a valid message
		}
		out, _ := ser.Serialize(*handler(req))
		return out
	}))

	c, err := NewCluster(1, common.ClientConfig{Endpoints: []string{endpoint}}, local.NewLocalClientTransport(), ser)
	if err != nil {
		t.Fatalf("NewCluster() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// echoOp is an Operation whose response is the payload of the answer
type echoOp struct {
	req *common.Message
}

func (o echoOp) Request() *common.Message { return o.req }

func (o echoOp) DecodeResponse(resp *common.Message) (string, error) {
	if len(resp.Payload) == 0 {
		return "", errors.New("empty payload")
	}
	return string(resp.Payload), nil
}

func TestSubmitSuccess(t *testing.T) {
	c := newTestCluster(t, func(req *common.Message) *common.Message {
		return &common.Message{MsgType: req.MsgType, Ok: true, Payload: []byte(req.Key)}
	})

	got, err := Execute[string](c, echoOp{req: &common.Message{MsgType: common.MsgTDtFetch, Key: "k1"}}).Get()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "k1" {
		t.Errorf("Execute() = %q, want k1", got)
	}
}

func TestSubmitErrorResponse(t *testing.T) {
	c := newTestCluster(t, func(req *common.Message) *common.Message {
		return common.NewErrorResponse(req.MsgType, store.NewError(store.RetCNotFound, "no such table"))
	})

	_, err := c.Submit(&common.Message{MsgType: common.MsgTTsFetch, Key: "t"}).Get()
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if te.Code != store.RetCNotFound || te.Op != common.MsgTTsFetch {
		t.Errorf("TransportError = %+v", te)
	}
	if !HasCode(err, store.RetCNotFound) {
		t.Errorf("HasCode() should match")
	}
}

func TestSubmitProtocolErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(req *common.Message) *common.Message
	}{
		{"wrong type", func(req *common.Message) *common.Message {
			return &common.Message{MsgType: common.MsgTListKeys, Ok: true}
		}},
		{"error without code", func(req *common.Message) *common.Message {
			return &common.Message{MsgType: req.MsgType, Err: "boom"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCluster(t, tt.handler)
			_, err := c.Submit(&common.Message{MsgType: common.MsgTDtFetch}).Get()
			if !HasCode(err, store.RetCInternalError) {
				t.Errorf("error = %v, want internal TransportError", err)
			}
			var ce *future.ConversionError
			if errors.As(err, &ce) {
				t.Errorf("protocol errors must not be conversion errors")
			}
		})
	}
}

func TestSubmitUndecodableResponse(t *testing.T) {
	ser := serializer.NewBinarySerializer()
	t.Cleanup(local.Register("garbage", func(uint64, []byte) []byte { return []byte{1} }))
	g, _ := NewCluster(1, common.ClientConfig{Endpoints: []string{"garbage"}}, local.NewLocalClientTransport(), ser)

	_, err := g.Submit(&common.Message{MsgType: common.MsgTDtFetch}).Get()
	var te *TransportError
	if !errors.As(err, &te) {
		t.Errorf("error = %v, want *TransportError", err)
	}
}

func TestExecuteConversionError(t *testing.T) {
	c := newTestCluster(t, func(req *common.Message) *common.Message {
		return &common.Message{MsgType: req.MsgType, Ok: true}
	})

	_, err := Execute[string](c, echoOp{req: &common.Message{MsgType: common.MsgTDtFetch}}).Get()
	var ce *future.ConversionError
	if !errors.As(err, &ce) {
		t.Errorf("error = %v, want *future.ConversionError", err)
	}
}

func TestExecuteCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := newTestCluster(t, func(req *common.Message) *common.Message {
		<-release
		return &common.Message{MsgType: req.MsgType, Ok: true, Payload: []byte("x")}
	})

	converted := make(chan struct{}, 1)
	op := echoOp{req: &common.Message{MsgType: common.MsgTDtFetch}}
	f := future.Adapt(Execute[string](c, op), func(s string) (string, error) {
		converted <- struct{}{}
		return s, nil
	})

	if !f.Cancel() {
		t.Fatalf("Cancel() before the response should succeed")
	}
	if _, err := f.GetTimeout(time.Second); !errors.Is(err, future.ErrCancelled) {
		t.Errorf("Get() error = %v, want ErrCancelled", err)
	}
	select {
	case <-converted:
		t.Errorf("conversion ran for a cancelled request")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubmitSerializeError(t *testing.T) {
	c := newTestCluster(t, func(req *common.Message) *common.Message { return req })
	_, err := c.Submit(&common.Message{MsgType: common.MsgTDtFetch, Bucket: string(make([]byte, 70000))}).Get()
	if !HasCode(err, store.RetCInternalError) {
		t.Errorf("error = %v, want internal TransportError", err)
	}
}
