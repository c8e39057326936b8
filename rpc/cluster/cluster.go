package cluster

import (
	"errors"
	"fmt"
	"time"

	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/serializer"
	"github.com/ValentinKolb/dCMD/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("cluster")

// ICluster is the handle every command is executed against. It hides the
// transport, the serializer and the shard routing.
type ICluster interface {
	// Submit sends the request without blocking. The returned future resolves with
	// the response message, or fails with a *TransportError if the request could not
	// be delivered or the node answered with an error.
	// Cancelling the future abandons the request if no response arrived yet.
	Submit(req *common.Message) *future.Future[*common.Message]
	// Close releases the underlying transport
	Close() error
}

// NewCluster connects the transport and returns a cluster handle that sends all
// requests to the given shard.
func NewCluster(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (ICluster, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}
	return &clusterImpl{
		shardId:    shardId,
		config:     config,
		transport:  transport,
		serializer: serializer,
	}, nil
}

type clusterImpl struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// --------------------------------------------------------------------------
// Interface Methods (docu see ICluster)
// --------------------------------------------------------------------------

func (c *clusterImpl) Submit(req *common.Message) *future.Future[*common.Message] {
	op := req.MsgType
	start := time.Now()

	reqBytes, err := c.serializer.Serialize(*req)
	if err != nil {
		f := future.Failed[*common.Message](&TransportError{Op: op, Code: store.RetCInternalError, Err: err})
		record(op, start, f)
		return f
	}

	raw := c.transport.Send(c.shardId, reqBytes)

	// decode errors are protocol errors, so they are lifted out of the
	// ConversionError that Adapt wraps them in
	resp := future.Adapt(raw, func(b []byte) (*common.Message, error) {
		return c.decode(op, b)
	})
	resp = future.MapError(resp, func(err error) error {
		return asTransportError(op, err)
	})

	record(op, start, resp)
	return resp
}

func (c *clusterImpl) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// decode deserializes a response and turns error responses into a *TransportError
func (c *clusterImpl) decode(op common.MessageType, b []byte) (*common.Message, error) {
	resp := &common.Message{}
	if err := c.serializer.Deserialize(b, resp); err != nil {
		return nil, &TransportError{Op: op, Code: store.RetCInternalError, Err: fmt.Errorf("invalid response: %w", err)}
	}

	if resp.IsError() {
		code := resp.Code
		if code == store.RetCSuccess {
			code = store.RetCInternalError
		}
		return nil, &TransportError{Op: op, Code: code, Err: errors.New(resp.Err)}
	}

	if resp.MsgType != op {
		return nil, &TransportError{Op: op, Code: store.RetCInternalError,
			Err: fmt.Errorf("unexpected message type: %s, expected %s", resp.MsgType, op)}
	}
	return resp, nil
}

// asTransportError makes sure every failure of Submit is a *TransportError
func asTransportError(op common.MessageType, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{Op: op, Code: store.RetCInternalError, Err: err}
}

// record updates the operation metrics once f resolved
func record(op common.MessageType, start time.Time, f *future.Future[*common.Message]) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`dcmd_operations_total{op=%q}`, op)).Inc()
	f.AddListener(func(f *future.Future[*common.Message]) {
		switch f.State() {
		case future.StateFailed:
			metrics.GetOrCreateCounter(fmt.Sprintf(`dcmd_operation_errors_total{op=%q}`, op)).Inc()
			Logger.Debugf("%s failed after %s: %v", op, time.Since(start), f.Err())
		case future.StateCancelled:
			metrics.GetOrCreateCounter(fmt.Sprintf(`dcmd_operations_cancelled_total{op=%q}`, op)).Inc()
		default:
			metrics.GetOrCreateHistogram(fmt.Sprintf(`dcmd_operation_duration_seconds{op=%q}`, op)).UpdateDuration(start)
		}
	})
}
