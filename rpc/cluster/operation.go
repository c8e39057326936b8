package cluster

import (
	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

// Operation is a wire level request together with the decoder of its response.
// Operations are immutable once built.
type Operation[R any] interface {
	// Request returns the encoded request. It must not be modified.
	Request() *common.Message
	// DecodeResponse converts the response message into the typed response
	DecodeResponse(resp *common.Message) (R, error)
}

// Execute submits op and adapts the raw response future with op.DecodeResponse.
// Decoder failures surface as *future.ConversionError.
func Execute[R any](c ICluster, op Operation[R]) *future.Future[R] {
	return future.Adapt(c.Submit(op.Request()), op.DecodeResponse)
}
