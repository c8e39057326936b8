package testing

import (
	"testing"

	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/serializer"
	"github.com/ValentinKolb/dCMD/rpc/server"
	"github.com/ValentinKolb/dCMD/rpc/transport"
	"github.com/ValentinKolb/dCMD/rpc/transport/local"
)

// ShardID is the shard served by the clusters of this package
const ShardID = 100

type options struct {
	serializer serializer.IRPCSerializer
	ringSize   int
	endpoints  []string
	gate       <-chan struct{}
}

// Option configures NewLocalCluster
type Option func(*options)

// WithSerializer sets the serializer of client and server (default: binary)
func WithSerializer(s serializer.IRPCSerializer) Option {
	return func(o *options) { o.serializer = s }
}

// WithRing sets the size of the coverage ring and the endpoints it is assigned to
func WithRing(size int, endpoints ...string) Option {
	return func(o *options) {
		o.ringSize = size
		o.endpoints = endpoints
	}
}

// WithGate makes the server wait for gate before answering a request
func WithGate(gate <-chan struct{}) Option {
	return func(o *options) { o.gate = gate }
}

// NewLocalCluster starts an in-memory node in this process and returns a cluster
// connected to it through the local transport. Node and cluster are closed when
// the test ends.
func NewLocalCluster(t *testing.T, opts ...Option) cluster.ICluster {
	t.Helper()

	o := &options{serializer: serializer.NewBinarySerializer(), ringSize: 16}
	for _, opt := range opts {
		opt(o)
	}

	endpoint := t.Name()
	srv := server.NewRPCServer(common.ServerConfig{
		Shards:              []common.ServerShard{{ShardID: ShardID, Type: common.ShardTypeLocalIStore}},
		Endpoint:            endpoint,
		RingSize:            o.ringSize,
		AdvertisedEndpoints: o.endpoints,
		TimeoutSecond:       5,
		LogLevel:            "error",
	}, local.NewLocalServerTransport(), o.serializer)

	handler, err := srv.Handler()
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}
	if o.gate != nil {
		handler = gated(handler, o.gate)
	}
	t.Cleanup(local.Register(endpoint, handler))

	c, err := cluster.NewCluster(ShardID, common.ClientConfig{
		Endpoints:     []string{endpoint},
		TimeoutSecond: 5,
	}, local.NewLocalClientTransport(), o.serializer)
	if err != nil {
		t.Fatalf("failed to connect to node: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func gated(handler transport.ServerHandleFunc, gate <-chan struct{}) transport.ServerHandleFunc {
	return func(shardId uint64, req []byte) []byte {
		<-gate
		return handler(shardId, req)
	}
}
