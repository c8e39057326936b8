package server

import (
	"fmt"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/lib/store/dstore"
	"github.com/ValentinKolb/dCMD/lib/store/lstore"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/serializer"
	"github.com/ValentinKolb/dCMD/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("server")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter
// that handles requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
		ring:       coverage.NewRing(config.RingSize, config.RingEndpoints()),
	}
}

// RPCServer serves the shards of one node over a transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
	ring       *coverage.Ring

	initOnce sync.Once
	initErr  error
	nodeHost *dragonboat.NodeHost
}

// Handler returns the function that answers serialized requests. It initializes
// the shards on first use, so it can be handed to an in-process transport
// without calling Serve.
func (s *RPCServer) Handler() (transport.ServerHandleFunc, error) {
	if err := s.init(); err != nil {
		return nil, err
	}
	return s.handle, nil
}

func (s *RPCServer) handle(shardId uint64, req []byte) []byte {
	var msg common.Message
	var respMsg *common.Message

	if err := s.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewErrorResponse(common.MsgTError,
			store.NewError(store.RetCInvalidOperation, fmt.Sprintf("failed to deserialize request: %s", err)))
	} else if shard, ok := s.shards.Load(shardId); !ok {
		// Case shard does not exist -> error
		respMsg = common.NewErrorResponse(msg.MsgType,
			store.NewError(store.RetCNotFound, fmt.Sprintf("shard %d not found", shardId)))
	} else {
		// Let the adapter handle the request
		start := time.Now()
		respMsg = shard.Adapter.Handle(&msg, shard.Store)
		metrics.GetOrCreateHistogram(fmt.Sprintf(`dcmd_node_request_duration_seconds{op=%q}`, msg.MsgType)).UpdateDuration(start)
	}
	if respMsg.IsError() {
		metrics.GetOrCreateCounter(fmt.Sprintf(`dcmd_node_request_errors_total{op=%q,code=%q}`, msg.MsgType, respMsg.Code)).Inc()
	}

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize %s response: %v", respMsg.MsgType, err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(msg.MsgType,
			fmt.Errorf("failed to serialize response: %w", err)))
	}
	return val
}

func (s *RPCServer) init() error {
	s.initOnce.Do(func() { s.initErr = s.createShards() })
	return s.initErr
}

func (s *RPCServer) createShards() error {
	// Create the Dragonboat NodeHost
	if s.config.HasRemoteShard() {
		// Only create the NodeHost if we have remote shards
		nh, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.nodeHost = nh
	}

	/*
		Note: A single RPC Server can have any number of remote and or local shards.
		Every shard gets its own store, all of them share the coverage ring of the node.
	*/

	adapter := NewIStoreServerAdapter(s.ring)

	for _, shardConfig := range s.config.Shards {
		switch shardConfig.Type {
		case common.ShardTypeLocalIStore:
			s.shards.Store(shardConfig.ShardID, serverShard{
				Store:   lstore.NewLocalStore(),
				Adapter: adapter,
			})
			Logger.Infof("created local store for shard %d", shardConfig.ShardID)

		case common.ShardTypeRemoteIStore:
			// Start Raft for the shard
			if err := s.nodeHost.StartConcurrentReplica(
				s.config.ClusterMembers,
				false,
				dstore.CreateStateMachineFactory(),
				s.config.ToDragonboatConfig(shardConfig.ShardID),
			); err != nil {
				return fmt.Errorf("failed to start shard %d: %w", shardConfig.ShardID, err)
			}
			s.shards.Store(shardConfig.ShardID, serverShard{
				Store:   dstore.NewDistributedStore(s.nodeHost, shardConfig.ShardID, s.config.Timeout()),
				Adapter: adapter,
			})
			Logger.Infof("created remote store for shard %d", shardConfig.ShardID)

		default:
			return fmt.Errorf("invalid shard type: %s", shardConfig.Type)
		}
	}

	Logger.Infof("dCMD setup completed successfully")
	return nil
}

// Serve initializes the shards and starts the transport layer.
// It blocks until the transport stops.
func (s *RPCServer) Serve() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	s.transport.RegisterHandler(handler)
	return s.transport.Listen(s.config)
}

// Close stops the transport and the raft node host (if any)
func (s *RPCServer) Close() error {
	err := s.transport.Close()
	if s.nodeHost != nil {
		s.nodeHost.Close()
	}
	return err
}
