package local

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// handlers maps endpoint names to the handlers listening on them
var handlers = xsync.NewMapOf[string, transport.ServerHandleFunc]()

// Register makes handler reachable under endpoint for local client transports.
// The returned function removes the registration again.
func Register(endpoint string, handler transport.ServerHandleFunc) (unregister func()) {
	handlers.Store(endpoint, handler)
	return func() { handlers.Delete(endpoint) }
}

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// NewLocalServerTransport creates a server transport that serves clients of the
// same process. Listen registers the handler under ServerConfig.Endpoint.
func NewLocalServerTransport() transport.IRPCServerTransport {
	return &serverTransport{stop: make(chan struct{})}
}

type serverTransport struct {
	handler   transport.ServerHandleFunc
	stop      chan struct{}
	closeOnce sync.Once
}

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}
	unregister := Register(config.Endpoint, t.handler)
	defer unregister()

	Logger.Infof("Serving in-process requests on %q", config.Endpoint)
	<-t.stop
	return nil
}

func (t *serverTransport) Close() error {
	t.closeOnce.Do(func() { close(t.stop) })
	return nil
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// NewLocalClientTransport creates a client transport that calls the handlers
// registered in this process. Every request is handled on its own goroutine,
// so Send never blocks.
func NewLocalClientTransport() transport.IRPCClientTransport {
	return &clientTransport{requests: transport.NewRequests()}
}

type clientTransport struct {
	endpoints []string
	counter   atomic.Uint64
	requests  *transport.Requests
}

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	t.endpoints = config.Endpoints
	return nil
}

func (t *clientTransport) Send(shardId uint64, req []byte) *future.Future[[]byte] {
	if len(t.endpoints) == 0 {
		return future.Failed[[]byte](fmt.Errorf("local transport not initialized"))
	}

	endpoint := t.endpoints[t.counter.Add(1)%uint64(len(t.endpoints))]
	handler, ok := handlers.Load(endpoint)
	if !ok {
		return future.Failed[[]byte](fmt.Errorf("no server listening on %q", endpoint))
	}

	// the handler may keep the request, the caller may reuse its buffer
	reqCopy := append([]byte(nil), req...)

	requestID, f, _ := t.requests.Start()
	go func() {
		resp := handler(shardId, reqCopy)
		t.requests.Finish(requestID, f, resp, nil)
	}()
	return f
}

func (t *clientTransport) Close() error {
	t.endpoints = nil
	return nil
}
