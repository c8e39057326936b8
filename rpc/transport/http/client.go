package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/rpc/common"
	"github.com/ValentinKolb/dCMD/rpc/transport"
)

// errClosed fails requests sent on, or still running when, the transport is closed
var errClosed = errors.New("transport is closed")

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{requests: transport.NewRequests()}
}

type httpClientTransport struct {
	conn     atomic.Pointer[httpConnection] // nil until Connect and after Close
	counter  atomic.Uint32
	requests *transport.Requests
}

// httpConnection is the state set up by Connect. It is never modified, a running
// request keeps using the instance it started with.
type httpConnection struct {
	serverURLs []*url.URL
	client     *http.Client
	retryCount int
	timeout    time.Duration
	stop       chan struct{} // closed by Close
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	parsedURLs := make([]*url.URL, len(config.Endpoints))
	for i, server := range config.Endpoints {
		parsedURL, err := url.Parse(server)
		if err != nil {
			return err
		}
		parsedURLs[i] = parsedURL
	}

	connsPerHost := config.ConnectionsPerEndpoint
	if connsPerHost < 1 {
		connsPerHost = 10
	}

	conn := &httpConnection{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: connsPerHost,
				IdleConnTimeout:     config.Timeout(),
			},
		},
		serverURLs: parsedURLs,
		retryCount: config.RetryCount,
		timeout:    config.Timeout(),
		stop:       make(chan struct{}),
	}
	t.counter.Store(0)
	if old := t.conn.Swap(conn); old != nil {
		old.close()
	}

	return nil
}

func (t *httpClientTransport) Send(shardId uint64, req []byte) *future.Future[[]byte] {
	conn := t.conn.Load()
	if conn == nil {
		return future.Failed[[]byte](errClosed)
	}

	requestID, f, abort := t.requests.Start()

	// cancelling the future or closing the transport cancels the http request
	// through its context
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-abort:
			cancel()
		case <-conn.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		defer cancel()
		data, err := t.do(ctx, conn, shardId, req)
		t.requests.Finish(requestID, f, data, err)
	}()

	return f
}

func (t *httpClientTransport) Close() error {
	if conn := t.conn.Swap(nil); conn != nil {
		conn.close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (c *httpConnection) close() {
	close(c.stop)
	c.client.CloseIdleConnections()
}

func (c *httpConnection) closed() bool {
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

// do sends the request to the next server (round-robin), retrying on errors
func (t *httpClientTransport) do(ctx context.Context, conn *httpConnection, shardId uint64, req []byte) ([]byte, error) {
	attempts := max(conn.retryCount, 1)

	var lastErr error
	backoffMs := 50
	for i := 0; i < attempts; i++ {
		if conn.closed() {
			return nil, errClosed
		}

		idx := t.counter.Add(1) % uint32(len(conn.serverURLs))
		requestURL := fmt.Sprintf("%s/%v", conn.serverURLs[idx].String(), shardId)

		data, err := conn.post(ctx, requestURL, req)
		if err == nil {
			return data, nil
		}
		if conn.closed() {
			return nil, errClosed
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if i < attempts-1 {
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			select {
			case <-time.After(time.Duration(jitter) * time.Millisecond):
			case <-conn.stop:
				return nil, errClosed
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoffMs *= 2
		}
	}
	return nil, fmt.Errorf("failed to send request after %d attempts: %w", attempts, lastErr)
}

// post performs a single http round trip
func (c *httpConnection) post(ctx context.Context, requestURL string, req []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(req))
	if err != nil {
		return nil, err
	}

	httpResponse, err := c.client.Do(httpRequest)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error: %s", httpResponse.Status)
	}

	return io.ReadAll(httpResponse.Body)
}
