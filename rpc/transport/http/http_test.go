package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ValentinKolb/dCMD/rpc/common"
)

func newTestServer(t *testing.T, handler func(uint64, []byte) []byte) *httptest.Server {
	t.Helper()
	srv := &httpServerTransport{}
	srv.RegisterHandler(handler)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestHttpTransportRoundTrip(t *testing.T) {
	ts := newTestServer(t, func(shardId uint64, req []byte) []byte {
		return append([]byte{byte(shardId)}, req...)
	})

	client := NewHttpClientTransport()
	if err := client.Connect(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 5, RetryCount: 1}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	resp, err := client.Send(3, []byte("abc")).GetTimeout(5 * time.Second)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(resp) != "\x03abc" {
		t.Errorf("response = %q", resp)
	}
}

func TestHttpTransportCancel(t *testing.T) {
	release := make(chan struct{})
	ts := newTestServer(t, func(uint64, []byte) []byte {
		<-release
		return []byte("late")
	})
	defer close(release)

	client := NewHttpClientTransport()
	_ = client.Connect(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 5, RetryCount: 3})
	defer client.Close()

	f := client.Send(1, []byte("x"))
	if !f.Cancel() {
		t.Fatalf("Cancel() of an unanswered request should succeed")
	}
	if !f.IsCancelled() {
		t.Errorf("future should be cancelled")
	}
}

func TestHttpTransportRejectsBadShard(t *testing.T) {
	ts := newTestServer(t, func(uint64, []byte) []byte { return nil })

	resp, err := ts.Client().Post(ts.URL+"/not-a-number", "application/octet-stream", nil)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHttpTransportClose(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	tests := []struct {
		name  string
		delay time.Duration
	}{
		{"during retry backoff", 20 * time.Millisecond},
		{"right after send", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewHttpClientTransport()
			if err := client.Connect(common.ClientConfig{Endpoints: []string{failing.URL}, TimeoutSecond: 5, RetryCount: 5}); err != nil {
				t.Fatalf("Connect() error = %v", err)
			}

			f := client.Send(1, []byte("x"))
			time.Sleep(tt.delay)
			if err := client.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			if _, err := f.GetTimeout(5 * time.Second); err == nil {
				t.Errorf("expected an error for a request interrupted by Close")
			}
			if _, err := client.Send(1, []byte("y")).GetTimeout(time.Second); err == nil {
				t.Errorf("expected an error sending on a closed transport")
			}
			if err := client.Close(); err != nil {
				t.Errorf("second Close() error = %v", err)
			}
		})
	}
}
