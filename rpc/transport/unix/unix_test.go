package unix

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dCMD/rpc/common"
)

// waitForSocket blocks until the server created its socket file
func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("server socket was not created")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestUnixTransportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dcmd.sock")

	srv := NewUnixDefaultServerTransport()
	srv.RegisterHandler(func(shardId uint64, req []byte) []byte {
		return []byte(fmt.Sprintf("%d:%s", shardId, req))
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(common.ServerConfig{Endpoint: path, TimeoutSecond: 5}) }()

	waitForSocket(t, path)

	client := NewUnixClientTransport()
	err := client.Connect(common.ClientConfig{
		Endpoints:              []string{path},
		TimeoutSecond:          5,
		RetryCount:             1,
		ConnectionsPerEndpoint: 2,
	})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := fmt.Sprintf("req-%d", i)
			resp, err := client.Send(uint64(i%3), []byte(req)).GetTimeout(5 * time.Second)
			if err != nil {
				t.Errorf("Send(%d) error = %v", i, err)
				return
			}
			if want := fmt.Sprintf("%d:%s", i%3, req); string(resp) != want {
				t.Errorf("Send(%d) = %q, want %q", i, resp, want)
			}
		}(i)
	}
	wg.Wait()

	_ = client.Close()
	_ = srv.Close()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Listen() returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Errorf("Listen() did not return after Close()")
	}
}

func TestUnixTransportConnectFails(t *testing.T) {
	client := NewUnixClientTransport()
	err := client.Connect(common.ClientConfig{Endpoints: []string{filepath.Join(t.TempDir(), "missing.sock")}})
	if err == nil {
		t.Errorf("Connect() to a missing socket should fail")
	}
}

func TestUnixTransportCloseFailsPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dcmd.sock")

	release := make(chan struct{})
	srv := NewUnixDefaultServerTransport()
	srv.RegisterHandler(func(uint64, []byte) []byte {
		<-release
		return []byte("late")
	})
	go func() { _ = srv.Listen(common.ServerConfig{Endpoint: path, TimeoutSecond: 5}) }()
	defer func() {
		close(release)
		_ = srv.Close()
	}()
	waitForSocket(t, path)

	client := NewUnixClientTransport()
	if err := client.Connect(common.ClientConfig{Endpoints: []string{path}, TimeoutSecond: 30, RetryCount: 3}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	pending := client.Send(1, []byte("x"))
	time.Sleep(20 * time.Millisecond)
	_ = client.Close()

	start := time.Now()
	if _, err := pending.GetTimeout(5 * time.Second); err == nil {
		t.Fatalf("pending request should fail after Close()")
	}
	if waited := time.Since(start); waited > 2*time.Second {
		t.Errorf("pending request failed after %s, want it to fail on Close()", waited)
	}
	if _, err := client.Send(1, []byte("y")).GetTimeout(time.Second); err == nil {
		t.Errorf("Send() after Close() should fail")
	}
}
