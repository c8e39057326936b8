package local

import (
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

func TestLocalRoundTrip(t *testing.T) {
	defer Register("echo", func(shardId uint64, req []byte) []byte {
		return append([]byte{byte(shardId)}, req...)
	})()

	client := NewLocalClientTransport()
	if err := client.Connect(common.ClientConfig{Endpoints: []string{"echo"}}); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	resp, err := client.Send(7, []byte("hi")).Get()
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(resp) != "\x07hi" {
		t.Errorf("response = %q", resp)
	}
}

func TestLocalUnknownEndpoint(t *testing.T) {
	client := NewLocalClientTransport()
	_ = client.Connect(common.ClientConfig{Endpoints: []string{"nobody"}})
	if _, err := client.Send(1, nil).Get(); err == nil {
		t.Errorf("expected an error for an endpoint without server")
	}
}

func TestLocalCancelWhileHandling(t *testing.T) {
	release := make(chan struct{})
	defer Register("slow", func(uint64, []byte) []byte {
		<-release
		return []byte("done")
	})()

	client := NewLocalClientTransport()
	_ = client.Connect(common.ClientConfig{Endpoints: []string{"slow"}})

	f := client.Send(1, []byte("req"))
	if !f.Cancel() {
		t.Fatalf("Cancel() of an unanswered request should succeed")
	}
	close(release)

	if _, err := f.GetTimeout(time.Second); err != future.ErrCancelled {
		t.Errorf("Get() error = %v, want ErrCancelled", err)
	}
}

func TestLocalServerTransport(t *testing.T) {
	srv := NewLocalServerTransport()
	srv.RegisterHandler(func(uint64, []byte) []byte { return []byte("ok") })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Listen(common.ServerConfig{Endpoint: "node"}); err != nil {
			t.Errorf("Listen() error = %v", err)
		}
	}()

	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := handlers.Load("node"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not register")
		}
		time.Sleep(time.Millisecond)
	}

	_ = srv.Close()
	wg.Wait()
	if _, ok := handlers.Load("node"); ok {
		t.Errorf("handler still registered after Close()")
	}
}
