package zcached_test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	zcached "github.com/zcached/zcached-go"
)

// startServer binds an ephemeral TCP port and runs Serve in the background,
// the way the teacher's examples/tcp_test.go drives a real listener instead
// of net.Pipe for end-to-end coverage.
func startServer(t *testing.T, opts ...zcached.Option) (addr string, shutdown func()) {
	t.Helper()
	return startServerTB(t, opts...)
}

// startServerTB is the testing.TB-generic core so benchmarks can reuse it.
func startServerTB(tb testing.TB, opts ...zcached.Option) (addr string, shutdown func()) {
	tb.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("listen: %v", err)
	}
	srv := zcached.NewServer(nil, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	return ln.Addr().String(), func() {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutCancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			tb.Errorf("shutdown: %v", err)
		}
		cancel()
		<-errCh
	}
}

func TestServer_GetSetDeleteFlushRoundTrip(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	c, err := zcached.Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if resp, err := c.Get("k"); err != nil || resp.HasValue {
		t.Fatalf("expected miss, got %+v, %v", resp, err)
	}
	if _, err := c.Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	resp, err := c.Get("k")
	if err != nil || !resp.HasValue || resp.Value != "v" {
		t.Fatalf("expected hit v, got %+v, %v", resp, err)
	}
	if _, err := c.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp, err := c.Get("k"); err != nil || resp.HasValue {
		t.Fatalf("expected miss after delete, got %+v, %v", resp, err)
	}
	if _, err := c.Set("a", "1"); err != nil {
		t.Fatalf("set a: %v", err)
	}
	if _, err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if resp, err := c.Get("a"); err != nil || resp.HasValue {
		t.Fatalf("expected miss after flush, got %+v, %v", resp, err)
	}
}

// TestServer_S6_TwoConnectionsDisjointKeys exercises spec scenario S6: two
// clients on separate connections hammer disjoint key ranges concurrently,
// and every write must be visible when read back on the connection that
// wrote it.
func TestServer_S6_TwoConnectionsDisjointKeys(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()

	const n = 1000
	var wg sync.WaitGroup
	wg.Add(2)

	run := func(prefix string) {
		defer wg.Done()
		c, err := zcached.Dial(addr)
		if err != nil {
			t.Errorf("dial: %v", err)
			return
		}
		defer c.Close()
		for i := 0; i < n; i++ {
			key := fmt.Sprintf("%s-%d", prefix, i)
			if _, err := c.Set(key, key); err != nil {
				t.Errorf("set %s: %v", key, err)
				return
			}
		}
		for i := 0; i < n; i++ {
			key := fmt.Sprintf("%s-%d", prefix, i)
			resp, err := c.Get(key)
			if err != nil || !resp.HasValue || resp.Value != key {
				t.Errorf("get %s: got %+v, %v", key, resp, err)
				return
			}
		}
	}

	go run("left")
	go run("right")
	wg.Wait()
}

func TestServer_AddrReflectsBoundPort(t *testing.T) {
	addr, shutdown := startServer(t)
	defer shutdown()
	if addr == "" {
		t.Fatal("expected non-empty bound address")
	}
}
