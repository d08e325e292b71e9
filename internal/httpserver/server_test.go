package httpserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestServeStopsOnContextCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := New(0, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, l)
	}()

	resp, err := http.Get("http://" + l.Addr().String() + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("unexpected body %q", body)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestOptionsApply(t *testing.T) {
	srv := New(9090, http.NotFoundHandler(), WithTimeouts(time.Second, 2*time.Second))

	if srv.Addr() != ":9090" {
		t.Fatalf("unexpected addr %q", srv.Addr())
	}
	if srv.inner.ReadTimeout != time.Second || srv.inner.WriteTimeout != 2*time.Second {
		t.Fatalf("timeouts not applied: %v %v", srv.inner.ReadTimeout, srv.inner.WriteTimeout)
	}
}
