package infra

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerServesAndShutsDown(t *testing.T) {
	srv := NewHTTPServer(&Config{Port: "0", HTTPReadTimeout: time.Second, HTTPWriteTimeout: time.Second}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	}))
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("server did not listen")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, port, err := net.SplitHostPort(srv.Addr().String())
	if err != nil {
		t.Fatalf("addr: %v", err)
	}
	resp, err := http.Get("http://127.0.0.1:" + port)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body = %q", body)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("Start err = %v", err)
	}
}

func TestHTTPServerListenError(t *testing.T) {
	srv := NewHTTPServer(&Config{Port: "not-a-port"}, http.NotFoundHandler())
	if err := srv.Start(); err == nil {
		t.Fatalf("expected listen error")
	}
}
