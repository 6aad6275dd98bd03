package server

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"photo-roulette/internal/config"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newTestConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.PhotoDir = t.TempDir()
	return cfg
}
