package infra

import (
	"net/http"
	"testing"
	"time"
)

func TestNewHTTPServerCoversBatchWait(t *testing.T) {
	cfg := &Config{
		Port:             "9090",
		HTTPWriteTimeout: 30 * time.Second,
		BatchWaitTimeout: 300 * time.Second,
	}
	s := NewHTTPServer(cfg, http.NotFoundHandler())
	if s.Addr() != ":9090" {
		t.Fatalf("Addr = %q", s.Addr())
	}
	if s.server.WriteTimeout != 310*time.Second {
		t.Fatalf("WriteTimeout = %s, want 310s", s.server.WriteTimeout)
	}

	cfg.HTTPWriteTimeout = time.Hour
	if s := NewHTTPServer(cfg, http.NotFoundHandler()); s.server.WriteTimeout != time.Hour {
		t.Fatalf("explicit write timeout not honored: %s", s.server.WriteTimeout)
	}
}
