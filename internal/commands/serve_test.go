package commands

import (
	"testing"

	"github.com/diogo/finking/internal/config"
)

func TestSelfEndpoint(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":5000", "http://127.0.0.1:5000/api/chat"},
		{"0.0.0.0:8080", "http://127.0.0.1:8080/api/chat"},
		{"[::]:8080", "http://127.0.0.1:8080/api/chat"},
		{"localhost:9000", "http://localhost:9000/api/chat"},
		{"[::1]:9000", "http://[::1]:9000/api/chat"},
		{"not an address", "http://127.0.0.1:5000/api/chat"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := selfEndpoint(tt.addr); got != tt.want {
				t.Errorf("selfEndpoint(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Upstream.APIKey = ""

	srv, err := newServer(cfg)
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}
	if srv.App() == nil || srv.Sessions() == nil {
		t.Fatal("server should be fully wired")
	}
}

func TestServeCommand(t *testing.T) {
	if serveCmd.Flags().Lookup("addr") == nil {
		t.Error("expected --addr flag")
	}
	if serveCmd.Args == nil {
		t.Error("serve should reject positional arguments")
	}
}
