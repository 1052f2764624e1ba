package mcp

import (
	"path/filepath"
	"testing"

	"github.com/nvandessel/moideas/internal/store"
)

func TestNewServer_RequiresStore(t *testing.T) {
	if _, err := NewServer(&Config{Name: "test-server", Version: "v1.0.0"}); err == nil {
		t.Fatal("expected error without a result store")
	}
}

func TestNewServer_Defaults(t *testing.T) {
	server, err := NewServer(&Config{
		Name:    "test-server",
		Version: "v1.0.0",
		Store:   store.NewInMemoryStore(),
		Seed:    45,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	if server.runs != 300 {
		t.Errorf("runs = %d, want 300", server.runs)
	}
	if server.workers <= 0 {
		t.Errorf("workers = %d, want positive", server.workers)
	}
	if server.auditLogger != nil {
		t.Error("audit logger should be disabled without AuditDir")
	}
}

func TestNewServer_HasRateLimiters(t *testing.T) {
	server, err := NewServer(&Config{Name: "test-server", Store: store.NewInMemoryStore()})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	for _, tool := range []string{"moideas_simulate", "moideas_presets", "moideas_history"} {
		if _, ok := server.toolLimiters[tool]; !ok {
			t.Errorf("missing rate limiter for %s", tool)
		}
	}
}

func TestServer_CloseTwice(t *testing.T) {
	server, err := NewServer(&Config{
		Name:     "test-server",
		Store:    store.NewInMemoryStore(),
		AuditDir: filepath.Join(t.TempDir(), "audit"),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if err := server.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := server.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}
}
