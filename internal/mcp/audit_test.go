package mcp

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAuditLogger_NilSafe(t *testing.T) {
	var a *AuditLogger
	a.Log(AuditEntry{Tool: "moideas_simulate"})
	if err := a.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	a := NewAuditLogger(dir)
	if a == nil {
		t.Fatal("NewAuditLogger returned nil")
	}

	a.Log(AuditEntry{Timestamp: time.Now(), Tool: "moideas_presets", Status: "success"})
	a.Log(AuditEntry{Timestamp: time.Now(), Tool: "moideas_simulate", Status: "error", Error: "boom"})
	if err := a.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	a.Log(AuditEntry{Tool: "after-close"})

	path := filepath.Join(dir, AuditFileName)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat audit log: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("audit log permissions = %o, want 0600", perm)
	}

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var entry AuditEntry
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("invalid JSONL: %v", err)
	}
	if entry.Tool != "moideas_simulate" || entry.Error != "boom" {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestSanitizeToolParams(t *testing.T) {
	seed := int64(9)
	got := sanitizeToolParams(map[string]any{
		"config":   true,
		"runs":     100,
		"seed":     &seed,
		"name":     "",
		"batch_id": "abc",
		"limit":    0,
	})

	want := map[string]string{
		"config":       "(set)",
		"runs":         "100",
		"seed":         "9",
		"batch_id":     "abc",
		"_param_count": "4",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestAuditTool_Status(t *testing.T) {
	server, auditDir := setupTestServer(t)
	server.auditTool("moideas_history", time.Now(), errors.New("nope"), nil)
	server.Close()

	data, _ := os.ReadFile(filepath.Join(auditDir, AuditFileName))
	if !strings.Contains(string(data), `"status":"error"`) {
		t.Errorf("expected error status in %s", data)
	}
}
