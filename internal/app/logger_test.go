package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info("index started", map[string]interface{}{"repo": "/work/repo"})
	l.Error("status fetch failed", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var first, second LogEvent
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first line not JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("second line not JSON: %v", err)
	}

	if first.Level != "info" || first.Message != "index started" || first.Fields["repo"] != "/work/repo" {
		t.Fatalf("first event = %+v", first)
	}
	if second.Level != "error" || second.Message != "status fetch failed" {
		t.Fatalf("second event = %+v", second)
	}
	if first.Timestamp == "" {
		t.Fatal("missing timestamp")
	}
}
