package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewBatchEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Batch, &buf, slog.LevelInfo)
	logger.Info("task started", "repo", "owner/name")

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected valid JSON line, got %q: %v", buf.String(), err)
	}
	if decoded["msg"] != "task started" {
		t.Errorf("msg = %v", decoded["msg"])
	}
	if decoded["repo"] != "owner/name" {
		t.Errorf("repo = %v", decoded["repo"])
	}
}

func TestNewInteractiveNonTerminalWriterStaysPlain(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Interactive, &buf, slog.LevelInfo)
	logger.Info("container ready", "container", "abc123")

	out := buf.String()
	if !strings.Contains(out, "container ready") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "container=abc123") {
		t.Errorf("expected structured key=value pair, got %q", out)
	}
}
