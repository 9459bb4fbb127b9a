package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestReplayBackendSequence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.jsonl")
	content := `{"episode_1": ["ls -l", "cat x.py", "submit"]}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := NewReplayBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ls -l", "cat x.py", "submit"}
	for i, w := range want {
		got, err := b.Query(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("step %d: got %q, want %q", i, got, w)
		}
	}
}

func TestReplayBackendLoops(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.jsonl")
	if err := os.WriteFile(path, []byte(`{"e": ["a", "b"]}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := NewReplayBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := b.Query(context.Background(), nil); err != nil {
			t.Fatal(err)
		}
	}
	got, err := b.Query(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "b" {
		t.Errorf("got %q, want loop back to %q", got, "b")
	}
}

func TestReplayBackendMissingFile(t *testing.T) {
	if _, err := NewReplayBackend("/nonexistent/path.jsonl"); err == nil {
		t.Error("expected error for missing replay file")
	}
}
