package model

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

func TestHumanBackendSingleLine(t *testing.T) {
	in := strings.NewReader("ls -l\n")
	var out bytes.Buffer
	b := NewHumanBackend(in, &out)

	got, err := b.Query(context.Background(), []trajectory.Message{{Role: trajectory.RoleUser, Content: "what next?"}})
	if err != nil {
		t.Fatal(err)
	}
	if got != "ls -l" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(out.String(), "what next?") {
		t.Errorf("observation not echoed: %q", out.String())
	}
}

func TestHumanBackendHeredoc(t *testing.T) {
	in := strings.NewReader("<<<EOF\nline one\nline two\nEOF\n")
	var out bytes.Buffer
	b := NewHumanBackend(in, &out)

	got, err := b.Query(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "line one\nline two\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
