package history

import (
	"strings"
	"testing"

	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

func userMsg(content string) trajectory.Message {
	return trajectory.Message{Role: trajectory.RoleUser, Content: content}
}

func TestDefaultProcessorPassesThrough(t *testing.T) {
	in := []trajectory.Message{userMsg("a"), {Role: trajectory.RoleAssistant, Content: "b"}}
	out := DefaultProcessor(in)
	if len(out) != 2 || out[0].Content != "a" || out[1].Content != "b" {
		t.Errorf("out = %+v", out)
	}
}

func TestLastNProcessorKeepsFirstAndLastN(t *testing.T) {
	history := []trajectory.Message{
		{Role: trajectory.RoleSystem, Content: "sys"},
		userMsg("first user turn"),
		{Role: trajectory.RoleAssistant, Content: "reply 1"},
		userMsg("second user turn"),
		{Role: trajectory.RoleAssistant, Content: "reply 2"},
		userMsg("third user turn"),
		{Role: trajectory.RoleAssistant, Content: "reply 3"},
		userMsg("fourth user turn"),
	}

	out := LastNProcessor(2)(history)
	if len(out) != len(history) {
		t.Fatalf("length changed: got %d, want %d", len(out), len(history))
	}

	// idx 1 (first) and idx 3,4 (last two of four) survive intact.
	if out[1].Content != "first user turn" {
		t.Errorf("first user message collapsed: %q", out[1].Content)
	}
	if out[5].Content != "third user turn" {
		t.Errorf("third user message collapsed: %q", out[5].Content)
	}
	if out[7].Content != "fourth user turn" {
		t.Errorf("fourth user message collapsed: %q", out[7].Content)
	}

	// idx 2 (second user turn) is neither first nor in the last two, so it
	// gets collapsed.
	if !strings.HasPrefix(out[3].Content, "Old output omitted") {
		t.Errorf("second user message not collapsed: %q", out[3].Content)
	}

	// Non-user messages are never touched.
	if out[0].Content != "sys" || out[2].Content != "reply 1" {
		t.Errorf("non-user messages mutated: %+v", out[:3])
	}
}

func TestLastNProcessorIgnoresDemoMessages(t *testing.T) {
	history := []trajectory.Message{
		{Role: trajectory.RoleUser, Content: "demo turn", IsDemo: true},
		userMsg("first user turn"),
		userMsg("second user turn"),
	}
	out := LastNProcessor(1)(history)
	if out[0].Content != "demo turn" {
		t.Errorf("demo message altered: %q", out[0].Content)
	}
	// Only one real user turn counts toward userCount, so idx 1 is both
	// first and within the last 1 — it survives.
	if out[1].Content != "first user turn" {
		t.Errorf("first real user message collapsed: %q", out[1].Content)
	}
}

func windowMsg(file string, lines ...string) trajectory.Message {
	var b strings.Builder
	b.WriteString("[File: " + file + " (100 lines total)]\n")
	for i, l := range lines {
		b.WriteString(string(rune('1'+i)) + ":" + l + "\n")
	}
	return userMsg(b.String())
}

func TestClosedWindowProcessorCollapsesStaleWindow(t *testing.T) {
	history := []trajectory.Message{
		windowMsg("x.py", "line one", "line two"),
		{Role: trajectory.RoleAssistant, Content: "scroll down"},
		windowMsg("x.py", "line three", "line four"),
	}

	out := ClosedWindowProcessor(history)
	if len(out) != 3 {
		t.Fatalf("length changed: got %d", len(out))
	}
	// The earlier window for x.py is now stale and collapsed.
	if !strings.Contains(out[0].Content, "Outdated window") {
		t.Errorf("earlier window not collapsed: %q", out[0].Content)
	}
	// The later (most recent) window survives intact.
	if strings.Contains(out[2].Content, "Outdated window") {
		t.Errorf("most recent window wrongly collapsed: %q", out[2].Content)
	}
	if !strings.Contains(out[2].Content, "line three") {
		t.Errorf("most recent window lost its content: %q", out[2].Content)
	}
}

func TestClosedWindowProcessorDistinctFilesUntouched(t *testing.T) {
	history := []trajectory.Message{
		windowMsg("a.py", "content a"),
		windowMsg("b.py", "content b"),
	}
	out := ClosedWindowProcessor(history)
	for i, m := range out {
		if strings.Contains(m.Content, "Outdated window") {
			t.Errorf("message %d for a distinct file wrongly collapsed: %q", i, m.Content)
		}
	}
}

func TestNewProcessorUnknown(t *testing.T) {
	if _, err := NewProcessor("nonexistent", 0); err == nil {
		t.Error("expected error for unknown processor name")
	}
}

func TestNewProcessorLastNDefaultsN(t *testing.T) {
	p, err := NewProcessor("last-n", 0)
	if err != nil {
		t.Fatal(err)
	}
	// n<=0 defaults to 5; smoke-test it doesn't panic on a short history.
	out := p([]trajectory.Message{userMsg("only turn")})
	if len(out) != 1 {
		t.Errorf("out = %+v", out)
	}
}
