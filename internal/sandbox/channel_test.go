package sandbox

import (
	"context"
	"io"
	"testing"
	"time"
)

func TestParsePIDs(t *testing.T) {
	out := "  123 bash\n  456 ps\n  789 sleep\n"
	got := parsePIDs(out)
	if !got["123"] || !got["789"] {
		t.Errorf("expected 123 and 789 present, got %v", got)
	}
	if got["456"] {
		t.Errorf("ps invocation itself must be excluded: %v", got)
	}
	if len(got) != 2 {
		t.Errorf("got %d pids, want 2: %v", len(got), got)
	}
}

type discardWriteCloser struct{ io.Writer }

func (discardWriteCloser) Close() error { return nil }

// newFakeChannel builds a Channel with no real container/docker dependency;
// listPIDsFn is scripted by the caller to drive the idle-detection loop.
func newFakeChannel(listPIDs func(ctx context.Context, container string) (map[string]bool, error)) *Channel {
	return &Channel{
		container:  "fake",
		stdin:      discardWriteCloser{io.Discard},
		buf:        &streamBuffer{},
		parent:     map[string]bool{"1": true},
		listPIDsFn: listPIDs,
		killPIDFn:  func(ctx context.Context, container, pid string) error { return nil },
	}
}

// TestSendWaitsForProcessTableNotPipe exercises that idle
// detection inspects the process table, not the pipe. The fake lister
// reports one busy round before going idle; the output only becomes
// visible in the buffer once idle is reached, simulating that a naive
// EOF-based reader would have returned prematurely or hung.
func TestSendWaitsForProcessTableNotPipe(t *testing.T) {
	calls := 0
	c := newFakeChannel(func(ctx context.Context, container string) (map[string]bool, error) {
		calls++
		if calls <= 2 {
			// Command still running (pid 2 is a non-parent descendant).
			return map[string]bool{"1": true, "2": true}, nil
		}
		// Shell has gone idle; now it's safe to drain the buffer.
		return map[string]bool{"1": true}, nil
	})

	// Seed the buffer as if the async reader goroutine had already
	// delivered the command's output by the time the shell goes idle.
	c.buf.b.WriteString("hello\n")

	out, err := c.readUntilIdle(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("readUntilIdle: %v", err)
	}
	if out != "hello\n" {
		t.Errorf("got %q, want %q", out, "hello\n")
	}
	if calls < 3 {
		t.Errorf("expected at least one busy poll before idle, got %d calls", calls)
	}
}

func TestSendParsesExitCode(t *testing.T) {
	calls := 0
	c := newFakeChannel(func(ctx context.Context, container string) (map[string]bool, error) {
		calls++
		if calls == 2 {
			// By the time the exit-code probe is polled, the shell has
			// produced the trailing "echo $?" line.
			c.buf.b.WriteString("0\n")
		}
		return map[string]bool{"1": true}, nil
	})

	_, code, err := c.send(context.Background(), "true", time.Second)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if code != 0 {
		t.Errorf("got exit code %d, want 0", code)
	}
}

func TestSendCrashedContainerNonDigitExitCode(t *testing.T) {
	calls := 0
	c := newFakeChannel(func(ctx context.Context, container string) (map[string]bool, error) {
		calls++
		if calls == 2 {
			c.buf.b.WriteString("not-a-number\n")
		}
		return map[string]bool{"1": true}, nil
	})

	_, _, err := c.send(context.Background(), "true", time.Second)
	if err == nil {
		t.Fatal("expected error for non-digit exit code")
	}
	if !c.Broken() {
		t.Error("channel should be marked broken after a crashed exit-code read")
	}
}

func TestSendRejectsOnBrokenChannel(t *testing.T) {
	c := newFakeChannel(func(ctx context.Context, container string) (map[string]bool, error) {
		return map[string]bool{"1": true}, nil
	})
	c.broken = true

	_, _, err := c.Send(context.Background(), "ls", time.Second)
	if err == nil {
		t.Fatal("expected error when channel is broken")
	}
}

func TestSendExitShortCircuits(t *testing.T) {
	c := newFakeChannel(func(ctx context.Context, container string) (map[string]bool, error) {
		return map[string]bool{"1": true}, nil
	})

	out, code, err := c.Send(context.Background(), "exit", time.Second)
	if err != nil || out != "" || code != 0 {
		t.Errorf("got (%q, %d, %v), want (\"\", 0, nil)", out, code, err)
	}
}
