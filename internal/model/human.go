package model

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

// HumanBackend prompts an operator on stdin for each turn's reply, echoing
// the last observation to stdout first. It recognizes a heredoc sentinel
// ("<<<EOF" ... "EOF") so multi-line edits can be typed interactively,
// mirroring a Codex-style backend treating a configured sentinel line
// as a frame boundary.
type HumanBackend struct {
	in  *bufio.Reader
	out io.Writer
}

// NewHumanBackend wraps the given reader/writer pair (normally stdin/stdout).
func NewHumanBackend(in io.Reader, out io.Writer) *HumanBackend {
	return &HumanBackend{in: bufio.NewReader(in), out: out}
}

const humanHeredocSentinel = "<<<EOF"

// Query prints the last observation and reads the operator's reply, which
// may be a single line or a "<<<EOF" ... "EOF" block.
func (b *HumanBackend) Query(ctx context.Context, history []trajectory.Message) (string, error) {
	if len(history) > 0 {
		fmt.Fprintln(b.out, history[len(history)-1].Content)
	}
	fmt.Fprint(b.out, "> ")

	line, err := b.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = strings.TrimRight(line, "\n")
	if strings.TrimSpace(line) != humanHeredocSentinel {
		return line, nil
	}

	var b2 strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		next, err := b.in.ReadString('\n')
		trimmed := strings.TrimRight(next, "\n")
		if trimmed == "EOF" {
			break
		}
		b2.WriteString(trimmed)
		b2.WriteString("\n")
		if err != nil {
			break
		}
	}
	return b2.String(), nil
}
