// Package history renders the prompt templates shown to the model and
// post-processes the accumulated conversation history before each query,
// grounded on original_source/swe_agent/swe_agent/processor/
// {history_processor,last_n_history_processors,
// closed_window_history_processor}.py.
package history

import (
	"fmt"
	"regexp"

	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

// Processor transforms the accumulated history before it is sent to the
// model, e.g. to collapse stale file windows or omit old observations.
type Processor func(history []trajectory.Message) []trajectory.Message

// processorFactories is the name -> constructor registry, the Go substitute
// for HistoryProcessorMeta's auto-registering metaclass (REDESIGN FLAGS: no
// metaclass equivalent in Go).
var processorFactories = map[string]func(n int) Processor{
	"default": func(int) Processor { return DefaultProcessor },
	"last-n": func(n int) Processor {
		if n <= 0 {
			n = 5
		}
		return LastNProcessor(n)
	},
	"closed-window": func(int) Processor { return ClosedWindowProcessor },
}

// NewProcessor resolves a Processor by name. n is only meaningful for
// "last-n"; it is ignored by the other variants, mirroring
// HistoryProcessor.get(name, *args, **kwargs).
func NewProcessor(name string, n int) (Processor, error) {
	factory, ok := processorFactories[name]
	if !ok {
		return nil, fmt.Errorf("history: processor %q not found", name)
	}
	return factory(n), nil
}

// DefaultProcessor passes history through unchanged, mirroring
// DefaultHistoryProcessor.
func DefaultProcessor(history []trajectory.Message) []trajectory.Message {
	return history
}

// LastNProcessor keeps the first user message and the last n user messages
// (and every non-user or demo message) intact, collapsing every other user
// message's content to a one-line summary, mirroring
// LastNHistoryProcessor.last_n_history.
func LastNProcessor(n int) Processor {
	return func(history []trajectory.Message) []trajectory.Message {
		userCount := 0
		for _, m := range history {
			if m.Role == trajectory.RoleUser && !m.IsDemo {
				userCount++
			}
		}
		out := make([]trajectory.Message, 0, len(history))
		idx := 0
		for _, m := range history {
			if m.Role != trajectory.RoleUser || m.IsDemo {
				out = append(out, m)
				continue
			}
			idx++
			if idx == 1 || idx > userCount-n {
				out = append(out, m)
				continue
			}
			collapsed := m
			collapsed.Content = fmt.Sprintf("Old output omitted (%d lines)", countLines(m.Content))
			out = append(out, collapsed)
		}
		return out
	}
}

var (
	lineMarkerPattern = regexp.MustCompile(`(?m)^(\d+):.*?(\n|$)`)
	fileHeaderPattern = regexp.MustCompile(`\[File:\s+(.*?)\s+\(\d+\s+lines total\)\]`)
)

// ClosedWindowProcessor keeps only the most-recently-shown rendered window
// for each file intact, collapsing every earlier window for the same file
// to a one-line summary, mirroring ClosedWindowHistoryProcessor.__call__
// (which walks history in reverse to find "most recent" per file).
func ClosedWindowProcessor(history []trajectory.Message) []trajectory.Message {
	reversed := make([]trajectory.Message, 0, len(history))
	seen := make(map[string]bool)
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Role != trajectory.RoleUser || m.IsDemo {
			reversed = append(reversed, m)
			continue
		}
		matches := lineMarkerPattern.FindAllStringIndex(m.Content, -1)
		if len(matches) == 0 {
			reversed = append(reversed, m)
			continue
		}
		fileMatch := fileHeaderPattern.FindStringSubmatch(m.Content)
		if fileMatch == nil {
			reversed = append(reversed, m)
			continue
		}
		file := fileMatch[1]
		if seen[file] {
			start := matches[0][0]
			end := matches[len(matches)-1][1]
			m.Content = m.Content[:start] + fmt.Sprintf("Outdated window with %d lines omitted...\n", len(matches)) + m.Content[end:]
		}
		seen[file] = true
		reversed = append(reversed, m)
	}
	out := make([]trajectory.Message, len(reversed))
	for i, m := range reversed {
		out[len(reversed)-1-i] = m
	}
	return out
}

func countLines(s string) int {
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
