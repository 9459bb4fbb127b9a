package agentloop

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/swe-agent-go/sweagent/internal/command"
	"github.com/swe-agent-go/sweagent/internal/sandbox"
	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

// dispatch splits the action into envelopes
// and run each. It returns a non-empty terminal only for early_exit (an
// unrecoverable sandbox failure); every other path produces an observation
// to record and keep going.
func (a *Agent) dispatch(ctx context.Context, action string) (observation, submission string, done bool, terminal trajectory.ExitStatus, err error) {
	envs, serr := a.Registry.Split(action, a.Name)
	if serr != nil {
		// Preamble/unregistered text is forwarded whole as a shell command
		// under the current agent.
		return a.sendShell(ctx, action)
	}

	var parts []string
	for _, env := range envs {
		obs, sub, fin, dterm, derr := a.dispatchEnvelope(ctx, env)
		if derr != nil {
			return "", "", false, "", derr
		}
		if dterm != "" {
			return "", "", false, dterm, nil
		}
		parts = append(parts, obs)
		if fin {
			done = true
			submission = sub
		}
	}
	return strings.Join(parts, "\n"), submission, done, "", nil
}

// dispatchEnvelope runs one split-out invocation: a subroutine call if its
// Agent tag names a known subroutine, the native editor surface for the
// built-in actions, or a raw shell command through the channel.
func (a *Agent) dispatchEnvelope(ctx context.Context, env command.Envelope) (observation, submission string, done bool, terminal trajectory.ExitStatus, err error) {
	if env.Agent != a.Name {
		obs, serr := a.runSubroutine(ctx, env)
		if serr != nil {
			return "", "", false, "", serr
		}
		return obs, "", false, "", nil
	}

	fields := strings.Fields(env.Raw)
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	switch env.Command {
	case "open_file":
		line := 0
		if s := arg(2); s != "" {
			line, _ = strconv.Atoi(s)
		}
		_ = a.Editor.OpenFile(arg(1), line)
		return a.Editor.LastActionReturn, "", false, "", nil
	case "goto_line":
		line, _ := strconv.Atoi(arg(1))
		_ = a.Editor.GotoLine(line)
		return a.Editor.LastActionReturn, "", false, "", nil
	case "scroll_up":
		_ = a.Editor.Scroll(true)
		return a.Editor.LastActionReturn, "", false, "", nil
	case "scroll_down":
		_ = a.Editor.Scroll(false)
		return a.Editor.LastActionReturn, "", false, "", nil
	case "create_file":
		_ = a.Editor.CreateFile(arg(1))
		return a.Editor.LastActionReturn, "", false, "", nil
	case "edit_linting":
		start, end, body, perr := parseEditLinting(env.Raw)
		if perr != nil {
			return perr.Error(), "", false, "", nil
		}
		_ = a.Editor.EditLines(start, end, body, a.Linter)
		return a.Editor.LastActionReturn, "", false, "", nil
	case "find_file":
		out, _ := a.Editor.FindFile(arg(1), arg(2))
		return out, "", false, "", nil
	case "search_file":
		out, _ := a.Editor.SearchFile(arg(1), arg(2))
		return out, "", false, "", nil
	case "search_dir":
		out, _ := a.Editor.SearchDir(arg(1), arg(2))
		return out, "", false, "", nil
	case "ls":
		out, _ := a.Editor.Ls()
		return out, "", false, "", nil
	case "cd":
		_ = a.Editor.Cd(arg(1))
		return a.Editor.LastActionReturn, "", false, "", nil
	case "submit":
		return a.sendShell(ctx, "submit")
	default:
		endMarker := a.Registry.EndMarkers()[env.Command]
		return a.sendShell(ctx, command.Heredocify(env.Raw, endMarker))
	}
}

// sendShell runs raw through the sandbox channel, handling the
// timeout-then-interrupt policy (a timeout during a command
// triggers one interrupt attempt; failure to interrupt resets the
// container and yields early_exit) and submit-sentinel detection.
func (a *Agent) sendShell(ctx context.Context, raw string) (observation, submission string, done bool, terminal trajectory.ExitStatus, err error) {
	out, _, serr := a.Channel.Send(ctx, raw, a.CommandTimeout)
	if serr != nil {
		if !errors.Is(serr, sandbox.ErrTimeout) {
			return "", "", false, "", fmt.Errorf("agentloop: sandbox send: %w", serr)
		}
		if ierr := a.Channel.Interrupt(ctx); ierr != nil {
			return "", "", false, trajectory.ExitEarly, nil
		}
		return "EXECUTION TIMED OUT", "", false, "", nil
	}
	if diff, ok := extractSubmission(out); ok {
		return out, diff, true, "", nil
	}
	return out, "", false, "", nil
}

// parseEditLinting splits an edit_linting envelope's raw text
// "edit_linting <start>:<end>\n<body lines...>\nend_of_edit" into its
// 1-based inclusive range and replacement body.
func parseEditLinting(raw string) (start, end int, body []string, err error) {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return 0, 0, nil, fmt.Errorf("edit_linting: missing replacement body")
	}
	fields := strings.Fields(lines[0])
	if len(fields) < 2 {
		return 0, 0, nil, fmt.Errorf("edit_linting: missing <start_line>:<end_line>")
	}
	rangeParts := strings.SplitN(fields[1], ":", 2)
	if len(rangeParts) != 2 {
		return 0, 0, nil, fmt.Errorf("edit_linting: invalid range %q", fields[1])
	}
	start, err = strconv.Atoi(rangeParts[0])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("edit_linting: invalid start_line %q", rangeParts[0])
	}
	end, err = strconv.Atoi(rangeParts[1])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("edit_linting: invalid end_line %q", rangeParts[1])
	}
	body = lines[1 : len(lines)-1]
	return start, end, body, nil
}
