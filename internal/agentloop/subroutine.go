package agentloop

import (
	"context"
	"fmt"

	"github.com/swe-agent-go/sweagent/internal/command"
	"github.com/swe-agent-go/sweagent/internal/config"
	"github.com/swe-agent-go/sweagent/internal/editor"
	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

// runSubroutine implements sub-agent subroutines: snapshot
// the parent's cwd/cursor, hand the child a fresh Editor State over the
// same directory and a zeroed ledger sharing the parent's limits, run it to
// completion, restore the parent's cwd/cursor, merge
// the child's ledger, and extend the parent history tagged with the
// child's name.
func (a *Agent) runSubroutine(ctx context.Context, env command.Envelope) (string, error) {
	if a.depth >= maxSubroutineDepth {
		return "", fmt.Errorf("agentloop: subroutine recursion depth %d exceeded", maxSubroutineDepth)
	}
	child, ok := a.Subroutines[env.Command]
	if !ok {
		return "", fmt.Errorf("agentloop: unknown subroutine %q", env.Command)
	}

	var spec config.SubroutineSpec
	for _, s := range a.Config.Subroutines {
		if s.Name == env.Command {
			spec = s
			break
		}
	}

	snapshotDir := a.Editor.CurrentDirectory
	snapshotFile := a.Editor.CurrentFile
	snapshotLine := a.Editor.CurrentLine

	child.depth = a.depth + 1
	child.Editor = editor.New(a.Editor.CurrentDirectory, a.Editor.WindowSize, a.Editor.Overlap)
	child.Channel = a.Channel
	child.Ledger = &trajectory.Ledger{PerInstanceLimit: a.Ledger.PerInstanceLimit, TotalLimit: a.Ledger.TotalLimit}
	if spec.InitObservation != "" {
		child.lastObservation = renderTemplate(spec.InitObservation, map[string]string{"action": env.Raw})
	}

	_, err := child.Run(ctx, a.task)

	a.Editor.CurrentDirectory = snapshotDir
	a.Editor.CurrentFile = snapshotFile
	a.Editor.CurrentLine = snapshotLine

	a.Ledger.Merge(child.Ledger)
	for _, m := range child.History {
		if m.AgentName == "" {
			m.AgentName = child.Name
		}
		a.History = append(a.History, m)
	}

	if err != nil {
		return "", err
	}
	return subroutineReturn(spec.ResolveReturnType(), child.lastStep), nil
}

// subroutineReturn picks the field of the child's final trajectory step
// named by returnType, mirroring AgentSubroutine's return_type selection
// over trajectory[-1].
func subroutineReturn(returnType string, step trajectory.Step) string {
	switch returnType {
	case "action":
		return step.Action
	case "response":
		return step.Response
	case "thought":
		return step.Thought
	case "state":
		return step.State.WorkingDir
	default:
		return step.Observation
	}
}
