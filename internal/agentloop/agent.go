// Package agentloop implements the turn-based state machine (C7) that
// drives one task from its first prompt to a terminal exit status, tying
// together the editor (C3), command registry (C4), model client (C5),
// history processor (C6) and sandbox channel (C1). Grounded end-to-end on
// original_source/swe_agent/swe_agent/agent/agents.py's Agent.run /
// run_model_and_append_to_history / run_model_with_error_correction.
package agentloop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/swe-agent-go/sweagent/internal/command"
	"github.com/swe-agent-go/sweagent/internal/config"
	"github.com/swe-agent-go/sweagent/internal/editor"
	"github.com/swe-agent-go/sweagent/internal/history"
	"github.com/swe-agent-go/sweagent/internal/model"
	"github.com/swe-agent-go/sweagent/internal/trajectory"
	"github.com/swe-agent-go/sweagent/internal/workspace"
)

// maxParseAttempts bounds the combined format+blocklist retry budget for a
// single turn (capped at two attempts total).
const maxParseAttempts = 2

// maxSubroutineDepth guards the synchronous recursive subroutine call
// against runaway nesting, standing in for the original's coroutine
// scheduler (REDESIGN FLAGS: "no real coroutines required").
const maxSubroutineDepth = 8

// Channel is the subset of sandbox.Channel the loop depends on, kept as a
// local interface so tests can fake the sandbox without a Docker daemon —
// the same small-interface-for-testability idiom sandbox.Channel itself
// uses for listPIDsFn/killPIDFn.
type Channel interface {
	Send(ctx context.Context, command string, timeout time.Duration) (string, int, error)
	Interrupt(ctx context.Context) error
	Broken() bool
}

// Outcome is this turn's verdict: Status is empty to keep looping, or one
// of trajectory's exit-status constants to terminate the run (REDESIGN
// FLAGS: "a TurnOutcome sum type with recoverable / terminal / auto-submit
// variants" — recoverable is the zero Outcome, auto-submit is folded into
// the terminal Status by autoSubmit).
type Outcome struct {
	Status     trajectory.ExitStatus
	Submission *string
}

// Agent is one running instance of the loop: either the primary agent for a
// task or a child spawned for a subroutine call.
type Agent struct {
	Name     string
	Config   *config.Agent
	Registry *command.Registry
	Parser   command.Parser
	Editor   *editor.State
	Channel  Channel
	Model    model.Backend
	Ledger   *trajectory.Ledger
	Processor history.Processor
	Writer   *trajectory.Writer
	Linter   editor.Linter

	// CommandTimeout bounds every channel Send issued by the loop
	// (25s for normal commands, 500s for setup).
	CommandTimeout time.Duration

	// Subroutines maps a SubroutineSpec.Name to a ready-to-run child
	// Agent, pre-built by the caller (cmd/swe-agent loads each
	// agent_file once at startup and constructs its Agent there) so this
	// package never does config/file IO of its own.
	Subroutines map[string]*Agent

	History []trajectory.Message

	task            workspace.Task
	lastObservation string
	lastStep        trajectory.Step
	depth           int
}

// NewAgent wires a freshly loaded config.Agent onto a command.Registry —
// applying its blocklist/blocklist_standalone (command.NewRegistry only
// seeds its own hardcoded defaults, the two-set policy is
// otherwise operator-configurable) and resolving its configured reply
// parser — and returns a ready-to-run Agent.
func NewAgent(name string, cfg *config.Agent, registry *command.Registry, ed *editor.State, ch Channel, backend model.Backend, ledger *trajectory.Ledger, proc history.Processor, writer *trajectory.Writer, linter editor.Linter, cmdTimeout time.Duration) (*Agent, error) {
	if len(cfg.Blocklist) > 0 {
		registry.BlockPrefix = cfg.Blocklist
	}
	if len(cfg.BlocklistStandalone) > 0 {
		registry.BlockStandalone = cfg.BlocklistStandalone
	}
	parser, err := command.NewParser(cfg.ParseFunction)
	if err != nil {
		return nil, fmt.Errorf("agentloop: resolving reply parser: %w", err)
	}
	return &Agent{
		Name:           name,
		Config:         cfg,
		Registry:       registry,
		Parser:         parser,
		Editor:         ed,
		Channel:        ch,
		Model:          backend,
		Ledger:         ledger,
		Processor:      proc,
		Writer:         writer,
		Linter:         linter,
		CommandTimeout: cmdTimeout,
		Subroutines:    map[string]*Agent{},
	}, nil
}

// templateVars builds the placeholder set every template may draw from:
// task fields, the command catalogue docs, the probed working directory,
// and the last turn's observation.
func (a *Agent) templateVars(workingDir, observation string) map[string]string {
	return map[string]string{
		"instance_id":       a.task.InstanceID,
		"repo":              a.task.Repo,
		"base_commit":       a.task.BaseCommit,
		"problem_statement": a.task.ProblemStatement,
		"command_docs":      a.Registry.Docs(),
		"working_dir":       workingDir,
		"observation":       observation,
	}
}

// Run drives task through turns until a terminal Outcome is reached,
// returning the trajectory.Info that would be written as the final
// info block.
func (a *Agent) Run(ctx context.Context, task workspace.Task) (trajectory.Info, error) {
	a.task = task
	a.History = append(a.History, trajectory.Message{
		Role:      trajectory.RoleSystem,
		AgentName: a.Name,
		Content:   renderTemplate(a.Config.SystemTemplate, a.templateVars("", "")),
	})

	for {
		outcome, err := a.turn(ctx)
		if err != nil {
			return trajectory.Info{}, err
		}
		if outcome.Status == "" {
			continue
		}
		info := trajectory.Info{
			ExitStatus: outcome.Status,
			Submission: outcome.Submission,
			ModelStats: a.Ledger.Stats(),
		}
		if a.Writer != nil {
			if werr := a.Writer.Finish(info); werr != nil {
				return info, werr
			}
		}
		return info, nil
	}
}

// turn runs exactly one Probe/Prompt/Query/Parse/Dispatch/Record cycle
// returning a non-empty Outcome.Status on any terminal.
func (a *Agent) turn(ctx context.Context) (Outcome, error) {
	workingDir, err := a.probeState(ctx)
	if err != nil {
		return a.autoSubmit(ctx, trajectory.ExitError), nil
	}

	a.appendUserTurn(workingDir)

	reply, thought, action, terminal, err := a.queryAndParse(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if terminal != "" {
		return a.autoSubmit(ctx, terminal), nil
	}
	a.History = append(a.History, trajectory.Message{
		Role:      trajectory.RoleAssistant,
		AgentName: a.Name,
		Content:   reply,
		Thought:   thought,
		Action:    action,
	})

	observation, submission, done, dterminal, err := a.dispatch(ctx, action)
	if err != nil {
		return Outcome{}, err
	}
	if dterminal != "" {
		return Outcome{Status: dterminal}, nil
	}

	a.lastObservation = observation
	step := trajectory.Step{
		Thought:     thought,
		Action:      action,
		Observation: observation,
		Response:    reply,
		State:       trajectory.State{WorkingDir: workingDir},
	}
	a.lastStep = step
	if a.Writer != nil {
		if werr := a.Writer.AppendStep(step, a.History); werr != nil {
			return Outcome{}, werr
		}
	}
	if done {
		sub := submission
		return Outcome{Status: trajectory.ExitSubmitted, Submission: &sub}, nil
	}
	return Outcome{}, nil
}

// probeState runs the built-in state command and extracts working_dir. A
// failure here is fatal and ends the task as an early exit.
func (a *Agent) probeState(ctx context.Context) (string, error) {
	out, _, err := a.Channel.Send(ctx, "state", a.CommandTimeout)
	if err != nil {
		return "", fmt.Errorf("agentloop: probing state: %w", err)
	}
	wd, err := parseStateOutput(out)
	if err != nil {
		return "", fmt.Errorf("agentloop: parsing state output: %w", err)
	}
	return wd, nil
}

// appendUserTurn picks instance/next_step/next_step_no_output by inspecting
// whether this is the first user turn and whether the last observation was
// empty, then appends the rendered message.
func (a *Agent) appendUserTurn(workingDir string) {
	vars := a.templateVars(workingDir, a.lastObservation)
	isFirst := len(a.History) == 1 // only the system message so far

	var tmpl string
	switch {
	case isFirst:
		tmpl = a.Config.InstanceTemplate
	case a.lastObservation == "":
		tmpl = a.Config.NextStepNoOutputTmpl
	default:
		tmpl = a.Config.NextStepTemplate
	}
	a.History = append(a.History, trajectory.Message{
		Role:      trajectory.RoleUser,
		AgentName: a.Name,
		Content:   renderTemplate(tmpl, vars),
	})
}

// blockedErr wraps a BlockedReason corrective message as an error so
// queryAndParse's retry branch can tell it apart from a command.FormatError
// while still sharing the same retry budget (at most two retries, format
// and blocklist combined).
type blockedErr struct{ reason string }

func (e *blockedErr) Error() string { return e.reason }

// queryAndParse runs the query-then-parse-or-retry loop. On success it
// returns the winning reply/thought/action with an
// empty terminal. On exhaustion or a Query error it returns a non-empty
// terminal and no reply. It never writes the malformed intermediate replies
// to a.History — only the final successful assistant message is committed,
// by the caller.
func (a *Agent) queryAndParse(ctx context.Context) (reply, thought, action string, terminal trajectory.ExitStatus, err error) {
	working := append([]trajectory.Message(nil), a.History...)

	for attempt := 1; ; attempt++ {
		toSend := working
		if a.Processor != nil {
			toSend = a.Processor(working)
		}
		r, qerr := a.queryModel(ctx, toSend)
		if qerr != nil {
			return "", "", "", classifyQueryError(qerr), nil
		}

		t, act, perr := a.Parser.Parse(r, a.Registry.Commands)
		if perr == nil {
			if reason := a.Registry.BlockedReason(act); reason != "" {
				perr = &blockedErr{reason: reason}
			}
		}
		if perr == nil {
			return r, t, act, "", nil
		}

		if attempt >= maxParseAttempts {
			return "", "", "", trajectory.ExitFormat, nil
		}

		var be *blockedErr
		var corrective string
		if errors.As(perr, &be) {
			corrective = renderTemplate(a.Config.BlocklistErrorTemplate, map[string]string{"command": be.reason})
		} else {
			corrective = renderTemplate(a.Parser.ErrorTemplate(), map[string]string{"command_docs": a.Registry.Docs()})
		}
		working = append(working, trajectory.Message{Role: trajectory.RoleAssistant, AgentName: a.Name, Content: r})
		working = append(working, trajectory.Message{Role: trajectory.RoleUser, AgentName: a.Name, Content: corrective})
	}
}

// queryModel calls the backend, then folds its per-call token/cost delta
// into the ledger: after every reply the client updates the ledger with
// whatever tokens/cost the backend reports, or zero if it declines to
// report any.
func (a *Agent) queryModel(ctx context.Context, hist []trajectory.Message) (string, error) {
	statser, hasStats := a.Model.(model.Stats)
	var before trajectory.ModelStats
	if hasStats {
		before = statser.Stats()
	}

	reply, err := a.Model.Query(ctx, hist)
	if err != nil {
		return "", err
	}

	var tokensSent, tokensReceived int
	var cost float64
	if hasStats {
		after := statser.Stats()
		tokensSent = after.TokensSent - before.TokensSent
		tokensReceived = after.TokensReceived - before.TokensReceived
		cost = after.InstanceCost - before.InstanceCost
	}
	if cerr := a.Ledger.Call(tokensSent, tokensReceived, cost); cerr != nil {
		return "", cerr
	}
	return reply, nil
}

// classifyQueryError maps a Query error to a terminal exit status, per
// the retry step.
func classifyQueryError(err error) trajectory.ExitStatus {
	switch {
	case errors.Is(err, model.ErrContextWindowExceeded):
		return trajectory.ExitContext
	case errors.Is(err, trajectory.ErrCostLimitExceeded):
		return trajectory.ExitCost
	default:
		return trajectory.ExitAPI
	}
}

// autoSubmit handles an exhaustion terminal:
// attempt one submit to salvage any unsent patch before giving up.
func (a *Agent) autoSubmit(ctx context.Context, terminal trajectory.ExitStatus) Outcome {
	out, _, err := a.Channel.Send(ctx, "submit", a.CommandTimeout)
	if err != nil {
		return Outcome{Status: terminal}
	}
	diff, ok := extractSubmission(out)
	if !ok || diff == "" {
		return Outcome{Status: terminal}
	}
	rewritten := trajectory.ExitStatus(fmt.Sprintf("submitted (%s)", terminal))
	return Outcome{Status: rewritten, Submission: &diff}
}

// parseStateOutput extracts working_dir from the state command's JSON line
// (exactly {\"working_dir\": \"<path>\"}).
func parseStateOutput(out string) (string, error) {
	out = strings.TrimSpace(out)
	const key = `"working_dir"`
	idx := strings.Index(out, key)
	if idx < 0 {
		return "", fmt.Errorf("agentloop: no working_dir key in %q", out)
	}
	rest := out[idx+len(key):]
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, ":")
	rest = strings.TrimSpace(rest)
	var b strings.Builder
	if len(rest) == 0 || rest[0] != '"' {
		return "", fmt.Errorf("agentloop: malformed working_dir value in %q", out)
	}
	for i := 1; i < len(rest); i++ {
		if rest[i] == '"' {
			return b.String(), nil
		}
		b.WriteByte(rest[i])
	}
	return "", fmt.Errorf("agentloop: unterminated working_dir value in %q", out)
}
