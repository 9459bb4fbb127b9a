package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/swe-agent-go/sweagent/internal/agentloop"
	"github.com/swe-agent-go/sweagent/internal/command"
	"github.com/swe-agent-go/sweagent/internal/config"
	"github.com/swe-agent-go/sweagent/internal/editor"
	"github.com/swe-agent-go/sweagent/internal/history"
	"github.com/swe-agent-go/sweagent/internal/model"
	"github.com/swe-agent-go/sweagent/internal/sandbox"
	"github.com/swe-agent-go/sweagent/internal/trajectory"
	"github.com/swe-agent-go/sweagent/internal/workspace"
)

const (
	defaultWindowSize     = 100
	defaultOverlap        = 2
	defaultCommandTimeout = 25 * time.Second
)

// components bundles everything loaded once per process invocation and
// reused across every task a run or run-batch processes.
type components struct {
	agentCfg *config.Agent
	envCfg   *config.Environment
	model    model.Config
	workDir  string // host root under which task checkouts are created
}

// githubSource is the workspace.RemoteSource used in production: no
// read-through mirror configured, so every clone goes straight to GitHub.
type githubSource struct{}

func (githubSource) MirrorURL(string) string { return "" }

func (githubSource) CanonicalURL(repo string) string {
	return fmt.Sprintf("https://github.com/%s.git", repo)
}

func loadComponents(workDir string) (*components, error) {
	if flags.agentConfig == "" {
		return nil, fmt.Errorf("--agent-config is required")
	}
	agentCfg, err := config.LoadAgent(flags.agentConfig)
	if err != nil {
		return nil, err
	}

	var envCfg *config.Environment
	if flags.envConfig != "" {
		envCfg, err = config.LoadEnvironment(flags.envConfig)
		if err != nil {
			return nil, err
		}
	} else {
		envCfg = &config.Environment{}
		envCfg.Resolve()
	}

	base := model.DefaultConfig(flags.modelName)
	modelCfg := config.ApplyModelFlags(base, flags.modelName, flags.temperature, flags.topP, flags.costLimit, flags.replayPath)
	if flags.totalLimit != 0 {
		modelCfg.TotalCostLimit = flags.totalLimit
	}

	return &components{agentCfg: agentCfg, envCfg: envCfg, model: modelCfg, workDir: workDir}, nil
}

// newRegistry builds the command.Registry for the primary agent: the
// built-in editor/submit catalogue plus anything declared in
// agent_config.command_files.
func newRegistry(cfg *config.Agent) (*command.Registry, error) {
	cmds := agentloop.DefaultCommands()
	if len(cfg.CommandFiles) > 0 {
		extra, err := command.LoadAll(cfg.CommandFiles)
		if err != nil {
			return nil, fmt.Errorf("loading command files: %w", err)
		}
		cmds = append(cmds, extra...)
	}
	return command.NewRegistry(cmds, nil), nil
}

// newChannel starts a fresh sandbox container and installs the shell-side
// state/submit helpers.
func newChannel(ctx context.Context, image string) (*sandbox.Channel, error) {
	ch := sandbox.NewChannel(sandbox.DockerOps{}, image)
	if err := ch.Reset(ctx, "", agentloop.CommandFiles()); err != nil {
		return nil, fmt.Errorf("starting sandbox: %w", err)
	}
	return ch, nil
}

// newBackend selects the model backend per the CLI flags: replay, human,
// or a live maruel/genai provider. systemPrompt is rendered once from the
// agent config's system_template with command_docs substituted (the
// remaining placeholders are task-scoped and only matter to the agent
// loop's own History, not a GenAIBackend's fixed system prompt).
func newBackend(ctx context.Context, systemPrompt string) (model.Backend, error) {
	switch {
	case flags.replayPath != "":
		return model.NewReplayBackend(flags.replayPath)
	case flags.human:
		return model.NewHumanBackend(os.Stdin, os.Stdout), nil
	default:
		return model.NewGenAIBackend(ctx, flags.provider, flags.modelName, systemPrompt)
	}
}

// newLinter wires editor.Flake8Linter to the real flake8 binary: one
// violation line per reported error, matching get_style_guide's
// total_errors count.
func newLinter() editor.Linter {
	return editor.Flake8Linter{Run: runFlake8}
}

func runFlake8(path string, codes []string) (int, error) {
	cmd := exec.Command("flake8", "--select="+strings.Join(codes, ","), path) //nolint:gosec // path is the file the agent just edited, not external input.
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	_ = cmd.Run() // flake8 exits non-zero when it finds violations; that's expected.
	n := 0
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			n++
		}
	}
	return n, nil
}

// renderSystemPrompt substitutes the one placeholder a system template
// needs before backend construction: {command_docs}. Task-specific
// placeholders are resolved later, per turn, by agentloop's own
// templateVars against the rendered history.
func renderSystemPrompt(tmpl string, docs string) string {
	return strings.ReplaceAll(tmpl, "{command_docs}", docs)
}

// buildSubroutines loads and constructs one child Agent per declared
// subroutine, recursively building any subroutines the child itself
// declares. Each child shares the parent's sandbox image and linter but
// gets its own model backend (SubroutineSpec.Model may differ) and command
// registry (its own agent_file's catalogue) — runSubroutine overwrites
// Editor/Channel/Ledger per call, so those are left nil here.
func buildSubroutines(ctx context.Context, specs []config.SubroutineSpec, cmdTimeout time.Duration) (map[string]*agentloop.Agent, error) {
	out := map[string]*agentloop.Agent{}
	for _, spec := range specs {
		childCfg, err := config.LoadAgent(spec.AgentFile)
		if err != nil {
			return nil, fmt.Errorf("subroutine %s: loading %s: %w", spec.Name, spec.AgentFile, err)
		}
		registry, err := newRegistry(childCfg)
		if err != nil {
			return nil, fmt.Errorf("subroutine %s: %w", spec.Name, err)
		}
		systemPrompt := renderSystemPrompt(childCfg.SystemTemplate, registry.Docs())
		modelName := spec.Model
		backend, err := newBackendNamed(ctx, modelName, systemPrompt)
		if err != nil {
			return nil, fmt.Errorf("subroutine %s: model: %w", spec.Name, err)
		}
		childProc, err := history.NewProcessor(childCfg.HistoryProcessor, childCfg.HistoryProcessorArgN)
		if err != nil {
			return nil, fmt.Errorf("subroutine %s: %w", spec.Name, err)
		}
		child, err := agentloop.NewAgent(spec.Name, childCfg, registry, nil, nil, backend, nil, childProc, nil, newLinter(), cmdTimeout)
		if err != nil {
			return nil, fmt.Errorf("subroutine %s: %w", spec.Name, err)
		}
		grandchildren, err := buildSubroutines(ctx, childCfg.Subroutines, cmdTimeout)
		if err != nil {
			return nil, err
		}
		child.Subroutines = grandchildren
		out[spec.Name] = child
	}
	return out, nil
}

// newBackendNamed is newBackend generalized over an explicit model name, for
// subroutines whose SubroutineSpec.Model differs from the primary agent's.
func newBackendNamed(ctx context.Context, modelName, systemPrompt string) (model.Backend, error) {
	switch {
	case flags.replayPath != "":
		return model.NewReplayBackend(flags.replayPath)
	case flags.human:
		return model.NewHumanBackend(os.Stdin, os.Stdout), nil
	default:
		return model.NewGenAIBackend(ctx, flags.provider, modelName, systemPrompt)
	}
}

// buildAgent assembles the primary Agent for one task: resets the
// workspace, starts a sandbox channel, builds the editor/model/linter, and
// wires any declared subroutines.
func (c *components) buildAgent(ctx context.Context, runDir string, task workspace.Task) (*agentloop.Agent, func(), error) {
	mgr := &workspace.Manager{Root: c.workDir, Source: githubSource{}}
	state, err := mgr.Reset(ctx, task)
	if err != nil {
		return nil, nil, fmt.Errorf("resetting workspace: %w", err)
	}

	image := flags.image
	if c.envCfg.ImageName != "" {
		image = c.envCfg.ImageName
	}
	ch, err := newChannel(ctx, image)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = ch.Interrupt(ctx) }

	registry, err := newRegistry(c.agentCfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	ed := editor.New(state.Path, defaultWindowSize, defaultOverlap)

	systemPrompt := renderSystemPrompt(c.agentCfg.SystemTemplate, registry.Docs())
	backend, err := newBackend(ctx, systemPrompt)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	ledger := &trajectory.Ledger{PerInstanceLimit: c.model.PerInstanceCostLim, TotalLimit: c.model.TotalCostLimit}
	writer := trajectory.NewWriter(runDir, task.InstanceID)

	proc, err := history.NewProcessor(c.agentCfg.HistoryProcessor, c.agentCfg.HistoryProcessorArgN)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	cmdTimeout := c.envCfg.CommTimeout()
	if cmdTimeout <= 0 {
		cmdTimeout = defaultCommandTimeout
	}
	a, err := agentloop.NewAgent("primary", c.agentCfg, registry, ed, ch, backend, ledger, proc, writer, newLinter(), cmdTimeout)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	subs, err := buildSubroutines(ctx, c.agentCfg.Subroutines, cmdTimeout)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	a.Subroutines = subs

	return a, cleanup, nil
}
