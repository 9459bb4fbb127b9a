// Package workspace resets a task's checkout to a known-good state inside
// the sandbox before each run, grounded on backend/internal/task/runner.go's
// Runner.setup (branch/container provisioning) and its gitutil call
// sequence (fetch, reset --hard, checkout), generalized from "set up a
// fresh branch for a coding session" to "reset a checkout to base_commit
// for a benchmark task".
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/swe-agent-go/sweagent/internal/gitutil"
)

// Task carries the read-only fields the Workspace Manager needs from a
// task record, consumed read-only by the workspace reset step.
type Task struct {
	InstanceID       string
	Repo             string // owner/name
	BaseCommit       string
	Patch            string   // optional gold patch, applied when present
	TestPatch        string   // optional test patch, pre-applied for oracle mode
	ProblemStatement string   // the issue text shown to the model as {problem_statement}
	FailToPass       []string // test identifiers that must pass after a correct fix
}

// Recipe declares (without building) a task's runtime environment: an
// interpreter and a dependency manifest. Building it is out of scope; this
// struct only carries what a future executor would need: declare and
// validate rather than execute.
type Recipe struct {
	Interpreter string // e.g. "python3.11"
	Manifest    string // e.g. "requirements.txt" contents or a package list
}

// Validate reports whether the recipe is well-formed enough to act on.
func (r Recipe) Validate() error {
	if r.Interpreter == "" {
		return fmt.Errorf("workspace: recipe missing interpreter")
	}
	return nil
}

// State mirrors a workspace's on-disk state: the checked-out repo's path,
// environment name, installed dependencies, and the editor environment
// variables the in-sandbox helpers read.
type State struct {
	Path          string
	EnvName       string
	Dependencies  []string
	EditorEnvVars map[string]string // CURRENT_FILE, CURRENT_LINE, WINDOW, OVERLAP, ROOT, SEARCH_RESULTS, SEARCH_FILES, SEARCH_INDEX
}

// RemoteSource resolves where to clone a repo from, preferring a
// read-through mirror and falling back to the canonical remote — the same
// "try primary, fall back" shape as container.MD.Start's image-pull retry.
type RemoteSource interface {
	MirrorURL(repo string) string
	CanonicalURL(repo string) string
}

// Manager resets a task's workspace inside a given root directory (the
// sandbox's filesystem root in production; a temp dir in tests).
type Manager struct {
	Root   string // e.g. "/" in the sandbox
	Source RemoteSource
}

// Reset performs the reset sequence: cd "/", clone-if-absent,
// restore, hard-reset to base_commit, clean, zero the editor env vars, and
// optionally pre-apply test_patch for oracle mode. Returns the resulting
// Workspace State.
func (m *Manager) Reset(ctx context.Context, t Task) (*State, error) {
	dir := filepath.Join(m.Root, filepath.Base(t.Repo))

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := m.clone(ctx, t.Repo, dir); err != nil {
			return nil, fmt.Errorf("workspace: clone: %w", err)
		}
	}

	if err := gitutil.RestoreAll(ctx, dir); err != nil {
		return nil, fmt.Errorf("workspace: restore: %w", err)
	}
	if err := gitutil.ResetHard(ctx, dir, t.BaseCommit); err != nil {
		return nil, fmt.Errorf("workspace: reset --hard: %w", err)
	}
	if err := gitutil.CleanAll(ctx, dir); err != nil {
		return nil, fmt.Errorf("workspace: clean: %w", err)
	}

	if t.TestPatch != "" {
		if err := gitutil.ApplyPatch(ctx, dir, t.TestPatch); err != nil {
			return nil, fmt.Errorf("workspace: apply test_patch: %w", err)
		}
	}

	return &State{
		Path: dir,
		EditorEnvVars: map[string]string{
			"CURRENT_FILE":   "",
			"CURRENT_LINE":   "",
			"WINDOW":         "",
			"OVERLAP":        "",
			"ROOT":           dir,
			"SEARCH_RESULTS": "",
			"SEARCH_FILES":   "",
			"SEARCH_INDEX":   "",
		},
	}, nil
}

// clone tries the mirror first, then the canonical remote, matching
// container.MD.Start's "try primary, fall back" error-wrapping style.
func (m *Manager) clone(ctx context.Context, repo, dir string) error {
	if m.Source != nil {
		if mirror := m.Source.MirrorURL(repo); mirror != "" {
			if err := gitutil.Clone(ctx, mirror, dir); err == nil {
				return nil
			}
		}
		return gitutil.Clone(ctx, m.Source.CanonicalURL(repo), dir)
	}
	return fmt.Errorf("workspace: no remote source configured for %s", repo)
}

// BuildRecipe validates r and records it against state without executing
// anything — building the runtime environment is out of core scope.
func (m *Manager) BuildRecipe(state *State, envName string, r Recipe) error {
	if err := r.Validate(); err != nil {
		return err
	}
	state.EnvName = envName
	state.Dependencies = append(state.Dependencies, r.Interpreter)
	return nil
}
