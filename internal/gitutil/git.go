// Package gitutil wraps the git CLI with the small set of operations the
// workspace manager needs to reset a checkout to a known commit. Authored
// fresh: backend/internal/task/runner.go calls a gitutil package
// (Fetch/CreateBranch/CheckoutBranch/MaxBranchSeqNum) that isn't itself
// present in the retrieved pack, so this package follows the calling
// conventions observed at those call sites — ctx and dir as the leading
// parameters, errors wrapped with the git subcommand that failed, no
// internal retries (the caller applies its own timeout via ctx).
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// run executes git with the given args rooted at dir and returns trimmed
// stdout, wrapping stderr into the error on failure.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...) //nolint:gosec // args are not user-controlled.
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Clone clones url into dir.
func Clone(ctx context.Context, url, dir string) error {
	_, err := run(ctx, "", "clone", url, dir)
	return err
}

// Fetch fetches from origin so that origin/<base> refs are current.
func Fetch(ctx context.Context, dir string) error {
	_, err := run(ctx, dir, "fetch", "origin")
	return err
}

// CheckoutBranch checks out an existing local branch.
func CheckoutBranch(ctx context.Context, dir, branch string) error {
	_, err := run(ctx, dir, "checkout", branch)
	return err
}

// CreateBranch creates branch at startPoint and checks it out.
func CreateBranch(ctx context.Context, dir, branch, startPoint string) error {
	_, err := run(ctx, dir, "checkout", "-b", branch, startPoint)
	return err
}

// RestoreAll discards unstaged modifications to tracked files.
func RestoreAll(ctx context.Context, dir string) error {
	_, err := run(ctx, dir, "restore", ".")
	return err
}

// ResetHard moves HEAD and the working tree to commit, discarding any
// staged or committed work since.
func ResetHard(ctx context.Context, dir, commit string) error {
	_, err := run(ctx, dir, "reset", "--hard", commit)
	return err
}

// CleanAll removes untracked and ignored files, mirroring `git clean -fdxq`.
func CleanAll(ctx context.Context, dir string) error {
	_, err := run(ctx, dir, "clean", "-fdxq")
	return err
}

// ApplyPatch applies a unified diff, read from patch, to the working tree.
func ApplyPatch(ctx context.Context, dir, patch string) error {
	cmd := exec.CommandContext(ctx, "git", "apply", "-") //nolint:gosec // fixed argv, patch body goes over stdin.
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(patch)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git apply: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// CurrentCommit returns the full SHA of HEAD.
func CurrentCommit(ctx context.Context, dir string) (string, error) {
	return run(ctx, dir, "rev-parse", "HEAD")
}

// MaxBranchSeqNum scans local branches named prefix+"<N>" and returns the
// highest N found, or -1 if none exist.
func MaxBranchSeqNum(ctx context.Context, dir, prefix string) (int, error) {
	out, err := run(ctx, dir, "for-each-ref", "--format=%(refname:short)", "refs/heads/"+prefix+"*")
	if err != nil {
		return -1, err
	}
	highest := -1
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		suffix := strings.TrimPrefix(line, prefix)
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}
