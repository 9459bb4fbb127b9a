package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swe-agent-go/sweagent/internal/safety"
	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

func newInspectCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "inspect <traj-file>",
		Short: "Print a summary of a recorded .traj file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectTrajectory(args[0], full)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "print every trajectory step instead of just the summary")
	return cmd
}

func inspectTrajectory(path string, full bool) error {
	r, err := openMaybeGzip(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var file trajectory.File
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	fmt.Printf("environment:   %s\n", file.Environment)
	fmt.Printf("steps:         %d\n", len(file.Trajectory))
	fmt.Printf("history:       %d messages\n", len(file.History))
	fmt.Printf("exit_status:   %s\n", file.Info.ExitStatus)
	if file.Info.Submission != nil {
		stat := safety.Stat(*file.Info.Submission)
		added, deleted := safety.TotalLines(stat)
		fmt.Printf("submission:    %d bytes, %d files, +%d/-%d\n", len(*file.Info.Submission), len(stat), added, deleted)
		for _, issue := range safety.ScanPatch(*file.Info.Submission) {
			fmt.Printf("  ! %s: %s (%s)\n", issue.File, issue.Detail, issue.Kind)
		}
	} else {
		fmt.Printf("submission:    <none>\n")
	}
	fmt.Printf("api_calls:     %d\n", file.Info.ModelStats.APICalls)
	fmt.Printf("tokens:        %d sent / %d received\n", file.Info.ModelStats.TokensSent, file.Info.ModelStats.TokensReceived)
	fmt.Printf("instance_cost: %.4f\n", file.Info.ModelStats.InstanceCost)

	if full {
		for i, step := range file.Trajectory {
			fmt.Printf("\n--- step %d ---\n", i+1)
			fmt.Printf("thought: %s\n", step.Thought)
			fmt.Printf("action:  %s\n", step.Action)
			fmt.Printf("obs:     %s\n", truncate(step.Observation, 500))
		}
	}
	return nil
}

// openMaybeGzip transparently opens an archived (.traj.gz, see
// runbatch.go's --archive) or plain .traj file.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied path.
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("reading gzip %s: %w", path, err)
	}
	return struct {
		io.Reader
		io.Closer
	}{gz, closerFunc(func() error {
		gzErr := gz.Close()
		fErr := f.Close()
		if gzErr != nil {
			return gzErr
		}
		return fErr
	})}, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}
