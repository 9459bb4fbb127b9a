package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/swe-agent-go/sweagent/internal/resultsfile"
	"github.com/swe-agent-go/sweagent/internal/safety"
	"github.com/swe-agent-go/sweagent/internal/trajectory"
)

func newRunCmd() *cobra.Command {
	var taskFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent against a single task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskFile == "" {
				return fmt.Errorf("--task is required")
			}
			return runSingle(cmd.Context(), taskFile)
		},
	}
	cmd.Flags().StringVar(&taskFile, "task", "", "path to a single task JSON record (required)")
	return cmd
}

func runSingle(ctx context.Context, taskFile string) error {
	task, err := loadTask(taskFile)
	if err != nil {
		return err
	}

	workDir, err := os.MkdirTemp("", "swe-agent-workspace-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	c, err := loadComponents(workDir)
	if err != nil {
		return err
	}

	runName := runDirName(c.model, c.envCfg, datasetStem(taskFile), configStem(flags.agentConfig), flags.suffix)
	runDir := filepath.Join(flags.trajRoot, runName)

	logger.Info("starting task", "instance_id", task.InstanceID, "run_dir", runDir)

	agent, cleanup, err := c.buildAgent(ctx, runDir, task)
	if err != nil {
		return err
	}
	defer cleanup()

	if flags.watchCmds && len(c.agentCfg.CommandFiles) > 0 {
		w, werr := startCommandWatch(c.agentCfg.CommandFiles)
		if werr == nil {
			defer func() { _ = w.Close() }()
		} else {
			logger.Warn("command watch disabled", "error", werr)
		}
	}

	start := time.Now()
	info, err := agent.Run(ctx, task)
	if err != nil {
		return err
	}
	logger.Info("task finished", "instance_id", task.InstanceID, "exit_status", string(info.ExitStatus), "elapsed", time.Since(start).String())

	if info.Submission != nil {
		for _, issue := range safety.ScanPatch(*info.Submission) {
			logger.Warn("safety scan flagged submission", "instance_id", task.InstanceID, "file", issue.File, "kind", issue.Kind, "detail", issue.Detail)
		}
	}

	if err := trajectory.WritePredictions(runDir, trajectory.Prediction{
		ModelNameOrPath: c.model.ModelName,
		InstanceID:      task.InstanceID,
		ModelPatch:      info.Submission,
	}); err != nil {
		return err
	}

	outcome := resultsfile.Outcome{
		InstanceID: task.InstanceID,
		Generated:  info.Submission != nil,
	}
	report := resultsfile.BuildReport([]resultsfile.Outcome{outcome})
	return resultsfile.Write(filepath.Join(runDir, "results.json"), report)
}
