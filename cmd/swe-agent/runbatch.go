package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/swe-agent-go/sweagent/internal/resultsfile"
	"github.com/swe-agent-go/sweagent/internal/safety"
	"github.com/swe-agent-go/sweagent/internal/trajectory"
	"github.com/swe-agent-go/sweagent/internal/workspace"
)

func newRunBatchCmd() *cobra.Command {
	var datasetPath string
	var workers int
	var archive bool
	cmd := &cobra.Command{
		Use:   "run-batch",
		Short: "Run the agent over every task in a dataset, with bounded concurrency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				return fmt.Errorf("--dataset is required")
			}
			return runBatch(cmd.Context(), datasetPath, workers, archive)
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "path to a JSONL dataset of task records (required)")
	cmd.Flags().IntVar(&workers, "workers", 4, "maximum number of tasks to run concurrently")
	cmd.Flags().BoolVar(&archive, "archive", false, "gzip each instance's .traj file after it completes")
	return cmd
}

// runBatch drives every task in the dataset through its own Agent instance
// concurrently, bounded by a weighted semaphore (golang.org/x/sync), and
// aggregates the per-instance outcomes into one results.json for the whole
// run directory — generalizing the single-task pipeline in run.go from one
// instance to the whole-dataset case.
func runBatch(ctx context.Context, datasetPath string, workers int, archive bool) error {
	if workers < 1 {
		workers = 1
	}
	tasks, err := loadDataset(datasetPath)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		logger.Warn("dataset has no tasks", "path", datasetPath)
		return nil
	}

	runName := func(c *components) string {
		return runDirName(c.model, c.envCfg, datasetStem(datasetPath), configStem(flags.agentConfig), flags.suffix)
	}

	// loadComponents is cheap (just config decode) and shares no mutable
	// state across tasks, so each goroutine loads its own copy rather than
	// coordinate access to one shared *components.
	probe, err := loadComponents("")
	if err != nil {
		return err
	}
	runDir := filepath.Join(flags.trajRoot, runName(probe))
	logger.Info("starting batch run", "instances", len(tasks), "workers", workers, "run_dir", runDir)

	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	outcomes := make([]resultsfile.Outcome, 0, len(tasks))

	for _, task := range tasks {
		task := task
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			outcome := runBatchTask(gctx, runDir, task, archive)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	if werr := g.Wait(); werr != nil {
		return werr
	}

	report := resultsfile.BuildReport(outcomes)
	logger.Info("batch run finished", "generated", report.Generated, "resolved", report.Resolved, "not_generated", report.NotGenerated)
	return resultsfile.Write(filepath.Join(runDir, "results.json"), report)
}

// runBatchTask runs one task to completion, logging (rather than failing
// the whole batch on) any per-instance error — one broken instance must
// not block the rest of the dataset.
func runBatchTask(ctx context.Context, runDir string, task workspace.Task, archive bool) resultsfile.Outcome {
	outcome := resultsfile.Outcome{InstanceID: task.InstanceID}

	workDir, err := os.MkdirTemp("", "swe-agent-workspace-")
	if err != nil {
		logger.Error("workspace setup failed", "instance_id", task.InstanceID, "error", err)
		return outcome
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	c, err := loadComponents(workDir)
	if err != nil {
		logger.Error("config load failed", "instance_id", task.InstanceID, "error", err)
		return outcome
	}

	agent, cleanup, err := c.buildAgent(ctx, runDir, task)
	if err != nil {
		logger.Error("agent setup failed", "instance_id", task.InstanceID, "error", err)
		return outcome
	}
	defer cleanup()

	start := time.Now()
	info, err := agent.Run(ctx, task)
	if err != nil {
		logger.Error("task failed", "instance_id", task.InstanceID, "error", err)
		return outcome
	}
	logger.Info("instance finished", "instance_id", task.InstanceID, "exit_status", string(info.ExitStatus), "elapsed", time.Since(start).String())

	// Applied/Resolved require actually applying the patch and running
	// FAIL_TO_PASS, which is test-execution tooling this repo doesn't carry
	// (workspace.Recipe declares a task's runtime environment without
	// building or running it) — resultsfile only gets told whether a
	// submission was produced at all.
	outcome.Generated = info.Submission != nil

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
		logger.Error("writing prediction failed", "instance_id", task.InstanceID, "error", err)
	}

	if archive {
		trajPath := filepath.Join(runDir, task.InstanceID+".traj")
		if err := trajectory.CompressFile(trajPath); err != nil {
			logger.Warn("archiving trajectory failed", "instance_id", task.InstanceID, "error", err)
		}
	}

	return outcome
}
