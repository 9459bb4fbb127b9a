// Command swe-agent drives the agent control loop from the command line:
// a single-task run, a dataset batch run, and a trajectory-file inspector,
// grounded on the cobra wiring shown in gateway/cmd/cli, adapted since
// this module's go.mod carries cobra but no cmd/ layout of its own to
// start from.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/swe-agent-go/sweagent/internal/logging"
)

// globalFlags holds the persistent flags every subcommand reads, bound once
// on the root command so "run" and "run-batch" share identical precedence
// rules for model/config overrides.
type globalFlags struct {
	agentConfig  string
	envConfig    string
	modelName    string
	provider     string
	temperature  float64
	topP         float64
	costLimit    float64
	totalLimit   float64
	replayPath   string
	human        bool
	image        string
	trajRoot     string
	suffix       string
	jsonLogs     bool
	watchCmds    bool
}

var flags globalFlags

var logger *slog.Logger

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "swe-agent",
		Short:         "Drive an LLM through a sandboxed coding task",
		Long:          "swe-agent runs the agent control loop against a containerized sandbox: single tasks, dataset batches, and reading back recorded trajectories.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			mode := logging.Interactive
			if flags.jsonLogs {
				mode = logging.Batch
			}
			logger = logging.New(mode, os.Stderr, slog.LevelInfo)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.agentConfig, "agent-config", "", "path to the agent YAML config (required)")
	pf.StringVar(&flags.envConfig, "environment-config", "", "path to the environment YAML config")
	pf.StringVar(&flags.modelName, "model", "", "model name override")
	pf.StringVar(&flags.provider, "provider", "", "maruel/genai provider name (ignored with --human or --replay)")
	pf.Float64Var(&flags.temperature, "temperature", 0, "sampling temperature override")
	pf.Float64Var(&flags.topP, "top-p", 0, "nucleus sampling top_p override")
	pf.Float64Var(&flags.costLimit, "per-instance-cost-limit", 0, "per-instance cost limit override")
	pf.Float64Var(&flags.totalLimit, "total-cost-limit", 0, "total cost limit override")
	pf.StringVar(&flags.replayPath, "replay", "", "replay a recorded .traj file instead of calling a model")
	pf.BoolVar(&flags.human, "human", false, "read model replies from stdin instead of calling a model")
	pf.StringVar(&flags.image, "image", "python:3.11", "container image for the sandbox")
	pf.StringVar(&flags.trajRoot, "traj-dir", "trajectories", "root directory under which run directories are created")
	pf.StringVar(&flags.suffix, "suffix", "", "optional suffix appended to the run directory name")
	pf.BoolVar(&flags.jsonLogs, "json-logs", false, "emit structured JSON logs instead of the interactive handler")
	pf.BoolVar(&flags.watchCmds, "watch-commands", false, "reload the command catalogue when its source files change")

	root.AddCommand(newRunCmd())
	root.AddCommand(newRunBatchCmd())
	root.AddCommand(newInspectCmd())
	return root
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
