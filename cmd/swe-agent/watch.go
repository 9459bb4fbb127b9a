package main

import "github.com/swe-agent-go/sweagent/internal/command"

// startCommandWatch wires internal/command.WatchFiles to this process's
// logger, for --watch-commands: it only logs reload outcomes, since the
// running Agent's Registry is rebuilt per task anyway (a long `run-batch`
// loop picks up the change on its next task without a restart).
func startCommandWatch(paths []string) (*command.Watcher, error) {
	return command.WatchFiles(paths, func(descs []command.Descriptor, err error) {
		if err != nil {
			logger.Warn("command catalogue reload failed", "error", err)
			return
		}
		logger.Info("command catalogue reloaded", "commands", len(descs))
	})
}
