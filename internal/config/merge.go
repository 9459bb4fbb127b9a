package config

import "github.com/swe-agent-go/sweagent/internal/model"

// ApplyModelFlags overlays CLI flag values onto a YAML-loaded model.Config.
// A zero value for any flag means "not set on the command line", so it
// never overrides the config file. cobra flags are bound with these same
// zero values as defaults, making this the single place CLI-over-file
// precedence is decided.
func ApplyModelFlags(base model.Config, modelName string, temperature, topP, perInstanceCostLimit float64, replayPath string) model.Config {
	out := base
	if modelName != "" {
		out.ModelName = modelName
	}
	if temperature != 0 {
		out.Temperature = temperature
	}
	if topP != 0 {
		out.TopP = topP
	}
	if perInstanceCostLimit != 0 {
		out.PerInstanceCostLim = perInstanceCostLimit
	}
	if replayPath != "" {
		out.ReplayPath = replayPath
	}
	return out
}
