package model

// Config carries the per-run model arguments: backend selection, sampling
// parameters, and the two cost limits enforced by internal/trajectory's
// Ledger.
//
// Grounded on original_source/swe_agent/swe_agent/model/model_arguments.py's
// ModelArguments dataclass, field-for-field, with yaml tags replacing
// FrozenSerializable's dataclass-to-dict mapping.
type Config struct {
	ModelName          string  `yaml:"model_name"`
	PerInstanceCostLim float64 `yaml:"per_instance_cost_limit"`
	TotalCostLimit     float64 `yaml:"total_cost_limit"`
	Temperature        float64 `yaml:"temperature"`
	TopP               float64 `yaml:"top_p"`
	ReplayPath         string  `yaml:"replay_path"`
	HostURL            string  `yaml:"host_url"`
}

// DefaultConfig mirrors the dataclass defaults: full sampling temperature,
// no cost limit, and Ollama's default local address.
func DefaultConfig(modelName string) Config {
	return Config{
		ModelName:   modelName,
		Temperature: 1.0,
		TopP:        1.0,
		HostURL:     "localhost:11434",
	}
}
