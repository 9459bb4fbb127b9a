// Package config loads the YAML run configuration — agent templates and
// command catalogue, and environment/repo settings — and merges CLI flag
// overrides on top. Grounded on
// original_source/swe_agent/swe_agent/agent/agent_config.py's AgentConfig
// dataclass and development_environment/development_environment_arguments.py's
// DevelopmentEnvironmentArguments, translated from Python dataclass fields
// with defaults to Go structs decoded with gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Agent mirrors AgentConfig: prompt templates, the command catalogue paths,
// the parser/history-processor selection, and the subroutine declarations.
// Several Python __post_init__ derivations (next_step_template defaulting to
// instance_template, etc.) are implemented in Resolve rather than at decode
// time, since yaml.Unmarshal has no post-processing hook.
type Agent struct {
	SystemTemplate          string            `yaml:"system_template"`
	InstanceTemplate        string            `yaml:"instance_template"`
	NextStepTemplate        string            `yaml:"next_step_template"`
	NextStepNoOutputTmpl    string            `yaml:"next_step_no_output_template"`
	DemonstrationTemplate   string            `yaml:"demonstration_template"`
	Demonstrations          []string          `yaml:"demonstrations"`
	PutDemosInHistory       bool              `yaml:"put_demos_in_history"`
	FormatErrorTemplate     string            `yaml:"format_error_template"`
	CommandFiles            []string          `yaml:"command_files"`
	EnvVariables            map[string]string `yaml:"env_variables"`
	SubmitCommand           string            `yaml:"submit_command"`
	ParseFunction           string            `yaml:"parse_function"`
	ParseCommand            string            `yaml:"parse_command"`
	HistoryProcessor        string            `yaml:"history_processor"`
	HistoryProcessorArgN    int               `yaml:"history_processor_args_n"`
	BlocklistErrorTemplate  string            `yaml:"blocklist_error_template"`
	Blocklist               []string          `yaml:"blocklist"`
	BlocklistStandalone     []string          `yaml:"blocklist_standalone"`
	Subroutines             []SubroutineSpec  `yaml:"subroutine_types"`
}

// SubroutineSpec declares one sub-agent subroutine (AgentSubroutine in the
// original): the command name that invokes it, the model to run it with,
// the nested agent config file defining its own command surface, and which
// field of its final trajectory step is handed back to the caller.
type SubroutineSpec struct {
	Name            string `yaml:"name"`
	Model           string `yaml:"model"`
	AgentFile       string `yaml:"agent_file"`
	EndName         string `yaml:"end_name"`
	ReturnType      string `yaml:"return_type"`     // one of action|observation|response|state|thought
	InitObservation string `yaml:"init_observation"` // rendered and fed to the child as its first observation, if set
}

// ResolveReturnType defaults an empty ReturnType to "observation", mirroring
// AgentSubroutine's run_model_with_error_correction caller defaulting
// unset return_type to the most common case.
func (s SubroutineSpec) ResolveReturnType() string {
	if s.ReturnType == "" {
		return "observation"
	}
	return s.ReturnType
}

// defaultBlocklist/defaultBlocklistStandalone mirror agent_config.py's
// dataclass field defaults.
var (
	defaultBlocklist = []string{"vim", "vi", "emacs", "nano", "nohup", "git"}
	defaultBlocklistStandalone = []string{
		"python", "python3", "ipython", "bash", "sh", "exit",
		"/bin/bash", "/bin/sh", "nohup", "vi", "vim", "emacs", "nano",
	}
)

// Resolve applies the __post_init__ defaulting chain: next_step_template
// falls back to instance_template, next_step_no_output_template falls back
// to next_step_template, submit_command/parse_function/parse_command fall
// back to their dataclass defaults, and an empty blocklist is replaced with
// the built-in one. It rejects a subroutine named "submit".
func (a *Agent) Resolve() error {
	if a.NextStepTemplate == "" {
		a.NextStepTemplate = a.InstanceTemplate
	}
	if a.NextStepNoOutputTmpl == "" {
		a.NextStepNoOutputTmpl = a.NextStepTemplate
	}
	if a.SubmitCommand == "" {
		a.SubmitCommand = "submit"
	}
	if a.ParseFunction == "" {
		a.ParseFunction = "thought-action"
	}
	if a.ParseCommand == "" {
		a.ParseCommand = "bash"
	}
	if a.HistoryProcessor == "" {
		a.HistoryProcessor = "default"
	}
	if len(a.Blocklist) == 0 {
		a.Blocklist = defaultBlocklist
	}
	if len(a.BlocklistStandalone) == 0 {
		a.BlocklistStandalone = defaultBlocklistStandalone
	}
	for _, s := range a.Subroutines {
		if s.Name == "submit" {
			return fmt.Errorf("config: cannot use %q as a subroutine name", "submit")
		}
	}
	return nil
}

// LoadAgent reads and decodes an Agent config from a YAML file, then
// resolves its defaults.
func LoadAgent(path string) (*Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading agent config: %w", err)
	}
	var a Agent
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("config: parsing agent config %s: %w", path, err)
	}
	if err := a.Resolve(); err != nil {
		return nil, err
	}
	return &a, nil
}
