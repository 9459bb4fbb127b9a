package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment mirrors DevelopmentEnvironmentArguments: the repo to work on,
// the container image, and the sandbox timeout overrides.
//
// Grounded on original_source/development_environment/
// development_environment_arguments.py's DevelopmentEnvironmentArguments
// dataclass.
type Environment struct {
	RepositoryPath     string        `yaml:"sourcecode_repository_path"`
	ImageName          string        `yaml:"image_name"`
	Split              string        `yaml:"split"`
	BaseCommit         string        `yaml:"base_commit"`
	ContainerName      string        `yaml:"container_name"`
	InstallEnvironment *bool         `yaml:"install_environment"`
	CommTimeoutSeconds int           `yaml:"docker_communication_timeout"`
	Verbose            bool          `yaml:"verbose"`
	NoMirror           bool          `yaml:"no_mirror"`
	RepositoryType     string        `yaml:"sourcecode_repository_type"`
}

// CommTimeout returns the communication timeout as a time.Duration, the
// shape internal/sandbox's Channel actually consumes.
func (e *Environment) CommTimeout() time.Duration {
	return time.Duration(e.CommTimeoutSeconds) * time.Second
}

// Resolve fills in the dataclass defaults not already set by the decoded
// YAML: dev split, install-environment on, a 35s communication timeout, and
// a Github repository type.
func (e *Environment) Resolve() {
	if e.Split == "" {
		e.Split = "dev"
	}
	if e.CommTimeoutSeconds == 0 {
		e.CommTimeoutSeconds = 35
	}
	if e.RepositoryType == "" {
		e.RepositoryType = "Github"
	}
	if e.InstallEnvironment == nil {
		t := true
		e.InstallEnvironment = &t
	}
}

// LoadEnvironment reads and decodes an Environment config from a YAML file.
func LoadEnvironment(path string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading environment config: %w", err)
	}
	var e Environment
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("config: parsing environment config %s: %w", path, err)
	}
	e.Resolve()
	return &e, nil
}
