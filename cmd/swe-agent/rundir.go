package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/swe-agent-go/sweagent/internal/config"
	"github.com/swe-agent-go/sweagent/internal/model"
)

// configStem derives the {config_stem} component: the agent config file's
// base name with its extension stripped, mirroring datasetStem.
func configStem(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// runDirName builds the run directory naming convention:
// {model}__{dataset_stem}__{config_stem}__t-{temperature:.2f}__p-{top_p:.2f}
// __c-{per_instance_cost:.2f}__install-{0|1}[__<suffix>].
func runDirName(m model.Config, env *config.Environment, datasetStemVal, configStemVal, suffix string) string {
	install := 0
	if env != nil && env.InstallEnvironment != nil && *env.InstallEnvironment {
		install = 1
	}
	name := fmt.Sprintf("%s__%s__%s__t-%.2f__p-%.2f__c-%.2f__install-%d",
		sanitizeRunComponent(m.ModelName), sanitizeRunComponent(datasetStemVal), sanitizeRunComponent(configStemVal),
		m.Temperature, m.TopP, m.PerInstanceCostLim, install)
	if suffix != "" {
		name += "__" + sanitizeRunComponent(suffix)
	}
	return name
}

// sanitizeRunComponent replaces path separators so a run directory name
// never nests unexpected subdirectories.
func sanitizeRunComponent(s string) string {
	if s == "" {
		return "none"
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "/", "-"), string(filepath.Separator), "-")
}
