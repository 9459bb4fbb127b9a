package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/swe-agent-go/sweagent/internal/model"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAgentDefaults(t *testing.T) {
	path := writeYAML(t, `
system_template: "you are an agent"
instance_template: "task: {{.ProblemStatement}}"
command_files:
  - commands/defaults.sh
`)
	a, err := LoadAgent(path)
	if err != nil {
		t.Fatal(err)
	}
	if a.NextStepTemplate != a.InstanceTemplate {
		t.Errorf("NextStepTemplate should default to InstanceTemplate, got %q", a.NextStepTemplate)
	}
	if a.SubmitCommand != "submit" {
		t.Errorf("SubmitCommand default = %q", a.SubmitCommand)
	}
	if len(a.Blocklist) == 0 || a.Blocklist[0] != "vim" {
		t.Errorf("Blocklist default not applied: %v", a.Blocklist)
	}
}

func TestLoadAgentRejectsSubmitSubroutine(t *testing.T) {
	path := writeYAML(t, `
system_template: s
instance_template: i
subroutine_types:
  - name: submit
    model: gpt
`)
	if _, err := LoadAgent(path); err == nil {
		t.Fatal("expected error for subroutine named submit")
	}
}

func TestLoadEnvironmentDefaults(t *testing.T) {
	path := writeYAML(t, `
sourcecode_repository_path: owner/repo
image_name: sweagent/swe-agent:latest
`)
	e, err := LoadEnvironment(path)
	if err != nil {
		t.Fatal(err)
	}
	if e.Split != "dev" {
		t.Errorf("Split default = %q", e.Split)
	}
	if e.InstallEnvironment == nil || !*e.InstallEnvironment {
		t.Error("InstallEnvironment should default to true")
	}
}

func TestApplyModelFlagsOverridesOnlySetFields(t *testing.T) {
	base := model.DefaultConfig("gpt-4")
	got := ApplyModelFlags(base, "", 0.5, 0, 0, "")
	if got.ModelName != "gpt-4" {
		t.Errorf("ModelName should be unchanged, got %q", got.ModelName)
	}
	if got.Temperature != 0.5 {
		t.Errorf("Temperature override not applied, got %v", got.Temperature)
	}
	if got.TopP != base.TopP {
		t.Errorf("TopP should be unchanged, got %v", got.TopP)
	}
}
