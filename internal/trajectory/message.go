// Package trajectory holds the message, step, and ledger types shared by the
// history assembler, the model client, and the agent loop, plus the
// trajectory/predictions file writers.
package trajectory

import "encoding/json"

// Role identifies the speaker of a Message.
type Role string

// Recognized roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in an agent's conversation history. AgentName
// distinguishes messages belonging to a sub-agent subroutine from the
// primary agent's own history; IsDemo marks messages spliced in from a
// demonstration trajectory.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	AgentName string `json:"agent,omitempty"`
	IsDemo    bool   `json:"is_demo,omitempty"`
	Thought   string `json:"thought,omitempty"`
	Action    string `json:"action,omitempty"`
}

// State is a JSON snapshot of the sandbox working directory recorded
// alongside a trajectory step.
type State struct {
	WorkingDir string `json:"working_dir"`
}

// Step is one recorded turn of the agent loop. Steps are appended only;
// once written to a .traj file they are never rewritten.
type Step struct {
	Thought     string `json:"thought"`
	Action      string `json:"action"`
	Observation string `json:"observation"`
	Response    string `json:"response"`
	State       State  `json:"state"`
}

// ExitStatus is the terminal classification of a finished task, per the
// taxonomy in the error handling design.
type ExitStatus string

// Recognized terminals.
const (
	ExitSubmitted   ExitStatus = "submitted"
	ExitSkipped     ExitStatus = "skipped"
	ExitContext     ExitStatus = "exit_context"
	ExitCost        ExitStatus = "exit_cost"
	ExitAPI         ExitStatus = "exit_api"
	ExitError       ExitStatus = "exit_error"
	ExitFormat      ExitStatus = "exit_format"
	ExitEarly       ExitStatus = "early_exit"
)

// ModelStats is the subset of the Ledger persisted into the trajectory file.
type ModelStats struct {
	TokensSent     int     `json:"tokens_sent"`
	TokensReceived int     `json:"tokens_received"`
	APICalls       int     `json:"api_calls"`
	InstanceCost   float64 `json:"instance_cost"`
	TotalCost      float64 `json:"total_cost"`
}

// Info is the trajectory file's terminal-state envelope.
type Info struct {
	ExitStatus ExitStatus `json:"exit_status"`
	Submission *string    `json:"submission,omitempty"`
	ModelStats ModelStats `json:"model_stats"`
}

// File is the full on-disk shape of <traj_dir>/<instance_id>.traj.
type File struct {
	Environment string    `json:"environment"`
	Trajectory  []Step    `json:"trajectory"`
	History     []Message `json:"history"`
	Info        Info      `json:"info"`
}

// Prediction is one line of <run_dir>/all_preds.jsonl.
type Prediction struct {
	ModelNameOrPath string  `json:"model_name_or_path"`
	InstanceID      string  `json:"instance_id"`
	ModelPatch      *string `json:"model_patch"`
}

// MarshalPretty renders f as indented JSON, via the json.NewEncoder(...,
// SetIndent) convention used elsewhere in this repo for human-inspectable
// files.
func (f *File) MarshalPretty() ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}
