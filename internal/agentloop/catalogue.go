package agentloop

import "github.com/swe-agent-go/sweagent/internal/command"

// DefaultCommands returns the built-in catalogue of model-visible actions:
// the editor surface (C3, dispatched natively in-process — see dispatch.go)
// plus submit. Grounded on original_source/config/commands/{edit_linting,
// search_file,search_dir,find_file}.py's @yaml docstring blocks and
// swe_agent/agent/agents.py's submit handling; authored as Go literals
// rather than loaded from .sh/.py catalogue files, since this is a fixed
// built-in set — config.Agent.CommandFiles remains the path for operators
// who want to add or replace commands via command.LoadAll.
func DefaultCommands() []command.Descriptor {
	return []command.Descriptor{
		{
			Name:      "open_file",
			Docstring: "opens the file at the given path in the editor. If line_number is provided, the window is centered on that line.",
			Signature: "open_file <path> [<line_number>]",
			Arguments: []command.Argument{
				{Name: "path", Type: "string", Required: true, Description: "the path to the file to open"},
				{Name: "line_number", Type: "integer", Required: false, Description: "the line number to center the view on"},
			},
		},
		{
			Name:      "goto_line",
			Docstring: "moves the window to show line_number in the currently open file.",
			Signature: "goto_line <line_number>",
			Arguments: []command.Argument{
				{Name: "line_number", Type: "integer", Required: true, Description: "the line number to move the window to"},
			},
		},
		{
			Name:      "scroll_up",
			Docstring: "moves the window up one page in the currently open file.",
			Signature: "scroll_up",
		},
		{
			Name:      "scroll_down",
			Docstring: "moves the window down one page in the currently open file.",
			Signature: "scroll_down",
		},
		{
			Name:      "create_file",
			Docstring: "creates a new, empty file at the given path and opens it.",
			Signature: "create_file <path>",
			Arguments: []command.Argument{
				{Name: "path", Type: "string", Required: true, Description: "the path of the file to create"},
			},
		},
		{
			Name: "edit_linting",
			Docstring: "replaces lines <start_line> through <end_line> (inclusive) with the given text in the " +
				"currently open file. The replacement text is terminated by a line with only end_of_edit on it. " +
				"Python files are checked for syntax errors after the edit; if any are found the edit is not kept.",
			Signature: "edit_linting <start_line>:<end_line>\n<replacement_text>\nend_of_edit",
			EndMarker: "end_of_edit",
			Arguments: []command.Argument{
				{Name: "start_line", Type: "integer", Required: true, Description: "the line to start the edit at"},
				{Name: "end_line", Type: "integer", Required: true, Description: "the line to end the edit at (inclusive)"},
				{Name: "replacement_text", Type: "string", Required: true, Description: "the text to replace the current selection with"},
			},
		},
		{
			Name:      "find_file",
			Docstring: "finds all files with the given name or glob pattern in dir, or the current directory if not provided.",
			Signature: "find_file <file_name> [<dir>]",
			Arguments: []command.Argument{
				{Name: "file_name", Type: "string", Required: true, Description: "the file name or glob pattern to search for"},
				{Name: "dir", Type: "string", Required: false, Description: "the directory to search in"},
			},
		},
		{
			Name:      "search_file",
			Docstring: "searches for search_term in file, or the currently open file if not provided.",
			Signature: "search_file <search_term> [<file>]",
			Arguments: []command.Argument{
				{Name: "search_term", Type: "string", Required: true, Description: "the term to search for"},
				{Name: "file", Type: "string", Required: false, Description: "the file to search in"},
			},
		},
		{
			Name:      "search_dir",
			Docstring: "searches for search_term in all files under dir, or the current directory if not provided.",
			Signature: "search_dir <search_term> [<dir>]",
			Arguments: []command.Argument{
				{Name: "search_term", Type: "string", Required: true, Description: "the term to search for"},
				{Name: "dir", Type: "string", Required: false, Description: "the directory to search in"},
			},
		},
		{
			Name:      "ls",
			Docstring: "lists the files and directories in the current working directory.",
			Signature: "ls",
		},
		{
			Name:      "cd",
			Docstring: "changes the current working directory to dir.",
			Signature: "cd <dir>",
			Arguments: []command.Argument{
				{Name: "dir", Type: "string", Required: true, Description: "the directory to change to"},
			},
		},
		{
			Name:      "submit",
			Docstring: "submits the current changes as the final answer and ends the task.",
			Signature: "submit",
		},
	}
}

// stateCommandScript is installed into the sandbox, not advertised to the
// model: the loop's own Probe step invokes it directly every turn to read
// back the container's working directory, matching the exact contract the
// agent parses ("State command output").
const stateCommandScript = `state() {
	echo '{"working_dir": "'$(realpath --relative-to="$ROOT/.." "$PWD")'"}'
}
`

// submitCommandScript implements the submit protocol: cd to
// $ROOT, reverse-apply any oracle test patch, stage everything, and print
// the diff bracketed by the submission sentinel.
const submitCommandScript = `submit() {
	cd "$ROOT"
	if [ -f "/root/test.patch" ]; then
		git apply -R /root/test.patch
	fi
	git add -A
	echo '<<SUBMISSION||'
	git diff --cached
	echo '||SUBMISSION>>'
}
`

// commandFiles returns the commandFiles map sandbox.Channel.Reset installs:
// only the shell-side helpers the channel itself must run (state, submit).
// The editor surface is dispatched natively in-process (see dispatch.go)
// and needs no in-container presence.
func commandFiles() map[string]string {
	return map[string]string{
		"state":  stateCommandScript,
		"submit": submitCommandScript,
	}
}

// CommandFiles exposes commandFiles to callers outside the package — the
// entry point that constructs a sandbox.Channel needs this map to pass to
// Channel.Reset before handing the channel to NewAgent.
func CommandFiles() map[string]string {
	return commandFiles()
}
