package command

import "strings"

// Registry holds the loaded command catalogue plus the blocklist, and
// resolves the command-vs-subroutine end_marker merge conflict.
type Registry struct {
	Commands        []Descriptor
	SubroutineTypes []Descriptor
	BlockPrefix     []string // matched against the first word of an action
	BlockStandalone []string // matched against the whole trimmed action
}

// NewRegistry builds a Registry from a loaded command set and the default
// blocklists.
func NewRegistry(commands, subroutines []Descriptor) *Registry {
	return &Registry{
		Commands:        commands,
		SubroutineTypes: subroutines,
		BlockPrefix:     []string{"vim", "vi", "emacs", "nano", "nohup", "git", "python", "python3"},
		BlockStandalone: []string{"python", "bash", "sh", "exit", "/bin/bash", "/bin/sh"},
	}
}

// Find returns the Descriptor named name among Commands, and a bool for
// whether it was found.
func (r *Registry) Find(name string) (Descriptor, bool) {
	for _, c := range r.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return Descriptor{}, false
}

// IsSubroutine reports whether name is one of the registered subroutine
// types rather than a primary command.
func (r *Registry) IsSubroutine(name string) bool {
	for _, s := range r.SubroutineTypes {
		if s.Name == name {
			return true
		}
	}
	return false
}

// EndMarkers builds the name->end_marker map used to rewrite heredoc
// commands before dispatch. When a
// command and a subroutine share a name, the command-side end_marker is
// authoritative.
func (r *Registry) EndMarkers() map[string]string {
	m := make(map[string]string, len(r.Commands)+len(r.SubroutineTypes))
	for _, s := range r.SubroutineTypes {
		if s.EndMarker != "" {
			m[s.Name] = s.EndMarker
		}
	}
	for _, c := range r.Commands {
		if c.EndMarker != "" {
			m[c.Name] = c.EndMarker
		}
	}
	return m
}

// Docs renders the full command-documentation block handed to the history
// templates as command_docs, commands followed by subroutine types.
func (r *Registry) Docs() string {
	var b strings.Builder
	for _, c := range r.Commands {
		b.WriteString(c.Docs())
	}
	for _, s := range r.SubroutineTypes {
		b.WriteString(s.Docs())
	}
	return b.String()
}

// BlockedReason returns a non-empty corrective message if action invokes a
// blocked command, matching the two-set policy: block is a
// prefix/first-word match, block_standalone is whole-string equality.
func (r *Registry) BlockedReason(action string) string {
	trimmed := strings.TrimSpace(action)
	if trimmed == "" {
		return ""
	}
	for _, std := range r.BlockStandalone {
		if trimmed == std {
			return "interactive operation " + std + " is not supported"
		}
	}
	first := strings.Fields(trimmed)[0]
	for _, p := range r.BlockPrefix {
		if first == p {
			return "interactive operation " + p + " is not supported"
		}
	}
	return ""
}
