// Package command loads the command catalogue (shell-function and
// standalone-script command files) and parses model replies into
// (thought, action) pairs, grounded on
// original_source/swe_agent/swe_agent/command/{bash_command_parser,
// detailed_bash_command_parser}.py and swe_agent/parsing.py.
package command

import "strings"

// Argument describes one named parameter of a Descriptor's signature.
type Argument struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

// Descriptor is a Command Descriptor: a named action the model may
// invoke, with its signature, docs, optional heredoc terminator, argument
// schema and code body. Descriptors are loaded once at startup and are
// immutable thereafter.
type Descriptor struct {
	Name       string
	Docstring  string
	Signature  string
	EndMarker  string // "" if this is not a multi-line/heredoc command
	Arguments  []Argument
	Code       string
}

// IsHeredoc reports whether this Descriptor terminates a multi-line payload
// with a bare line matching EndMarker.
func (d Descriptor) IsHeredoc() bool {
	return d.EndMarker != ""
}

// signature derives a default "<name> <arg1> [<arg2>]" signature from
// Arguments when none was given explicitly, mirroring
// DetailedBashCommandParser.get_signature.
func signature(name string, args []Argument, endMarker string) string {
	var b strings.Builder
	b.WriteString(name)
	last := len(args) - 1
	for i, a := range args {
		if endMarker != "" && i == last {
			break
		}
		if a.Required {
			b.WriteString(" <" + a.Name + ">")
		} else {
			b.WriteString(" [<" + a.Name + ">]")
		}
	}
	if endMarker != "" && len(args) > 0 {
		b.WriteString("\n" + args[last].Name + "\n" + endMarker)
	}
	return b.String()
}

// Docs renders the documentation block for a single Descriptor, matching
// BashCommandParser.generate_command_docs's one-line-per-command form:
// "<signature> - <docstring>".
func (d Descriptor) Docs() string {
	sig := d.Signature
	if sig == "" {
		sig = signature(d.Name, d.Arguments, d.EndMarker)
	}
	if d.Docstring == "" {
		return ""
	}
	return sig + " - " + d.Docstring + "\n"
}
