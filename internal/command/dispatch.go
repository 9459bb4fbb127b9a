package command

import (
	"fmt"
	"regexp"
	"strings"
)

// Envelope is one parsed, ready-to-dispatch invocation: the agent it targets
// (the primary agent's name unless a subroutine name was recognized at the
// head) and its raw text.
type Envelope struct {
	Agent   string
	Command string // first word
	Raw     string // full text, heredoc body included
}

// identificationPattern compiles the per-command regexp used to recognize
// and split subroutine invocations out of a multi-command action, mirroring
// every original_source action file's identification_string +
// re.fullmatch/re.search(DOTALL) pattern. single-line commands match their
// whole line; heredoc commands match through their terminating end marker.
func identificationPattern(name, endMarker string) *regexp.Regexp {
	if endMarker == "" {
		return regexp.MustCompile(`(?m)^[ \t]*` + regexp.QuoteMeta(name) + `\b.*$`)
	}
	return regexp.MustCompile(`(?sm)^[ \t]*` + regexp.QuoteMeta(name) + `\b.*?^` + regexp.QuoteMeta(endMarker) + `[ \t]*$`)
}

// Split peels the action into one Envelope per recognized command or
// subroutine invocation, in order of appearance, tagging each with
// primaryAgent unless the invocation's head matches a registered subroutine
// name.
func (r *Registry) Split(action, primaryAgent string) ([]Envelope, error) {
	action = strings.TrimRight(action, "\n") + "\n"
	endMarkers := r.EndMarkers()

	type candidate struct {
		name  string
		isSub bool
	}
	var names []candidate
	for _, c := range r.Commands {
		names = append(names, candidate{name: c.Name})
	}
	for _, s := range r.SubroutineTypes {
		names = append(names, candidate{name: s.Name, isSub: true})
	}

	var envelopes []Envelope
	remaining := action
	for strings.TrimSpace(remaining) != "" {
		line := strings.TrimLeft(remaining, " \t")
		first := strings.Fields(line)
		if len(first) == 0 {
			break
		}
		head := first[0]

		var matched bool
		for _, c := range names {
			if c.name != head {
				continue
			}
			pat := identificationPattern(c.name, endMarkers[c.name])
			loc := pat.FindStringIndex(remaining)
			if loc == nil || loc[0] != 0 {
				continue
			}
			agent := primaryAgent
			if c.isSub {
				agent = c.name
			}
			envelopes = append(envelopes, Envelope{Agent: agent, Command: c.name, Raw: strings.TrimRight(remaining[loc[0]:loc[1]], "\n")})
			remaining = remaining[loc[1]:]
			remaining = strings.TrimLeft(remaining, "\n")
			matched = true
			break
		}
		if !matched {
			return nil, fmt.Errorf("command: unrecognized command %q in action", head)
		}
	}
	return envelopes, nil
}

// Heredocify rewrites the opening line of a heredoc command so the payload
// is delivered to the shell as a "<< 'marker'" heredoc:
// "the agent rewrites the first line to append << '<end_marker>'".
func Heredocify(raw, endMarker string) string {
	if endMarker == "" {
		return raw
	}
	lines := strings.SplitN(raw, "\n", 2)
	if len(lines) == 1 {
		return raw
	}
	lines[0] = lines[0] + " << '" + endMarker + "'"
	return strings.Join(lines, "\n")
}
