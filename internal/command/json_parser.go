package command

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

// jsonCommand is the wire shape of the "command" field in a JSON reply,
// mirroring JsonPromptParser's expected object.
type jsonCommand struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments"`
}

type jsonReply struct {
	Thought string      `json:"thought"`
	Command jsonCommand `json:"command"`
}

// signaturePlaceholderRe finds "<name>" and "[<name>]" placeholders in a
// rendered signature, mirroring parsing.py's extract_keys (adapted from
// Python str.format fields to angle-bracket placeholders).
var signaturePlaceholderRe = regexp.MustCompile(`<([a-zA-Z0-9_]+)>`)

// jsonParser expects the reply to be a single JSON object
// {"thought": "...", "command": {"name": "...", "arguments": {...}}} and
// reconstructs the action string from the named command's signature,
// mirroring JsonPromptParser.__call__.
type jsonParser struct{}

func (jsonParser) Parse(reply string, cmds []Descriptor) (string, string, error) {
	var r jsonReply
	if err := json.Unmarshal([]byte(reply), &r); err != nil {
		return "", "", formatErrorf("model output is not valid JSON")
	}
	if r.Command.Name == "" {
		return "", "", formatErrorf("key 'command' or 'command.name' is missing from model output")
	}

	var desc Descriptor
	var found bool
	for _, c := range cmds {
		if c.Name == r.Command.Name {
			desc, found = c, true
			break
		}
	}

	var action string
	if !found {
		action = r.Command.Name
		if len(r.Command.Arguments) > 0 {
			names := make([]string, 0, len(r.Command.Arguments))
			for k := range r.Command.Arguments {
				names = append(names, k)
			}
			sort.Strings(names)
			vals := make([]string, 0, len(names))
			for _, k := range names {
				vals = append(vals, r.Command.Arguments[k])
			}
			action += " " + strings.Join(vals, " ")
		}
	} else {
		sig := desc.Signature
		placeholders := signaturePlaceholderRe.FindAllStringSubmatch(sig, -1)
		rendered := sig
		for _, m := range placeholders {
			name := m[1]
			value := ""
			if v, ok := r.Command.Arguments[name]; ok {
				value = v
				if desc.EndMarker == "" {
					value = shellQuote(value)
				}
			}
			rendered = strings.ReplaceAll(rendered, "<"+name+">", value)
		}
		rendered = strings.ReplaceAll(rendered, "[", "")
		rendered = strings.ReplaceAll(rendered, "]", "")
		action = rendered
	}
	return strings.TrimSpace(r.Thought), strings.TrimSpace(action), nil
}

func (jsonParser) ErrorTemplate() string {
	return "Your output could not be parsed as JSON. Please make sure your output 1) is valid JSON and\n2) Includes the \"thought\" and \"command\" fields.\n"
}
