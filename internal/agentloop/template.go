package agentloop

import "regexp"

// placeholderRe matches a Python str.format-style "{key}" placeholder,
// restricted to identifier characters since none of the templates nest
// braces or use format specs (all strings are plain "{placeholders}").
var placeholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// renderTemplate substitutes every recognized {key} placeholder in tmpl from
// vars. An unrecognized placeholder is left verbatim rather than erroring,
// since a given template only ever uses the subset of placeholders relevant
// to its position in the turn (system vs. next_step vs. format_error).
func renderTemplate(tmpl string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		return m
	})
}
