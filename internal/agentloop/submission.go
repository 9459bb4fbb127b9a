package agentloop

import "regexp"

// submissionRe extracts the captured diff from a submit sentinel
// "<<SUBMISSION||...||SUBMISSION>>", greedy and newline-tolerant
// (re.DOTALL-equivalent).
var submissionRe = regexp.MustCompile(`(?s)<<SUBMISSION\|\|(.*)\|\|SUBMISSION>>`)

// extractSubmission reports whether output contains a submit sentinel and,
// if so, the captured diff text trimmed of its enclosing newlines.
func extractSubmission(output string) (string, bool) {
	m := submissionRe.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	diff := m[1]
	for len(diff) > 0 && (diff[0] == '\n' || diff[0] == '\r') {
		diff = diff[1:]
	}
	for len(diff) > 0 && (diff[len(diff)-1] == '\n' || diff[len(diff)-1] == '\r') {
		diff = diff[:len(diff)-1]
	}
	return diff, true
}
