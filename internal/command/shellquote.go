package command

import "strings"

// shellQuote produces a POSIX shell single-quoted form of s, the Go
// equivalent of Python's shlex.quote used by json_parser.py. No pack repo
// carries a shell-quoting library, so this is a small standalone helper
// rather than an adopted dependency (see DESIGN.md).
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("@%_+=:,./-", r):
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
