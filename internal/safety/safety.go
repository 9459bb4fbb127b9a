// Package safety scans a submitted patch for content an operator would want
// flagged before it's handed back as a prediction: committed secret
// material and newly-added binary files. It never blocks a submission —
// only reports issues for the caller to log or record.
package safety

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// Issue is one flagged spot in a patch.
type Issue struct {
	File   string
	Kind   string // "secret" or "binary"
	Detail string
}

// secretPatterns are compiled regexps that match common secret material in
// diff added lines. Pattern strings are split so they don't match
// themselves.
var secretPatterns = []*secretPattern{
	{regexp.MustCompile(`AK` + `IA[0-9A-Z]{16}`), "AWS access key"},
	{regexp.MustCompile(`-{5}` + `BEGIN\s+(RSA|DSA|EC|OPENSSH|PGP)\s+PRIV` + `ATE\s+KEY-{5}`), "private key"},
	{regexp.MustCompile(`gh` + `p_[A-Za-z0-9_]{36}`), "GitHub personal access token"},
	{regexp.MustCompile(`gh` + `o_[A-Za-z0-9_]{36}`), "GitHub OAuth token"},
	{regexp.MustCompile(`github` + `_pat_[A-Za-z0-9_]{22,}`), "GitHub fine-grained PAT"},
	{regexp.MustCompile(`sk` + `-[A-Za-z0-9]{20,}`), "API secret key"},
	{regexp.MustCompile(`(?i)(pass` + `word|sec` + `ret|to` + `ken|api[_-]?key)\s*[:=]\s*['"][^'"]{8,}`), "hardcoded credential"},
}

type secretPattern struct {
	re   *regexp.Regexp
	desc string
}

// ScanPatch scans a unified diff (the shape submit's "git diff --cached"
// produces) for added secret material and newly-introduced binary files.
// It operates on the patch text directly rather than re-running git against
// the sandbox, since the caller already has the full diff in hand from the
// agent's submission.
func ScanPatch(patch string) []Issue {
	var issues []Issue
	seen := make(map[string]bool) // dedupe by file+kind
	var currentFile string

	scanner := bufio.NewScanner(strings.NewReader(patch))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if after, ok := strings.CutPrefix(line, "+++ b/"); ok {
			currentFile = after
			continue
		}
		if strings.HasPrefix(line, "Binary files ") && strings.HasSuffix(line, " differ") {
			key := currentFile + ":binary"
			if !seen[key] {
				seen[key] = true
				issues = append(issues, Issue{
					File:   currentFile,
					Kind:   "binary",
					Detail: "patch introduces or modifies a binary file",
				})
			}
			continue
		}
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		added := line[1:]
		for _, sp := range secretPatterns {
			if !sp.re.MatchString(added) {
				continue
			}
			key := currentFile + ":" + sp.desc
			if seen[key] {
				continue
			}
			seen[key] = true
			issues = append(issues, Issue{
				File:   currentFile,
				Kind:   "secret",
				Detail: fmt.Sprintf("possible %s detected", sp.desc),
			})
		}
	}
	return issues
}

// FileStat is one file's added/deleted line counts in a patch.
type FileStat struct {
	Path    string
	Added   int
	Deleted int
	Binary  bool
}

// Stat computes per-file added/deleted line counts directly from a unified
// diff, the same shape a prediction's ModelPatch carries. This counts lines
// in the patch body rather than shelling out to "git diff --numstat" a
// second time, since the caller already has the whole diff text in hand.
func Stat(patch string) []FileStat {
	var files []FileStat
	var cur *FileStat

	scanner := bufio.NewScanner(strings.NewReader(patch))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if after, ok := strings.CutPrefix(line, "+++ b/"); ok {
			files = append(files, FileStat{Path: after})
			cur = &files[len(files)-1]
			continue
		}
		if cur == nil {
			continue
		}
		if strings.HasPrefix(line, "Binary files ") && strings.HasSuffix(line, " differ") {
			cur.Binary = true
			continue
		}
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			// file header lines, not content
		case strings.HasPrefix(line, "+"):
			cur.Added++
		case strings.HasPrefix(line, "-"):
			cur.Deleted++
		}
	}
	return files
}

// TotalLines sums Added/Deleted across every file in a Stat result, for a
// one-line "N files changed, +A/-D" style summary.
func TotalLines(files []FileStat) (added, deleted int) {
	for _, f := range files {
		added += f.Added
		deleted += f.Deleted
	}
	return added, deleted
}
