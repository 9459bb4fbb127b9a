package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxSearchMatches is the cap past which search_file/search_dir ask the model
// to narrow its request. search_dir's cap counts matches (lines), not files.
const maxSearchMatches = 100

// SearchFile scans file (or the current file if file == "") for term,
// line-level substring matching, capped at maxSearchMatches.
func (s *State) SearchFile(term, file string) (string, error) {
	target := file
	if target == "" {
		target = s.CurrentFile
	}
	if target == "" {
		s.LastActionReturn = "No file open or specified."
		return "", fmt.Errorf("search_file: no file specified")
	}
	abs := s.absPath(target)
	lines, err := readLines(abs)
	if err != nil {
		s.LastActionReturn = fmt.Sprintf("File %s not found.", target)
		return "", err
	}

	var matches []string
	for i, line := range lines {
		if strings.Contains(line, term) {
			matches = append(matches, fmt.Sprintf("Line %d:%s", i+1, line))
		}
	}
	if len(matches) > maxSearchMatches {
		s.LastActionReturn = fmt.Sprintf("More than %d matches found for %q in %s. Please narrow your search.", maxSearchMatches, term, target)
		return "", fmt.Errorf("search_file: too many matches")
	}
	if len(matches) == 0 {
		s.LastActionReturn = fmt.Sprintf("No matches found for %q in %s", term, target)
		return s.LastActionReturn, nil
	}
	s.LastActionReturn = fmt.Sprintf("Found %d matches for %q in %s:\n%s\n", len(matches), term, target, strings.Join(matches, "\n"))
	return s.LastActionReturn, nil
}

// SearchDir recursively scans dir (or the current directory if dir == "")
// for term, capped at maxSearchMatches total matches across all files.
func (s *State) SearchDir(term, dir string) (string, error) {
	target := dir
	if target == "" {
		target = "."
	}
	abs := s.absPath(target)
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		s.LastActionReturn = fmt.Sprintf("Directory %s not found.", target)
		return "", fmt.Errorf("search_dir: %s: not a directory", target)
	}

	type hit struct {
		file  string
		count int
	}
	var hits []hit
	total := 0
	walkErr := filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		lines, rerr := readLines(path)
		if rerr != nil {
			return nil //nolint:nilerr // unreadable (binary/permission) files are silently skipped.
		}
		count := 0
		for _, line := range lines {
			if strings.Contains(line, term) {
				count++
			}
		}
		if count > 0 {
			rel, _ := filepath.Rel(abs, path)
			hits = append(hits, hit{file: rel, count: count})
			total += count
		}
		return nil
	})
	if walkErr != nil {
		return "", walkErr
	}

	if total > maxSearchMatches {
		s.LastActionReturn = fmt.Sprintf("More than %d matches found for %q in %s. Please narrow your search.", maxSearchMatches, term, target)
		return "", fmt.Errorf("search_dir: too many matches")
	}
	if total == 0 {
		s.LastActionReturn = fmt.Sprintf("No matches found for %q in %s", term, target)
		return s.LastActionReturn, nil
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].file < hits[j].file })
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d matches for %q in %s:\n", total, term, target)
	for _, h := range hits {
		fmt.Fprintf(&b, "%s (%d matches)\n", h.file, h.count)
	}
	s.LastActionReturn = b.String()
	return s.LastActionReturn, nil
}

// FindFile walks dir (or the current directory) for entries matching the
// glob pattern name.
func (s *State) FindFile(name, dir string) (string, error) {
	target := dir
	if target == "" {
		target = "."
	}
	abs := s.absPath(target)
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		s.LastActionReturn = fmt.Sprintf("Directory %s not found.", target)
		return "", fmt.Errorf("find_file: %s: not a directory", target)
	}

	var found []string
	walkErr := filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		matched, merr := filepath.Match(name, d.Name())
		if merr == nil && matched {
			rel, _ := filepath.Rel(abs, path)
			found = append(found, rel)
		}
		return nil
	})
	if walkErr != nil {
		return "", walkErr
	}

	sort.Strings(found)
	if len(found) == 0 {
		s.LastActionReturn = fmt.Sprintf("No matches found for %q in %s", name, target)
		return s.LastActionReturn, nil
	}
	s.LastActionReturn = fmt.Sprintf("Found %d matches for %q in %s:\n%s\n", len(found), name, target, strings.Join(found, "\n"))
	return s.LastActionReturn, nil
}
