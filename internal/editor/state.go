// Package editor implements the bounded file-navigation-and-edit surface the
// agent loop exposes to the LLM: a cursor, a scrolling window, and a small
// set of lint-gated mutations, grounded on
// original_source/swe_agent/swe_agent/action/{open_file,scroll,
// edit_file_with_linting}_action.py.
package editor

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// State holds the editor's cursor and window, plus the current working
// directory, for a single task. It is owned exclusively by the agent loop —
// no locking is required.
type State struct {
	CurrentDirectory string // absolute
	CurrentFile      string // relative to CurrentDirectory; "" if unset
	CurrentLine      int    // 1-based; 0 if unset
	WindowSize       int    // positive
	Overlap          int    // 0 <= Overlap < WindowSize

	LastActionReturn string
}

// New creates a State rooted at dir with the given window parameters.
func New(dir string, windowSize, overlap int) *State {
	return &State{CurrentDirectory: dir, WindowSize: windowSize, Overlap: overlap}
}

// absPath resolves a path relative to the current directory.
func (s *State) absPath(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.CurrentDirectory, rel)
}

// countLines returns the number of newline-terminated lines in path.
func countLines(path string) (int, error) {
	f, err := os.Open(path) //nolint:gosec // path is resolved under the task's own sandboxed directory.
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// readLines reads all lines of path, without the trailing newline.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is resolved under the task's own sandboxed directory.
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// constrainLine clamps line into [halfWindow, maxLine-halfWindow], the
// symmetric half-window scheme from open_file_action.py's constrain_line
// (the scheme chosen for symmetric clamping near either edge).
func constrainLine(line, maxLine, window int) int {
	half := window / 2
	hi := maxLine - half
	if hi < half {
		hi = half
	}
	if line > hi {
		line = hi
	}
	if line < half {
		line = half
	}
	return line
}

// renderWindow builds the "[File: ...]" block the model sees, centered on
// currentLine with the given window, mirroring open_file_action.py's print().
func renderWindow(absPath, relPath string, currentLine, window int) (string, error) {
	lines, err := readLines(absPath)
	if err != nil {
		return "", err
	}
	total := len(lines)

	start := currentLine + window/2 - window
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := currentLine + window/2
	if end > total {
		end = total
	}
	if end < start {
		end = start
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[File: %s (%d lines total)]\n", absPath, total)
	if start > 0 {
		fmt.Fprintf(&b, "(%d more lines above)\n", start)
	}
	for i := start; i < end; i++ {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, lines[i])
	}
	if end < total {
		fmt.Fprintf(&b, "(%d more lines below)\n", total-end)
	}
	_ = relPath
	return b.String(), nil
}

// OpenFile sets the cursor to path at the given line (0 for "don't move the
// line, just open"). Returns an error if the path is missing, a directory, or
// the line is out of range.
func (s *State) OpenFile(path string, line int) error {
	abs := s.absPath(path)
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		s.LastActionReturn = "File path is not valid."
		return fmt.Errorf("open_file: %s: not a valid file", path)
	}

	maxLine, err := countLines(abs)
	if err != nil {
		return err
	}
	if line != 0 && (line < 1 || line > maxLine) {
		s.LastActionReturn = "Line number is not within the valid range."
		return fmt.Errorf("open_file: line %d out of range [1,%d]", line, maxLine)
	}

	s.CurrentFile = path
	s.CurrentLine = constrainLine(line, maxLine, s.WindowSize)
	rendered, err := renderWindow(abs, path, s.CurrentLine, s.WindowSize)
	if err != nil {
		return err
	}
	s.LastActionReturn = rendered
	return nil
}

// GotoLine re-centers the window at line.
func (s *State) GotoLine(line int) error {
	if s.CurrentFile == "" {
		s.LastActionReturn = "No file open."
		return fmt.Errorf("goto_line: no file open")
	}
	abs := s.absPath(s.CurrentFile)
	maxLine, err := countLines(abs)
	if err != nil {
		return err
	}
	if line > maxLine {
		s.LastActionReturn = "Line number is not within the valid range."
		return fmt.Errorf("goto_line: line %d > max %d", line, maxLine)
	}
	s.CurrentLine = constrainLine(line, maxLine, s.WindowSize)
	rendered, err := renderWindow(abs, s.CurrentFile, s.CurrentLine, s.WindowSize)
	if err != nil {
		return err
	}
	s.LastActionReturn = rendered
	return nil
}

// Scroll moves the cursor by one window minus the configured overlap, in the
// given direction, mirroring scroll_action.py.
func (s *State) Scroll(up bool) error {
	if s.CurrentFile == "" {
		s.LastActionReturn = "No file open or scroll direction provided."
		return fmt.Errorf("scroll: no file open")
	}
	abs := s.absPath(s.CurrentFile)
	if _, err := os.Stat(abs); err != nil {
		s.LastActionReturn = "Current file does not exist."
		return fmt.Errorf("scroll: %w", err)
	}
	maxLine, err := countLines(abs)
	if err != nil {
		return err
	}

	var newLine int
	if up {
		newLine = s.CurrentLine - s.WindowSize + s.Overlap
	} else {
		newLine = s.CurrentLine + s.WindowSize - s.Overlap
	}
	s.CurrentLine = constrainLine(newLine, maxLine, s.WindowSize)
	rendered, err := renderWindow(abs, s.CurrentFile, s.CurrentLine, s.WindowSize)
	if err != nil {
		return err
	}
	s.LastActionReturn = rendered
	return nil
}

// CreateFile writes a single-newline file at path and opens it. Fails if the
// path already exists.
func (s *State) CreateFile(path string) error {
	abs := s.absPath(path)
	if _, err := os.Stat(abs); err == nil {
		s.LastActionReturn = fmt.Sprintf("File %s already exists.", path)
		return fmt.Errorf("create_file: %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(abs, []byte("\n"), 0o644); err != nil { //nolint:gosec // sandboxed task workspace, not a shared path.
		return err
	}
	return s.OpenFile(path, 1)
}

// Ls lists the current directory with size and mtime.
func (s *State) Ls() (string, error) {
	entries, err := os.ReadDir(s.CurrentDirectory)
	if err != nil {
		s.LastActionReturn = "Directory does not exist."
		return "", err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var b strings.Builder
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "%10d  %s  %s\n", info.Size(), info.ModTime().Format("2006-01-02 15:04"), e.Name())
	}
	s.LastActionReturn = b.String()
	return s.LastActionReturn, nil
}

// Cd changes the current working directory.
func (s *State) Cd(path string) error {
	abs := s.absPath(path)
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		s.LastActionReturn = "Directory does not exist."
		return fmt.Errorf("cd: %s: not a directory", path)
	}
	s.CurrentDirectory = abs
	s.LastActionReturn = fmt.Sprintf("Changed directory to %s", abs)
	return nil
}
