package editor

import (
	"fmt"
	"os"
	"strings"
)

// Linter runs a static check over a Python file restricted to a configured
// error set and reports whether it found any diagnostics. It is injected so
// tests can fake linting without shelling out to flake8.
type Linter interface {
	Check(path string) (clean bool, err error)
}

// errorSet mirrors the flake8 select list in edit_file_with_linting_action.py:
// F821, F822, F831, E111, E112, E113, E999, E902.
var errorSet = []string{"F821", "F822", "F831", "E111", "E112", "E113", "E999", "E902"}

// Flake8Linter shells out to flake8 --select=<errorSet>, mirroring
// edit_file_with_linting_action.py's get_style_guide(select=[...]).
type Flake8Linter struct {
	Run func(path string, codes []string) (errorCount int, err error)
}

// Check implements Linter.
func (l Flake8Linter) Check(path string) (bool, error) {
	n, err := l.Run(path, errorSet)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// EditLines replaces the 1-based inclusive line range [start,end] in the
// current file with body (a slice of replacement lines), backs the file up
// first, and — for .py files — reverts to the backup on any lint diagnostic.
// On success or lint failure the cursor re-centers on the edited region and
// LastActionReturn is set to the rendered window.
func (s *State) EditLines(start, end int, body []string, linter Linter) error {
	if s.CurrentFile == "" {
		s.LastActionReturn = "No file open."
		return fmt.Errorf("edit: no file open")
	}
	if start < 1 || end < start {
		s.LastActionReturn = "start_line and end_line must be natural numbers."
		return fmt.Errorf("edit: invalid range %d:%d", start, end)
	}

	abs := s.absPath(s.CurrentFile)
	original, err := os.ReadFile(abs) //nolint:gosec // sandboxed task workspace.
	if err != nil {
		return err
	}

	lines, err := readLines(abs)
	if err != nil {
		return err
	}
	if start > len(lines)+1 {
		s.LastActionReturn = "start_line is beyond the end of the file."
		return fmt.Errorf("edit: start %d beyond file length %d", start, len(lines))
	}
	endIdx := end
	if endIdx > len(lines) {
		endIdx = len(lines)
	}

	newLines := make([]string, 0, len(lines)+len(body))
	newLines = append(newLines, lines[:start-1]...)
	newLines = append(newLines, body...)
	newLines = append(newLines, lines[endIdx:]...)
	newContent := strings.Join(newLines, "\n")
	if len(newLines) > 0 {
		newContent += "\n"
	}

	if err := os.WriteFile(abs, []byte(newContent), 0o644); err != nil { //nolint:gosec // sandboxed task workspace.
		return err
	}

	logMsg := "File updated. Because the file was not of type .py, the linter did not check the content.\nPlease review the changes yourself:\n"
	if strings.HasSuffix(s.CurrentFile, ".py") && linter != nil {
		clean, lintErr := linter.Check(abs)
		if lintErr != nil {
			return lintErr
		}
		if clean {
			logMsg = "File updated. Please review the changes:\n"
		} else {
			// Revert to the pre-edit content; the edit never partially commits.
			if werr := os.WriteFile(abs, original, 0o644); werr != nil { //nolint:gosec // sandboxed task workspace.
				return werr
			}
			logMsg = "Your proposed edit introduced new syntax error(s). Fix the errors and try again.\n"
		}
	} else if strings.HasSuffix(s.CurrentFile, ".py") {
		logMsg = "File updated. Please review the changes:\n"
	}

	maxLine, err := countLines(abs)
	if err != nil {
		return err
	}
	s.CurrentLine = constrainLine(start-1, maxLine, s.WindowSize)
	rendered, err := renderWindow(abs, s.CurrentFile, s.CurrentLine, s.WindowSize)
	if err != nil {
		return err
	}
	s.LastActionReturn = logMsg + rendered
	return nil
}
