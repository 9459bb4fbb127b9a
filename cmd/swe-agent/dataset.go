package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/swe-agent-go/sweagent/internal/workspace"
)

// taskRecord is the on-disk shape of one dataset entry (a SWE-bench-style
// instance), decoded into workspace.Task's read-only fields.
type taskRecord struct {
	InstanceID       string   `json:"instance_id"`
	Repo             string   `json:"repo"`
	BaseCommit       string   `json:"base_commit"`
	Patch            string   `json:"patch"`
	TestPatch        string   `json:"test_patch"`
	ProblemStatement string   `json:"problem_statement"`
	FailToPass       []string `json:"FAIL_TO_PASS"`
}

func (r taskRecord) toTask() workspace.Task {
	return workspace.Task{
		InstanceID:       r.InstanceID,
		Repo:             r.Repo,
		BaseCommit:       r.BaseCommit,
		Patch:            r.Patch,
		TestPatch:        r.TestPatch,
		ProblemStatement: r.ProblemStatement,
		FailToPass:       r.FailToPass,
	}
}

// loadTask reads a single JSON task record, for the "run" subcommand.
func loadTask(path string) (workspace.Task, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied dataset path.
	if err != nil {
		return workspace.Task{}, fmt.Errorf("reading task file %s: %w", path, err)
	}
	var r taskRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return workspace.Task{}, fmt.Errorf("parsing task file %s: %w", path, err)
	}
	return r.toTask(), nil
}

// loadDataset reads one JSON task record per line, for "run-batch".
func loadDataset(path string) ([]workspace.Task, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied dataset path.
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var tasks []workspace.Task
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var r taskRecord
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("dataset %s: line %d: %w", path, lineNo, err)
		}
		tasks = append(tasks, r.toTask())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	return tasks, nil
}

// datasetStem derives the {dataset_stem} component of the run directory
// naming convention: the dataset file's base name with its extension
// stripped.
func datasetStem(path string) string {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}
