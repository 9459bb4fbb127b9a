package trajectory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriterAppendStep(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "instance-1")

	if err := w.AppendStep(Step{Thought: "look around", Action: "ls"}, []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "go fix the bug"},
	}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatal(err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Trajectory) != 1 || f.Trajectory[0].Action != "ls" {
		t.Errorf("trajectory = %+v", f.Trajectory)
	}
	if len(f.History) != 2 {
		t.Errorf("history len = %d, want 2", len(f.History))
	}
}

func TestWriterMonotonicHistory(t *testing.T) {
	// Once step i is recorded, its first i entries are
	// byte-identical in every subsequent write.
	dir := t.TempDir()
	w := NewWriter(dir, "instance-2")

	history := []Message{{Role: RoleUser, Content: "first"}}
	if err := w.AppendStep(Step{Action: "a1"}, history); err != nil {
		t.Fatal(err)
	}
	firstWrite, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatal(err)
	}
	var snap1 File
	if err := json.Unmarshal(firstWrite, &snap1); err != nil {
		t.Fatal(err)
	}

	history = append(history, Message{Role: RoleAssistant, Content: "second"})
	if err := w.AppendStep(Step{Action: "a2"}, history); err != nil {
		t.Fatal(err)
	}
	secondWrite, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatal(err)
	}
	var snap2 File
	if err := json.Unmarshal(secondWrite, &snap2); err != nil {
		t.Fatal(err)
	}

	if snap2.Trajectory[0] != snap1.Trajectory[0] {
		t.Errorf("step 0 changed: %+v vs %+v", snap1.Trajectory[0], snap2.Trajectory[0])
	}
}

func TestWritePredictions(t *testing.T) {
	dir := t.TempDir()
	patch := "diff --git a/x b/x\n"
	if err := WritePredictions(dir, Prediction{ModelNameOrPath: "gpt-4", InstanceID: "i1", ModelPatch: &patch}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "all_preds.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	var pred Prediction
	if err := json.Unmarshal(data[:len(data)-1], &pred); err != nil {
		t.Fatal(err)
	}
	if pred.InstanceID != "i1" || pred.ModelPatch == nil || *pred.ModelPatch != patch {
		t.Errorf("pred = %+v", pred)
	}
}
