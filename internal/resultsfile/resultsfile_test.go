package resultsfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildReportCounts(t *testing.T) {
	outcomes := []Outcome{
		{InstanceID: "a", InstallFailed: true},
		{InstanceID: "b"}, // never generated a patch
		{InstanceID: "c", Generated: true},
		{InstanceID: "d", Generated: true, Applied: true},
		{InstanceID: "e", Generated: true, Applied: true, Resolved: true},
	}
	r := BuildReport(outcomes)
	if r.InstallFail != 1 || r.NotGenerated != 1 || r.Generated != 3 || r.Applied != 2 || r.Resolved != 1 {
		t.Fatalf("got %+v", r)
	}
	if len(r.ResolvedIDs) != 1 || r.ResolvedIDs[0] != "e" {
		t.Errorf("ResolvedIDs = %v", r.ResolvedIDs)
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	report := BuildReport([]Outcome{{InstanceID: "a", Generated: true, Applied: true, Resolved: true}})

	if err := Write(path, report); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Resolved != 1 {
		t.Errorf("Resolved = %d", got.Resolved)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "results.json" {
			t.Errorf("unexpected leftover file: %s", e.Name())
		}
	}
}
