package command

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchFilesReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.sh")
	initial := "# @yaml\n# docstring: says hi\n# end_name: \"\"\nhello() {\n  echo hi\n}\n"
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan []Descriptor, 1)
	w, err := WatchFiles([]string{path}, func(descs []Descriptor, err error) {
		if err != nil {
			t.Errorf("reload error: %v", err)
			return
		}
		reloaded <- descs
	})
	if err != nil {
		t.Fatalf("WatchFiles: %v", err)
	}
	defer func() { _ = w.Close() }()

	updated := "# @yaml\n# docstring: says bye\n# end_name: \"\"\nbye() {\n  echo bye\n}\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case descs := <-reloaded:
		if len(descs) != 1 || descs[0].Name != "bye" {
			t.Errorf("descs = %+v", descs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}
}
