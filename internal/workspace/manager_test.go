package workspace

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func initRemote(t *testing.T) (remoteDir, baseCommit string) {
	t.Helper()
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "f.txt"), []byte("base\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, args := range [][]string{{"add", "f.txt"}, {"commit", "-q", "-m", "base"}} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v: %s", args, err, out)
		}
	}
	out, err := exec.Command("git", "-C", dir, "rev-parse", "HEAD").Output()
	if err != nil {
		t.Fatal(err)
	}
	return dir, string(out[:len(out)-1])
}

type localSource struct{ url string }

func (l localSource) MirrorURL(repo string) string     { return "" }
func (l localSource) CanonicalURL(repo string) string   { return l.url }

func TestResetClonesAndHardResets(t *testing.T) {
	remote, base := initRemote(t)
	root := t.TempDir()
	m := &Manager{Root: root, Source: localSource{url: remote}}

	task := Task{InstanceID: "x", Repo: "owner/f", BaseCommit: base}
	state, err := m.Reset(context.Background(), task)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if state.Path != filepath.Join(root, "f") {
		t.Errorf("Path = %q", state.Path)
	}
	if _, err := os.Stat(filepath.Join(state.Path, "f.txt")); err != nil {
		t.Errorf("expected cloned file present: %v", err)
	}
	for _, k := range []string{"CURRENT_FILE", "CURRENT_LINE", "WINDOW", "OVERLAP"} {
		if state.EditorEnvVars[k] != "" {
			t.Errorf("%s should be zeroed, got %q", k, state.EditorEnvVars[k])
		}
	}
}

func TestResetAppliesTestPatch(t *testing.T) {
	remote, base := initRemote(t)
	root := t.TempDir()
	m := &Manager{Root: root, Source: localSource{url: remote}}

	patch := `diff --git a/f.txt b/f.txt
index 0000000..1111111 100644
--- a/f.txt
+++ b/f.txt
@@ -1 +1 @@
-base
+patched-by-test
`
	task := Task{InstanceID: "x", Repo: "owner/f", BaseCommit: base, TestPatch: patch}
	state, err := m.Reset(context.Background(), task)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(state.Path, "f.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "patched-by-test\n" {
		t.Errorf("f.txt = %q", got)
	}
}

func TestBuildRecipeRejectsMissingInterpreter(t *testing.T) {
	m := &Manager{Root: t.TempDir()}
	state := &State{}
	if err := m.BuildRecipe(state, "env", Recipe{}); err == nil {
		t.Error("expected error for empty interpreter")
	}
}
