package gitutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func initRepo(t *testing.T) string {
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
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := exec.Command("git", "add", "a.txt")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git add: %v: %s", err, out)
	}
	cmd = exec.Command("git", "commit", "-q", "-m", "init")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git commit: %v: %s", err, out)
	}
	return dir
}

func TestResetHardAndClean(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	commit, err := CurrentCommit(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("changed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("junk\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ResetHard(ctx, dir, commit); err != nil {
		t.Fatalf("ResetHard: %v", err)
	}
	if err := CleanAll(ctx, dir); err != nil {
		t.Fatalf("CleanAll: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "one\n" {
		t.Errorf("a.txt = %q, want restored to %q", got, "one\n")
	}
	if _, err := os.Stat(filepath.Join(dir, "untracked.txt")); !os.IsNotExist(err) {
		t.Errorf("untracked.txt should have been removed by CleanAll")
	}
}

func TestMaxBranchSeqNum(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	if n, err := MaxBranchSeqNum(ctx, dir, "sweagent/w"); err != nil || n != -1 {
		t.Fatalf("got (%d, %v), want (-1, nil) with no matching branches", n, err)
	}

	head, err := CurrentCommit(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := CreateBranch(ctx, dir, "sweagent/w3", head); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	if err := CheckoutBranch(ctx, dir, "master"); err != nil {
		if err2 := CheckoutBranch(ctx, dir, "main"); err2 != nil {
			t.Fatalf("checkout back to base failed: %v / %v", err, err2)
		}
	}
	if err := CreateBranch(ctx, dir, "sweagent/w7", head); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	n, err := MaxBranchSeqNum(ctx, dir, "sweagent/w")
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Errorf("got %d, want 7", n)
	}
}

func TestApplyPatch(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	patch := `diff --git a/a.txt b/a.txt
index 257cc56..0000000 100644
--- a/a.txt
+++ b/a.txt
@@ -1 +1 @@
-one
+patched
`
	if err := ApplyPatch(ctx, dir, patch); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "patched\n" {
		t.Errorf("a.txt = %q, want %q", got, "patched\n")
	}
}
