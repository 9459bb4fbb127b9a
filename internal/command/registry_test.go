package command

import "testing"

func TestBlockedReasonPrefix(t *testing.T) {
	r := NewRegistry(nil, nil)
	if reason := r.BlockedReason("vim somefile.py"); reason == "" {
		t.Error("expected vim to be blocked")
	}
	if reason := r.BlockedReason("ls -l"); reason != "" {
		t.Errorf("ls should not be blocked, got %q", reason)
	}
}

func TestBlockedReasonStandalone(t *testing.T) {
	r := NewRegistry(nil, nil)
	if reason := r.BlockedReason("python"); reason == "" {
		t.Error("expected bare python to be blocked")
	}
	if reason := r.BlockedReason("python script.py"); reason == "" {
		t.Error("expected python with arguments to be blocked by prefix rule too")
	}
}

// TestEndMarkersCommandWins checks that when a
// command and subroutine share a name, the command-side end_marker wins on
// merge.
func TestEndMarkersCommandWins(t *testing.T) {
	r := NewRegistry(
		[]Descriptor{{Name: "submit", EndMarker: "command_marker"}},
		[]Descriptor{{Name: "submit", EndMarker: "subroutine_marker"}},
	)
	got := r.EndMarkers()["submit"]
	if got != "command_marker" {
		t.Errorf("end marker = %q, want command_marker", got)
	}
}

func TestDocs(t *testing.T) {
	r := NewRegistry(
		[]Descriptor{{Name: "ls", Signature: "ls [<dir>]", Docstring: "list files"}},
		[]Descriptor{{Name: "reviewer", Docstring: "review the change"}},
	)
	docs := r.Docs()
	if docs == "" {
		t.Error("expected non-empty docs")
	}
}

func TestFind(t *testing.T) {
	r := NewRegistry([]Descriptor{{Name: "ls"}}, nil)
	if _, ok := r.Find("ls"); !ok {
		t.Error("expected to find ls")
	}
	if _, ok := r.Find("missing"); ok {
		t.Error("expected not to find missing")
	}
}
