package command

import "testing"

func TestSplitSingleCommand(t *testing.T) {
	r := NewRegistry([]Descriptor{{Name: "ls"}}, nil)
	envs, err := r.Split("ls -l\n", "primary")
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 || envs[0].Agent != "primary" || envs[0].Raw != "ls -l" {
		t.Fatalf("envelopes = %+v", envs)
	}
}

func TestSplitSubroutineEnvelope(t *testing.T) {
	r := NewRegistry(
		[]Descriptor{{Name: "ls"}},
		[]Descriptor{{Name: "reviewer"}},
	)
	envs, err := r.Split("ls -l\nreviewer check this\n", "primary")
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 2 {
		t.Fatalf("got %d envelopes, want 2: %+v", len(envs), envs)
	}
	if envs[0].Agent != "primary" || envs[0].Command != "ls" {
		t.Errorf("envelope 0 = %+v", envs[0])
	}
	if envs[1].Agent != "reviewer" || envs[1].Command != "reviewer" {
		t.Errorf("envelope 1 = %+v", envs[1])
	}
}

func TestSplitHeredocCommand(t *testing.T) {
	r := NewRegistry([]Descriptor{{Name: "edit", EndMarker: "end_of_edit"}}, nil)
	action := "edit 1 3\nnew content\nend_of_edit\n"
	envs, err := r.Split(action, "primary")
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 {
		t.Fatalf("got %d envelopes, want 1: %+v", len(envs), envs)
	}
	if envs[0].Raw != "edit 1 3\nnew content\nend_of_edit" {
		t.Errorf("raw = %q", envs[0].Raw)
	}
}

func TestSplitUnrecognizedCommand(t *testing.T) {
	r := NewRegistry([]Descriptor{{Name: "ls"}}, nil)
	if _, err := r.Split("frobnicate everything\n", "primary"); err == nil {
		t.Error("expected error for unrecognized command")
	}
}
