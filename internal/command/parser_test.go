package command

import "testing"

var testCmds = []Descriptor{
	{Name: "ls", Signature: "ls [<dir>]", Arguments: []Argument{{Name: "dir", Required: false}}},
	{Name: "edit", Signature: "edit <start> <end>\nend_of_edit\nend_of_edit", EndMarker: "end_of_edit",
		Arguments: []Argument{{Name: "start", Required: true}, {Name: "end", Required: true}, {Name: "content", Required: true}}},
}

func TestThoughtActionParser(t *testing.T) {
	p := thoughtActionParser{}
	reply := "Let's look around.\n```\nls -l\n```\n"
	thought, action, err := p.Parse(reply, testCmds)
	if err != nil {
		t.Fatal(err)
	}
	if action != "ls -l" {
		t.Errorf("action = %q", action)
	}
	if thought != "Let's look around." {
		t.Errorf("thought = %q", thought)
	}
}

func TestThoughtActionParserNoFence(t *testing.T) {
	p := thoughtActionParser{}
	if _, _, err := p.Parse("no code block here", testCmds); err == nil {
		t.Error("expected FormatError")
	} else if _, ok := err.(*FormatError); !ok {
		t.Errorf("err type = %T, want *FormatError", err)
	}
}

func TestThoughtActionParserLastBlockWins(t *testing.T) {
	p := thoughtActionParser{}
	reply := "```\nfirst\n```\n```\nsecond\n```\n"
	_, action, err := p.Parse(reply, testCmds)
	if err != nil {
		t.Fatal(err)
	}
	if action != "second" {
		t.Errorf("action = %q, want last block", action)
	}
}

func TestXMLThoughtActionParser(t *testing.T) {
	p := xmlThoughtActionParser{}
	reply := "thinking...\n<command>\nls -l\n</command>\n"
	thought, action, err := p.Parse(reply, testCmds)
	if err != nil {
		t.Fatal(err)
	}
	if action != "ls -l" || thought != "thinking..." {
		t.Errorf("thought=%q action=%q", thought, action)
	}
}

func TestIdentityParser(t *testing.T) {
	p := identityParser{}
	thought, action, err := p.Parse("whatever", nil)
	if err != nil {
		t.Fatal(err)
	}
	if thought != "whatever" || action != "whatever" {
		t.Errorf("got thought=%q action=%q", thought, action)
	}
}

// TestJSONParserRoundTrip checks that for a command descriptor
// with only string arguments and no end_marker, rendering via the JSON
// parser yields one envelope with the same command_name and shell-quoted
// arguments.
func TestJSONParserRoundTrip(t *testing.T) {
	p := jsonParser{}
	reply := `{"thought": "list it", "command": {"name": "ls", "arguments": {"dir": "my dir"}}}`
	thought, action, err := p.Parse(reply, testCmds)
	if err != nil {
		t.Fatal(err)
	}
	if thought != "list it" {
		t.Errorf("thought = %q", thought)
	}
	want := "ls 'my dir'"
	if action != want {
		t.Errorf("action = %q, want %q", action, want)
	}

	reg := NewRegistry(testCmds, nil)
	envs, err := reg.Split(action, "primary")
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 || envs[0].Command != "ls" {
		t.Fatalf("envelopes = %+v", envs)
	}
}

func TestJSONParserInvalidJSON(t *testing.T) {
	p := jsonParser{}
	if _, _, err := p.Parse("not json", testCmds); err == nil {
		t.Error("expected FormatError")
	}
}

// TestHeredocGuard checks that a multi-line command's opening
// line ends in "<< 'marker'" and a line equal to the marker appears exactly.
func TestHeredocGuard(t *testing.T) {
	raw := "edit 1 3\nnew content\nend_of_edit"
	got := Heredocify(raw, "end_of_edit")
	lines := splitLines(got)
	if lines[0] != "edit 1 3 << 'end_of_edit'" {
		t.Errorf("opening line = %q", lines[0])
	}
	last := lines[len(lines)-1]
	if last != "end_of_edit" {
		t.Errorf("closing line = %q", last)
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func TestNewParserUnknown(t *testing.T) {
	if _, err := NewParser("nonexistent"); err == nil {
		t.Error("expected error for unknown parser name")
	}
}
