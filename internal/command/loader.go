package command

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// docBlock is the YAML shape embedded as "# @yaml\n# docstring: ...\n# ..."
// comments, mirroring bash_command_parser.py's docs_dict.
type docBlock struct {
	Docstring string                    `yaml:"docstring"`
	EndName   string                    `yaml:"end_name"`
	Signature string                    `yaml:"signature"`
	Arguments map[string]docBlockArgRaw `yaml:"arguments"`
}

type docBlockArgRaw struct {
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
	Description string `yaml:"description"`
}

func (d docBlock) toArguments() ([]Argument, []string) {
	if len(d.Arguments) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(d.Arguments))
	for name := range d.Arguments {
		names = append(names, name)
	}
	// YAML maps have no stable order once decoded; sort so that derived
	// signatures are reproducible across runs.
	sort.Strings(names)
	args := make([]Argument, 0, len(names))
	for _, name := range names {
		raw := d.Arguments[name]
		args = append(args, Argument{Name: name, Type: raw.Type, Required: raw.Required, Description: raw.Description})
	}
	return args, names
}

// LoadFile parses a single command catalogue file. It recognizes the two
// shapes a command catalogue file can take: a shell file of "name() { ... }" functions
// each preceded by "# " doc-comment lines containing an embedded "@yaml"
// block, or a standalone script with a "#!" shebang and exactly one
// "# @yaml" comment block.
func LoadFile(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path) //nolint:gosec // command catalogue paths are operator-configured, not user input.
	if err != nil {
		return nil, err
	}
	contents := string(data)
	base := filepath.Base(path)

	if strings.HasPrefix(strings.TrimSpace(contents), "#!") {
		descs, err := parseScript(path, contents)
		if err != nil {
			return nil, err
		}
		if len(descs) == 0 && !strings.HasPrefix(base, "_") {
			return nil, fmt.Errorf("command: %s: non-shell file has no @yaml docstring block and does not start with '_'", path)
		}
		return descs, nil
	}

	if !strings.HasSuffix(path, ".sh") && !strings.HasPrefix(base, "_") {
		return nil, fmt.Errorf("command: %s: source file does not have a .sh extension; use a shebang for non-shell scripts", path)
	}
	descs, err := parseBashFunctions(contents)
	if err != nil {
		return nil, err
	}
	if len(descs) == 0 && !strings.HasPrefix(base, "_") {
		return nil, fmt.Errorf("command: %s: no commands found; prefix utility files with '_'", path)
	}
	return descs, nil
}

// LoadAll loads and concatenates every file named in paths, in order.
func LoadAll(paths []string) ([]Descriptor, error) {
	var all []Descriptor
	for _, p := range paths {
		descs, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, descs...)
	}
	return all, nil
}

var funcHeaderRe = regexp.MustCompile(`\s*\)\s*\{\s*$`)

// parseBashFunctions segments a bash file into one Descriptor per
// "name() {" ... "}" function, per BashCommandParser.parse_bash_functions.
// It assumes the opening line carries the name and brace, and the closing
// brace sits alone on its own line.
func parseBashFunctions(contents string) ([]Descriptor, error) {
	lines := strings.Split(contents, "\n")
	var descs []Descriptor
	var docLines []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "# "):
			docLines = append(docLines, line[2:])
		case funcHeaderRe.MatchString(line):
			name := strings.Fields(line)[0]
			name = strings.TrimSuffix(name, "()")
			var code strings.Builder
			code.WriteString(line)
			code.WriteString("\n")
			for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "}" {
				i++
				code.WriteString(lines[i])
				code.WriteString("\n")
			}
			if i+1 < len(lines) {
				i++
				code.WriteString(lines[i])
				code.WriteString("\n")
			}
			desc, err := descriptorFromDocLines(name, code.String(), docLines)
			if err != nil {
				return nil, fmt.Errorf("command: function %s: %w", name, err)
			}
			descs = append(descs, desc)
			docLines = nil
		default:
			docLines = nil
		}
	}
	return descs, nil
}

func descriptorFromDocLines(name, code string, docLines []string) (Descriptor, error) {
	desc := Descriptor{Name: name, Signature: name, Code: code}
	if len(docLines) == 0 {
		return desc, nil
	}
	raw := strings.ReplaceAll(strings.Join(docLines, "\n"), "@yaml", "")
	var db docBlock
	if err := yaml.Unmarshal([]byte(raw), &db); err != nil {
		return desc, fmt.Errorf("parsing @yaml doc block: %w", err)
	}
	desc.Docstring = db.Docstring
	desc.EndMarker = db.EndName
	args, _ := db.toArguments()
	desc.Arguments = args
	if db.Signature != "" {
		desc.Signature = db.Signature
	} else {
		desc.Signature = signature(name, args, db.EndName)
	}
	return desc, nil
}

var yamlBlockRe = regexp.MustCompile(`(?m)^#\s*@yaml\s*\n(?:^#.*\n?)*`)

// parseScript extracts the single "# @yaml ... " comment block from a
// shebang script, per BashCommandParser.parse_script.
func parseScript(path, contents string) ([]Descriptor, error) {
	matches := yamlBlockRe.FindAllString(contents, -1)
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("command: %s: multiple @yaml blocks; only one is allowed per script", path)
	}

	block := matches[0]
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, "#")
	}
	raw := strings.ReplaceAll(strings.Join(lines, "\n"), "@yaml", "")

	var db docBlock
	if err := yaml.Unmarshal([]byte(raw), &db); err != nil {
		return nil, fmt.Errorf("command: %s: parsing @yaml block: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	args, _ := db.toArguments()
	sig := db.Signature
	if sig == "" && len(args) > 0 {
		sig = signature(name, args, db.EndName)
	} else if sig == "" {
		sig = name
	}
	return []Descriptor{{
		Name:      name,
		Docstring: db.Docstring,
		Signature: sig,
		EndMarker: db.EndName,
		Arguments: args,
		Code:      contents,
	}}, nil
}
