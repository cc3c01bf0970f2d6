package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SchemaError reports a malformed or unresolvable spec node: missing type
// key, bad collection-name decomposition, unresolved named type, missing
// kids, or a conditional expression that failed to evaluate.
type SchemaError struct {
	Path    string
	Value   any
	Message string
}

func (e *SchemaError) Error() string {
	return formatDiag(e.Path, e.Value, e.Message)
}

// ValidationError reports a data tree that violates the compiled schema.
// Path is the dotted/bracketed location of the offending node and Value the
// raw offending value.
type ValidationError struct {
	Path    string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return formatDiag(e.Path, e.Value, e.Message)
}

// formatDiag renders "path: message" followed by a YAML snippet of the
// offending value. The snippet shape is part of the message contract.
func formatDiag(path string, value any, message string) string {
	return fmt.Sprintf("%s: %s\ncode:\n%s\n", path, message, snippet(value))
}

func snippet(value any) string {
	out, err := yaml.Marshal(value)
	if err != nil {
		out = []byte(fmt.Sprintf("%v\n", value))
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
