package tree

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxDepth bounds tree construction so malformed or hostile documents
// cannot exhaust the stack through alias nesting.
const maxDepth = 1000

// LoadError reports a document that could not be read or structurally
// parsed, including duplicate-key rejection.
type LoadError struct {
	Path string // file base name or logical document name
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Decode parses a YAML document in the default mode: mappings reject a key
// that appears twice at the same level, and keys must be scalars.
// An empty document decodes to an empty mapping.
func Decode(src []byte) (*Map, error) {
	return decode(src, false)
}

// DecodeOrdered parses a YAML document in the order-preserving mode: a
// duplicate key overwrites the earlier value and moves to the last
// position, which is the intended semantic for rule blocks.
func DecodeOrdered(src []byte) (*Map, error) {
	return decode(src, true)
}

// Load reads and decodes the file at path in the default mode.
// Failures are reported as a LoadError naming the file's base name.
func Load(path string) (*Map, error) {
	return load(path, Decode)
}

// LoadOrdered reads and decodes the file at path in the ordered mode.
func LoadOrdered(path string) (*Map, error) {
	return load(path, DecodeOrdered)
}

func load(path string, decode func([]byte) (*Map, error)) (*Map, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: filepath.Base(path), Err: err}
	}
	m, err := decode(src)
	if err != nil {
		return nil, &LoadError{Path: filepath.Base(path), Err: err}
	}
	return m, nil
}

func decode(src []byte, ordered bool) (*Map, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		// Empty document.
		return NewMap(), nil
	}
	v, err := build(&root, ordered, 0)
	if err != nil {
		return nil, err
	}
	switch doc := v.(type) {
	case *Map:
		return doc, nil
	case nil:
		return NewMap(), nil
	default:
		return nil, fmt.Errorf("expected a mapping document, found %s", kindName(v))
	}
}

func build(n *yaml.Node, ordered bool, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("document nesting exceeds %d levels", maxDepth)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return build(n.Content[0], ordered, depth+1)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: found unacceptable mapping key (%s)",
					keyNode.Line, nodeKindName(keyNode))
			}
			var key string
			if err := keyNode.Decode(&key); err != nil {
				return nil, err
			}
			if !ordered && m.Has(key) {
				return nil, fmt.Errorf("line %d: found already in-use key (%s)", keyNode.Line, key)
			}
			val, err := build(valNode, ordered, depth+1)
			if err != nil {
				return nil, err
			}
			m.SetLast(key, val)
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := build(c, ordered, depth+1)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	case yaml.ScalarNode:
		return buildScalar(n)
	case yaml.AliasNode:
		return build(n.Alias, ordered, depth+1)
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind", n.Line)
	}
}

func buildScalar(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		var v bool
		err := n.Decode(&v)
		return v, err
	case "!!int":
		var v int
		err := n.Decode(&v)
		return v, err
	case "!!float":
		var v float64
		err := n.Decode(&v)
		return v, err
	case "!!str":
		return n.Value, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func nodeKindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown"
	}
}
