package tree

import "gopkg.in/yaml.v3"

// Map is an insertion-ordered mapping of string keys to tree nodes.
// It is the mapping variant of the data tree: values are scalars
// (string, int, float64, bool), nil, []any sequences, or nested *Map.
//
// Set keeps the position of an existing key; SetLast implements the
// ordered-loader refinement where re-assigning a key moves it to the end.
type Map struct {
	keys  []string
	items map[string]any
}

// NewMap creates an empty ordered mapping.
func NewMap() *Map {
	return &Map{items: make(map[string]any)}
}

// Len returns the number of keys.
func (m *Map) Len() int { return len(m.keys) }

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.items[key]
	return ok
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.items[key]
	return v, ok
}

// Set assigns key to value. A new key is appended; an existing key keeps
// its position.
func (m *Map) Set(key string, value any) {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = value
}

// SetLast assigns key to value and moves the key to the last position,
// whether or not it already existed (last-write position wins).
func (m *Map) SetLast(key string, value any) {
	m.Delete(key)
	m.keys = append(m.keys, key)
	m.items[key] = value
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	if _, ok := m.items[key]; !ok {
		return false
	}
	delete(m.items, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes all keys.
func (m *Map) Clear() {
	m.keys = m.keys[:0]
	for k := range m.items {
		delete(m.items, k)
	}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// ReplaceWith clears m and copies every entry of other into it, in order.
func (m *Map) ReplaceWith(other *Map) {
	m.Clear()
	for _, k := range other.keys {
		m.Set(k, other.items[k])
	}
}

// MarshalYAML emits the mapping preserving key order, so diagnostics can
// embed faithful code snippets.
func (m *Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		var key, val yaml.Node
		if err := key.Encode(k); err != nil {
			return nil, err
		}
		if err := val.Encode(m.items[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &key, &val)
	}
	return node, nil
}
