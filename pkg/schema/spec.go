package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/topiary/pkg/tree"
)

// specNode is the declarative description of one schema node, decoded from
// a spec mapping. Attribute names form a closed set; anything else in a
// spec node is a SchemaError.
type specNode struct {
	Type        string `mapstructure:"type"`
	Kids        any    `mapstructure:"kids"`
	Values      []any  `mapstructure:"values"`
	Required    any    `mapstructure:"required"`
	Forbidden   any    `mapstructure:"forbidden"`
	MaybeNull   any    `mapstructure:"maybenull"`
	Default     any    `mapstructure:"default"`
	NamesType   any    `mapstructure:"names_type"`
	Description string `mapstructure:"description"`

	raw *tree.Map
}

func decodeSpec(path string, raw any) (*specNode, error) {
	m, ok := raw.(*tree.Map)
	if !ok {
		return nil, &SchemaError{Path: path, Value: raw,
			Message: fmt.Sprintf("item should be an iterable mapping but is of type %s", tree.KindName(raw))}
	}
	plain := make(map[string]any, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		plain[k] = v
	}

	var sn specNode
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &sn,
		Metadata: &md,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(plain); err != nil {
		return nil, &SchemaError{Path: path, Value: raw, Message: err.Error()}
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return nil, &SchemaError{Path: path, Value: raw,
			Message: fmt.Sprintf("unknown attribute(s) %s in type spec, allowed: %s",
				strings.Join(md.Unused, ", "), strings.Join(specAttrNames, ", "))}
	}
	sn.raw = m
	return &sn, nil
}

var specAttrNames = []string{
	"type", "kids", "values", "required", "forbidden", "maybenull",
	"default", "names_type", "description",
}
