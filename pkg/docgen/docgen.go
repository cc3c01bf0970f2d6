// Package docgen renders spec documents to Markdown prose: a catalogue of
// the base types, any named types found on the type search path, and one
// section per spec file describing its root node.
package docgen

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/topiary/pkg/tree"
)

type baseType struct {
	name string
	desc string
}

var baseTypes = []baseType{
	{"anything", "No type check is done on this base type."},
	{"boolean", "Boolean value. Allowed values: `true` or `false`."},
	{"dict", "Named group of values where each named value has its own type, declared under `kids`."},
	{"float", "Floating point number."},
	{"integer", "Integer number. Example: `1`, `-1`, `123`."},
	{"list", "Ordered list of values of the same type. Compose the type name as `listof<type>s` " +
		"(note the trailing `s`), e.g. `listofstrings`. An optional `values` key restricts the " +
		"allowed elements."},
	{"map", "Named group of values of the same type, composed as `mapof<type>s`. Nested maps " +
		"keep one `s` per level: `mapofmapofstringss`. An optional `names_type` validates the keys."},
	{"set", "Unordered group of values of the same type where each value can appear only once, " +
		"composed as `setof<type>s`."},
	{"string", "Arbitrary string."},
}

// Generator writes the documentation for one product (one directory of
// spec files) to w.
type Generator struct {
	w       io.Writer
	product string
	known   map[string]bool
	err     error
}

// New creates a Generator for the named product.
func New(w io.Writer, product string) *Generator {
	g := &Generator{w: w, product: product, known: make(map[string]bool)}
	for _, bt := range baseTypes {
		g.known[bt.name] = true
	}
	return g
}

// Render emits the full document: base types, named types loaded from
// *.type.yaml files in typeDirs, then every *.meta.yaml in metaDir.
func (g *Generator) Render(metaDir string, typeDirs []string) error {
	g.printf("# YAML documentation for the product '%s'\n\n", g.product)
	g.printf("## Base types\n\n")
	g.printf("These are the base types that can be used in the YAML files.\n\n")
	for _, bt := range baseTypes {
		g.printf("### `%s`\n\n", bt.name)
		g.printf("%s\n\n", bt.desc)
	}

	named, err := loadNamedTypes(typeDirs)
	if err != nil {
		return err
	}
	if len(named) > 0 {
		g.printf("## Named types\n\n")
		names := make([]string, 0, len(named))
		for n := range named {
			names = append(names, n)
			g.known[n] = true
		}
		sort.Strings(names)
		for _, n := range names {
			g.printf("### `%s`\n\n", n)
			if err := g.writeSpec(n, named[n], 0); err != nil {
				return err
			}
		}
	}

	metas, err := filepath.Glob(filepath.Join(metaDir, "*.meta.yaml"))
	if err != nil {
		return err
	}
	sort.Strings(metas)
	for _, fn := range metas {
		if strings.Contains(fn, "types.meta") {
			continue
		}
		spec, err := tree.Load(fn)
		if err != nil {
			return err
		}
		name := strings.ReplaceAll(filepath.Base(fn), ".meta", "")
		g.printf("## `%s`\n\n", name)
		root, ok := spec.Get("root")
		if !ok {
			continue
		}
		if err := g.writeSpec(name, root, 0); err != nil {
			return err
		}
	}
	return g.err
}

// loadNamedTypes reads every *.type.yaml on the search path. Each file
// holds a mapping of type name to spec node.
func loadNamedTypes(dirs []string) (map[string]any, error) {
	out := make(map[string]any)
	for _, dir := range dirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.type.yaml"))
		if err != nil {
			return nil, err
		}
		sort.Strings(files)
		for _, fn := range files {
			doc, err := tree.Load(fn)
			if err != nil {
				return nil, err
			}
			for _, name := range doc.Keys() {
				v, _ := doc.Get(name)
				out[name] = v
			}
		}
	}
	return out, nil
}

func (g *Generator) writeSpec(path string, raw any, indent int) error {
	spec, ok := raw.(*tree.Map)
	if !ok || spec == nil {
		return fmt.Errorf("empty node: %s", path)
	}
	if desc, ok := spec.Get("description"); ok {
		g.line(indent, fmt.Sprintf("**Description:** %v", desc))
	}
	typVal, ok := spec.Get("type")
	if !ok {
		return fmt.Errorf("missing 'type' key in node '%s'", path)
	}
	typ := fmt.Sprint(typVal)

	required, _ := spec.Get("required")
	g.line(indent, fmt.Sprintf("**Required:** `%s`", tree.FormatValue(boolOr(required, false))))
	if def, ok := spec.Get("default"); ok {
		g.line(indent, fmt.Sprintf("**Default value:** `%s`", tree.FormatValue(def)))
	}
	if forb, ok := spec.Get("forbidden"); ok {
		g.line(indent, fmt.Sprintf("**Forbidden condition:** `%v`", forb))
	}
	g.line(indent, fmt.Sprintf("**Type:** %s", describeType(typ)))

	if nt, ok := spec.Get("names_type"); ok {
		switch v := nt.(type) {
		case string:
			g.line(indent, fmt.Sprintf("**Keys type:** `%s`", v))
		default:
			g.line(indent, "**Keys type:**")
			if err := g.writeSpec(path+"[name]", v, indent+1); err != nil {
				return err
			}
		}
	}

	if kidsVal, ok := spec.Get("kids"); ok {
		kids, ok := kidsVal.(*tree.Map)
		if !ok {
			return fmt.Errorf("node '%s' has non-mapping 'kids'", path)
		}
		g.line(indent, "**Parameters:**")
		keys := kids.Keys()
		sort.Strings(keys)
		for _, k := range keys {
			v, _ := kids.Get(k)
			g.line(indent+1, fmt.Sprintf("- `%s`", k))
			if err := g.writeSpec(path+"."+k, v, indent+2); err != nil {
				return err
			}
		}
	}

	if values, ok := spec.Get("values"); ok {
		if list, ok := values.([]any); ok {
			parts := make([]string, len(list))
			for i, v := range list {
				parts[i] = fmt.Sprintf("`%v`", v)
			}
			g.line(indent, "**Allowed values:** "+strings.Join(parts, ", "))
		}
	}
	return nil
}

// describeType renders a collection type name as prose, e.g.
// "setoflistsofstrings" becomes "set of list of string".
func describeType(typ string) string {
	for _, prefix := range []string{"listof", "setof", "mapof"} {
		if strings.HasPrefix(typ, prefix) {
			rest := strings.TrimPrefix(typ, prefix)
			for _, chained := range []string{"listsof", "setsof", "mapsof"} {
				if strings.HasPrefix(rest, chained) {
					return strings.TrimSuffix(prefix, "of") + " of " +
						describeType(strings.Replace(rest, "sof", "of", 1))
				}
			}
			return strings.TrimSuffix(prefix, "of") + " of " + strings.TrimSuffix(rest, "s")
		}
	}
	return "`" + typ + "`"
}

func boolOr(v any, def bool) any {
	if v == nil {
		return def
	}
	return v
}

func (g *Generator) printf(format string, args ...any) {
	if g.err == nil {
		_, g.err = fmt.Fprintf(g.w, format, args...)
	}
}

func (g *Generator) line(indent int, s string) {
	g.printf("%s%s\n\n", strings.Repeat("    ", indent), s)
}
