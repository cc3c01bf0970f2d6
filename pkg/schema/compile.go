package schema

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/topiary/pkg/predicate"
	"github.com/aretw0/topiary/pkg/tree"
)

// Registry compiles spec nodes into types and holds named types for
// reference resolution. It is scoped to the processing of one document;
// nothing here is process-global.
//
// The document is needed at compile time because conditional attributes
// (required/forbidden/maybenull given as predicate strings) are evaluated
// once against the root data namespace.
type Registry struct {
	doc   *tree.Map
	types map[string]Type
}

// NewRegistry creates a registry whose conditional attributes evaluate
// against doc. A nil doc behaves like an empty document.
func NewRegistry(doc *tree.Map) *Registry {
	if doc == nil {
		doc = tree.NewMap()
	}
	return &Registry{doc: doc, types: make(map[string]Type)}
}

// Register adds or replaces a named type.
func (r *Registry) Register(name string, t Type) { r.types[name] = t }

// Lookup returns the named type, if registered.
func (r *Registry) Lookup(name string) (Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Compile turns a spec node into a compiled type. path qualifies error
// messages; name is the node's own name.
func (r *Registry) Compile(path, name string, raw any) (Type, error) {
	sn, err := decodeSpec(path, raw)
	if err != nil {
		return nil, err
	}
	return r.compile(path, name, sn)
}

var primitiveKinds = map[string]Kind{
	"string":   KindString,
	"integer":  KindInteger,
	"boolean":  KindBoolean,
	"float":    KindFloat,
	"anything": KindAnything,
}

func (r *Registry) compile(path, name string, sn *specNode) (Type, error) {
	if sn.Type == "" {
		return nil, &SchemaError{Path: path, Value: sn.raw,
			Message: "type spec must contain a 'type' key."}
	}

	var ret Type
	t := sn.Type
	switch {
	case primitiveKinds[t] != "":
		ret = &Scalar{Kind: primitiveKinds[t], Values: sn.Values}

	case strings.HasPrefix(t, "listof"):
		elem, _, err := r.compileComponent(path, t, sn)
		if err != nil {
			return nil, err
		}
		ret = &List{Elem: elem}

	case strings.HasPrefix(t, "setof"):
		elem, _, err := r.compileComponent(path, t, sn)
		if err != nil {
			return nil, err
		}
		ret = &Set{Elem: elem}

	case strings.HasPrefix(t, "mapof"):
		elem, comp, err := r.compileComponent(path, t, sn)
		if err != nil {
			return nil, err
		}
		keys, err := r.compileNamesType(path, comp, sn)
		if err != nil {
			return nil, err
		}
		ret = &Map{Elem: elem, Keys: keys}

	case strings.HasPrefix(t, "dict"):
		if !sn.raw.Has("kids") {
			return nil, &SchemaError{Path: path, Value: sn.raw,
				Message: fmt.Sprintf("dict type has no 'kids': %s", tree.FormatValue(sn.raw))}
		}
		kids, ok := sn.Kids.(*tree.Map)
		if !ok || sn.Kids == nil {
			return nil, &SchemaError{Path: path, Value: sn.raw,
				Message: "spec[\"kids\"] is None"}
		}
		d := &Dict{Kids: make(map[string]Type, kids.Len())}
		for _, k := range kids.Keys() {
			kidSpec, _ := kids.Get(k)
			kt, err := r.Compile(path+"."+k, k, kidSpec)
			if err != nil {
				return nil, err
			}
			d.Kids[k] = kt
			d.KidOrder = append(d.KidOrder, k)
		}
		ret = d

	default:
		named, ok := r.types[t]
		if !ok {
			return nil, &SchemaError{Path: path, Value: sn.raw,
				Message: fmt.Sprintf("unknown type: %s (supported: %s)", t, strings.Join(r.Names(), ", "))}
		}
		ret = named.clone()
	}

	attrs, err := r.resolveAttrs(path, sn)
	if err != nil {
		return nil, err
	}
	*ret.Attrs() = attrs
	return ret, nil
}

// compileComponent compiles the element type of a collection type name.
// The remainder of the spec node (values, kids, attributes) travels down
// with the component, so a "listofstrings" node carrying values restricts
// the elements.
func (r *Registry) compileComponent(path, typeName string, sn *specNode) (Type, string, error) {
	comp, err := componentType(typeName)
	if err != nil {
		return nil, "", &SchemaError{Path: path, Value: sn.raw, Message: err.Error()}
	}
	child := *sn
	child.Type = comp
	elem, err := r.compile(path+"[]."+comp, comp, &child)
	if err != nil {
		return nil, "", err
	}
	return elem, comp, nil
}

func (r *Registry) compileNamesType(path, comp string, sn *specNode) (Type, error) {
	switch nt := sn.NamesType.(type) {
	case nil:
		return nil, nil
	case string:
		named, ok := r.types[nt]
		if !ok {
			return nil, &SchemaError{Path: path, Value: sn.raw,
				Message: fmt.Sprintf("invalid type '%s' for node '%s', available: %s",
					nt, path, strings.Join(r.Names(), ", "))}
		}
		return named.clone(), nil
	default:
		return r.Compile(path+"[name]."+comp, comp, nt)
	}
}

// componentType decomposes a collection-type name by stripping the
// outermost of-prefix. Chained collections keep a marker "s": a set of
// lists of strings encodes as "setoflistsofstrings", so "listsof" collapses
// back to "listof"; a plain component drops its trailing plural "s".
func componentType(t string) (string, error) {
	i := strings.Index(t, "of")
	if i < 0 || i+2 >= len(t) {
		return "", fmt.Errorf("cannot decompose collection type name '%s'", t)
	}
	t = t[i+2:]
	for _, chained := range []string{"listsof", "setsof", "mapsof"} {
		if strings.HasPrefix(t, chained) {
			return strings.Replace(t, "sof", "of", 1), nil
		}
	}
	if len(t) < 2 {
		return "", fmt.Errorf("cannot decompose collection type name '%s'", t)
	}
	return t[:len(t)-1], nil
}

func (r *Registry) resolveAttrs(path string, sn *specNode) (Attrs, error) {
	a := Attrs{Default: sn.Default}
	for _, attr := range []struct {
		name string
		raw  any
		dst  *bool
	}{
		{"required", sn.Required, &a.Required},
		{"forbidden", sn.Forbidden, &a.Forbidden},
		{"maybenull", sn.MaybeNull, &a.MaybeNull},
	} {
		switch v := attr.raw.(type) {
		case nil:
			// attribute absent
		case bool:
			*attr.dst = v
		case string:
			b, err := r.evalCondition(v)
			if err != nil {
				return Attrs{}, &SchemaError{Path: path, Value: v,
					Message: "issue with conditional expression in yaml:\n" + err.Error()}
			}
			*attr.dst = b
		default:
			return Attrs{}, &SchemaError{Path: path, Value: attr.raw,
				Message: fmt.Sprintf("'%s' must be a boolean or a conditional expression", attr.name)}
		}
	}
	return a, nil
}

func (r *Registry) evalCondition(src string) (bool, error) {
	prog, err := predicate.Compile(src)
	if err != nil {
		return false, err
	}
	return prog.Eval(r.doc)
}

// Import compiles every (name, spec) pair of doc into the registry,
// supporting forward references in any declaration order: a pair that
// fails to compile is deferred and retried until either the queue empties
// or a full pass makes no progress. The no-progress case reports the first
// blocking failure.
func (r *Registry) Import(path string, doc *tree.Map) error {
	type pending struct {
		name string
		spec any
	}
	var queue []pending
	for _, name := range doc.Keys() {
		spec, _ := doc.Get(name)
		queue = append(queue, pending{name: name, spec: spec})
	}

	var problems []error
	for len(queue) > 0 && len(problems) != len(queue) {
		p := queue[0]
		queue = queue[1:]
		t, err := r.Compile(path+":"+p.name, p.name, p.spec)
		if err != nil {
			problems = append(problems, err)
			queue = append(queue, p)
			continue
		}
		r.types[p.name] = t
		problems = nil
	}
	if len(problems) > 0 {
		return fmt.Errorf("unresolvable imports in %s: %w", path, problems[0])
	}
	return nil
}

// ImportFile loads the type file at path with loadFn and imports its
// declarations. The file holds a mapping of type name to spec node.
func (r *Registry) ImportFile(path string, loadFn func(string) (*tree.Map, error)) error {
	doc, err := loadFn(path)
	if err != nil {
		return err
	}
	return r.Import(filepath.Base(path), doc)
}
