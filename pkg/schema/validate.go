package schema

import (
	"fmt"
	"strings"

	"github.com/aretw0/topiary/pkg/predicate"
	"github.com/aretw0/topiary/pkg/tree"
)

// maxDepth bounds the validation walk with an explicit counter so a deeply
// nested tree fails cleanly instead of exhausting the stack.
const maxDepth = 1000

// Match validates val against the compiled type t. The walk is a single
// top-down pass: defaults are injected into the data tree as declared
// fields are visited, and the first violated invariant aborts with a
// path-qualified ValidationError.
func Match(path string, t Type, val any) error {
	return match(path, t, val, 0)
}

func match(path string, t Type, val any, depth int) error {
	if depth > maxDepth {
		return &ValidationError{Path: path, Value: nil,
			Message: fmt.Sprintf("nesting exceeds %d levels", maxDepth)}
	}

	switch ct := t.(type) {
	case *Scalar:
		return matchScalar(path, ct, val)
	case *List:
		return matchList(path, ct.Attrs(), ct.Elem, val, depth)
	case *Set:
		if err := matchList(path, ct.Attrs(), ct.Elem, val, depth); err != nil {
			return err
		}
		return checkUnique(path, val)
	case *Dict:
		return matchDict(path, ct, val, depth)
	case *Map:
		return matchMap(path, ct, val, depth)
	default:
		return &ValidationError{Path: path, Value: val,
			Message: fmt.Sprintf("internal: unknown compiled type %T", t)}
	}
}

func matchScalar(path string, t *Scalar, val any) error {
	if err := ensureKind(path, t, val); err != nil {
		return err
	}
	return ensureValues(path, t.Values, val)
}

// ensureKind checks the native kind of val against the declared kind.
// Nulls and values whose textual form is "none" pass unconditionally; the
// escape hatch is preserved exactly as observed in production specs.
func ensureKind(path string, t *Scalar, val any) error {
	if t.Attrs().MaybeNull && val == nil {
		return nil
	}
	if t.Kind == KindAnything {
		return nil
	}
	if val == nil || strings.EqualFold(fmt.Sprint(val), "none") {
		return nil
	}
	if kindOf(val) != t.Kind {
		return &ValidationError{Path: path, Value: val,
			Message: fmt.Sprintf("should be of type '%s', while it is '%s'.", t.Kind, tree.KindName(val))}
	}
	return nil
}

func ensureValues(path string, allowed []any, val any) error {
	if len(allowed) == 0 {
		return nil
	}
	for _, a := range allowed {
		if predicate.Equal(a, val) {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = fmt.Sprint(a)
	}
	return &ValidationError{Path: path, Value: val,
		Message: fmt.Sprintf("'%v' should be one of: %s", val, strings.Join(names, ", "))}
}

func kindOf(val any) Kind {
	switch val.(type) {
	case string:
		return KindString
	case bool:
		return KindBoolean
	case int, int64:
		return KindInteger
	case float64, float32:
		return KindFloat
	default:
		return Kind(tree.KindName(val))
	}
}

func matchList(path string, attrs *Attrs, elem Type, val any, depth int) error {
	if attrs.MaybeNull && val == nil {
		return nil
	}
	seq, ok := val.([]any)
	if !ok {
		return &ValidationError{Path: path, Value: val,
			Message: fmt.Sprintf("should be of type 'list', while it is '%s'.", tree.KindName(val))}
	}
	for i, v := range seq {
		if err := match(fmt.Sprintf("%s[%d]", path, i), elem, v, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique scans left to right and fails on the first element that
// recurs later in the sequence.
func checkUnique(path string, val any) error {
	seq, _ := val.([]any)
	for i, v := range seq {
		for _, w := range seq[i+1:] {
			if predicate.Equal(v, w) {
				return &ValidationError{Path: path, Value: val,
					Message: fmt.Sprintf("%v is included several times in a set", v)}
			}
		}
	}
	return nil
}

func matchDict(path string, t *Dict, val any, depth int) error {
	if t.Attrs().MaybeNull && val == nil {
		return nil
	}
	m, ok := val.(*tree.Map)
	if !ok {
		return &ValidationError{Path: path, Value: val,
			Message: fmt.Sprintf("should be of type 'dict', while it is '%s'.", tree.KindName(val))}
	}

	for _, k := range t.KidOrder {
		kid := t.Kids[k]
		attrs := kid.Attrs()
		if attrs.Required && !m.Has(k) {
			return &ValidationError{Path: path, Value: val,
				Message: fmt.Sprintf("needs to define the option '%s', but only has: %s",
					k, tree.FormatKeys(m.Keys()))}
		}
		if attrs.Forbidden && m.Has(k) {
			return &ValidationError{Path: path, Value: val,
				Message: fmt.Sprintf("option %s is forbidden", k)}
		}
		if attrs.Default != nil && !m.Has(k) {
			m.Set(k, attrs.Default)
		}
	}

	for _, k := range m.Keys() {
		kid, ok := t.Kids[k]
		if !ok {
			return &ValidationError{Path: path, Value: val,
				Message: fmt.Sprintf("Key '%s' not defined in spec file, should be one of: %s",
					k, tree.FormatKeys(t.KidOrder))}
		}
		v, _ := m.Get(k)
		if err := match(path+"."+k, kid, v, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func matchMap(path string, t *Map, val any, depth int) error {
	m, ok := val.(*tree.Map)
	if !ok {
		if val == nil {
			return &ValidationError{Path: path, Value: val, Message: "Invalid empty value !"}
		}
		return &ValidationError{Path: path, Value: val,
			Message: fmt.Sprintf("should be of type 'dict', while it is '%s'.", tree.KindName(val))}
	}

	if t.Keys != nil {
		keys := m.Keys()
		keyVals := make([]any, len(keys))
		for i, k := range keys {
			keyVals[i] = k
		}
		keySet := &Set{Elem: t.Keys}
		if err := match(path+"_names", keySet, keyVals, depth+1); err != nil {
			return err
		}
	}

	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if err := match(path+"."+k, t.Elem, v, depth+1); err != nil {
			return err
		}
	}
	return nil
}
