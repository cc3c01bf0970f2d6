// Package customize applies ordered, selector-based patch rules to a data
// tree before validation. A selector is a dot-path whose final segment may
// carry a ":ACTION" suffix; the default action is REPLACE.
package customize

import (
	"fmt"
	"strings"

	"github.com/aretw0/topiary/pkg/predicate"
	"github.com/aretw0/topiary/pkg/tree"
)

// Error reports a malformed or inapplicable patch rule.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func errf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Apply applies one rule to target and returns the resulting target. The
// target is mutated in place where possible; whole-document replacement of
// a sequence returns the new sequence.
func Apply(target any, selector string, value any) (any, error) {
	orig := selector

	// Walk every non-final segment; each must name an existing mapping.
	cur := target
	for strings.Contains(selector, ".") {
		key, rest, _ := strings.Cut(selector, ".")
		selector = rest
		m, ok := cur.(*tree.Map)
		if !ok {
			return nil, errf("selector: '%s' wants to traverse a non dictionary object '%s' in: %s",
				orig, key, tree.FormatValue(cur))
		}
		v, ok := m.Get(key)
		if !ok {
			return nil, errf("selector: '%s' wants to traverse non-existing key '%s' in: %s",
				orig, key, tree.FormatKeys(m.Keys()))
		}
		if _, ok := v.(*tree.Map); !ok {
			return nil, errf("selector: '%s' wants to traverse a non dictionary object '%s' in: %s",
				orig, key, tree.FormatValue(v))
		}
		cur = v
	}

	action := "REPLACE"
	if sel, act, found := strings.Cut(selector, ":"); found {
		selector = sel
		action = strings.TrimSpace(act)
	}

	var obj *tree.Map
	if selector != "" {
		m, ok := cur.(*tree.Map)
		if !ok {
			return nil, errf("selector: '%s' wants to modify key '%s' of a non dictionary object: %s",
				orig, selector, tree.FormatValue(cur))
		}
		obj = m
		if !obj.Has(selector) && action != "REPLACE" && action != "DELETEIF" {
			return nil, errf("selector: '%s' wants to modify non-existing key '%s' at: %s",
				orig, selector, tree.FormatValue(obj))
		}
	}

	switch action {
	case "REPLACE":
		if selector != "" {
			// Replacing an existing collection requires a value of the
			// same kind; scalars swap freely.
			if existing, ok := obj.Get(selector); ok {
				switch existing.(type) {
				case []any:
					if _, ok := value.([]any); !ok {
						return nil, errf("can only replace list by other list, not %s", tree.FormatValue(value))
					}
				case *tree.Map:
					if _, ok := value.(*tree.Map); !ok {
						return nil, errf("can only replace dict by other dict, not %s", tree.FormatValue(value))
					}
				}
			}
			obj.Set(selector, value)
			return target, nil
		}
		switch tgt := cur.(type) {
		case []any:
			repl, ok := value.([]any)
			if !ok {
				return nil, errf("can only replace list by other list, not %s", tree.FormatValue(value))
			}
			return repl, nil
		case *tree.Map:
			repl, ok := value.(*tree.Map)
			if !ok {
				return nil, errf("can only replace dict by other dict, not %s", tree.FormatValue(value))
			}
			tgt.ReplaceWith(repl)
			return target, nil
		default:
			return nil, errf("selector: '%s' cannot replace a %s document", orig, tree.KindName(cur))
		}

	case "DEL", "DELETE", "DELETEIF":
		if value != nil {
			return nil, errf("selector: '%s' value is ignored because it is a delete", orig)
		}
		if selector != "" {
			obj.Delete(selector)
			return target, nil
		}
		// Delete-all: clear the entire target.
		switch tgt := cur.(type) {
		case *tree.Map:
			tgt.Clear()
			return target, nil
		case []any:
			return []any{}, nil
		default:
			return nil, errf("selector: '%s' cannot clear a %s document", orig, tree.KindName(cur))
		}

	case "APPEND":
		seq, err := seqAt(obj, orig, selector, action)
		if err != nil {
			return nil, err
		}
		obj.Set(selector, append(seq, value))
		return target, nil

	case "EXTEND":
		seq, err := seqAt(obj, orig, selector, action)
		if err != nil {
			return nil, err
		}
		items, ok := value.([]any)
		if !ok {
			return nil, errf("selector: '%s' EXTEND requires a list value, not %s", orig, tree.FormatValue(value))
		}
		obj.Set(selector, append(seq, items...))
		return target, nil

	case "POP":
		seq, err := seqAt(obj, orig, selector, action)
		if err != nil {
			return nil, err
		}
		idx, ok := value.(int)
		if !ok || idx < 0 || idx >= len(seq) {
			return nil, errf("selector: '%s' POP index %s does not exist in a list of %d elements",
				orig, tree.FormatValue(value), len(seq))
		}
		obj.Set(selector, append(seq[:idx], seq[idx+1:]...))
		return target, nil

	case "REMOVE":
		seq, err := seqAt(obj, orig, selector, action)
		if err != nil {
			return nil, err
		}
		items, ok := value.([]any)
		if !ok {
			items = []any{value}
		}
		for _, item := range items {
			found := -1
			for i, v := range seq {
				if predicate.Equal(v, item) {
					found = i
					break
				}
			}
			if found < 0 {
				return nil, errf("selector: '%s' wants to remove non-existing value %s from: %s",
					orig, tree.FormatValue(item), tree.FormatValue(seq))
			}
			seq = append(seq[:found], seq[found+1:]...)
		}
		obj.Set(selector, seq)
		return target, nil
	}

	return nil, errf("selector: unsupported action '%s'", orig)
}

func seqAt(obj *tree.Map, orig, selector, action string) ([]any, error) {
	if obj == nil {
		return nil, errf("selector: '%s' action %s requires a key", orig, action)
	}
	v, _ := obj.Get(selector)
	seq, ok := v.([]any)
	if !ok {
		return nil, errf("selector: '%s' action %s expects a list at '%s', but got: %s",
			orig, action, selector, tree.FormatValue(v))
	}
	return seq, nil
}
