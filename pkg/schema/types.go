package schema

// Kind names a primitive scalar type.
type Kind string

// Primitive scalar kinds. Anything accepts any value and disables
// downstream type checks.
const (
	KindString   Kind = "string"
	KindInteger  Kind = "integer"
	KindBoolean  Kind = "boolean"
	KindFloat    Kind = "float"
	KindAnything Kind = "anything"
)

// Attrs carries the resolved node attributes shared by every compiled type.
// Conditional attributes have already been evaluated by the compiler; the
// validator only sees booleans.
type Attrs struct {
	Required  bool
	Forbidden bool
	MaybeNull bool
	Default   any
}

// Type is the compiled, reference-free form of a spec node. The set of
// implementations is closed: Scalar, List, Set, Dict and Map. The validator
// dispatches over it with an exhaustive type switch.
type Type interface {
	// Attrs returns the resolved node attributes.
	Attrs() *Attrs

	clone() Type
}

// Scalar matches a single value of a primitive kind, optionally restricted
// to an allowed value set.
type Scalar struct {
	attrs  Attrs
	Kind   Kind
	Values []any
}

func (t *Scalar) Attrs() *Attrs { return &t.attrs }

func (t *Scalar) clone() Type {
	c := *t
	c.Values = append([]any(nil), t.Values...)
	return &c
}

// List matches an ordered sequence whose elements all share one type.
type List struct {
	attrs Attrs
	Elem  Type
}

func (t *List) Attrs() *Attrs { return &t.attrs }

func (t *List) clone() Type {
	c := *t
	c.Elem = t.Elem.clone()
	return &c
}

// Set matches a sequence like List, with the extra constraint that each
// element appears only once.
type Set struct {
	attrs Attrs
	Elem  Type
}

func (t *Set) Attrs() *Attrs { return &t.attrs }

func (t *Set) clone() Type {
	c := *t
	c.Elem = t.Elem.clone()
	return &c
}

// Dict matches a mapping with a declared field set; each field has its own
// type. Fields absent from Kids are rejected by the validator.
type Dict struct {
	attrs    Attrs
	Kids     map[string]Type
	KidOrder []string
}

func (t *Dict) Attrs() *Attrs { return &t.attrs }

func (t *Dict) clone() Type {
	c := *t
	c.Kids = make(map[string]Type, len(t.Kids))
	for k, v := range t.Kids {
		c.Kids[k] = v.clone()
	}
	c.KidOrder = append([]string(nil), t.KidOrder...)
	return &c
}

// Map matches a mapping whose values all share one type, like a named list.
// Keys optionally validates the key set.
type Map struct {
	attrs Attrs
	Elem  Type
	Keys  Type // optional key-type constraint
}

func (t *Map) Attrs() *Attrs { return &t.attrs }

func (t *Map) clone() Type {
	c := *t
	c.Elem = t.Elem.clone()
	if t.Keys != nil {
		c.Keys = t.Keys.clone()
	}
	return &c
}
