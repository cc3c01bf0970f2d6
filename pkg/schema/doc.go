/*
Package schema compiles declarative spec documents into executable type
graphs and validates data trees against them.

A spec node is a mapping with a "type" key plus optional attributes (kids,
values, required, forbidden, maybenull, default, names_type). Collection
types compose by name: "listofstrings" is a list of strings,
"setoflistsofstringss" a set of lists of strings. Compiled types form a
closed set of variants (Scalar, List, Set, Dict, Map) that the validator
walks top-down, injecting defaults and stopping at the first violation with
a path-qualified error.

Named types live in a Registry instance. Registry.Import resolves a batch
of declarations with a fixed-point worklist, so types may reference each
other in any declaration order.
*/
package schema
