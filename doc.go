/*
Package topiary validates, defaults-fills and selectively patches YAML
configuration trees against a declarative, recursively-defined schema.

It targets build and deployment pipelines where many environment-specific
files must conform to one shared spec while allowing controlled
per-environment edits ("customizations") applied before validation.

# Concept

Every data file can have a companion spec file (<base>.meta.yaml) whose
"root" node describes the allowed shape of the whole document. Specs
compose named types, collection types (listof..., setof..., mapof...) and
dict nodes with per-field attributes: required, forbidden, maybenull,
default, and allowed value sets. The required/forbidden/maybenull
attributes may be conditional predicates evaluated against the document
itself (see the predicate package).

Customization files patch a document before validation with dot-path
selectors and actions (REPLACE, DELETE, APPEND, EXTEND, POP, REMOVE), so a
site-specific file can adjust a shared configuration without forking it.

# Usage

	cfg, err := topiary.Load("master.yaml",
		topiary.WithSpecDirs("specs"),
		topiary.WithCustomizations("site/master.custom.yaml"),
	)
	if err != nil {
		log.Fatal(err)
	}
	slaves, _ := cfg.Get("slaves")

Load returns the validated tree with defaults injected. Each call is fully
independent: no registry or cache is shared, so files may be processed in
parallel by separate calls.
*/
package topiary

// Version is the current topiary release.
var Version = "0.3.0"
