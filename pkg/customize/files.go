package customize

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/topiary/internal/logging"
	"github.com/aretw0/topiary/pkg/tree"
)

// DeleteAll is the sentinel rule key that clears the whole target document.
// When present in a rule block it is applied before every other rule of
// that block, regardless of its declared position.
const DeleteAll = ":DELETE"

// maxImportDepth bounds the customization import chain so a cycle fails
// instead of recursing forever.
const maxImportDepth = 100

// ApplyFiles applies every rule the given customization files declare for
// target (a data-file base name) to doc, in order. A file's "imports" are
// applied first, recursively, with paths resolved relative to the
// importing file's directory. Returns the resulting document.
func ApplyFiles(doc any, target string, files []string, log *slog.Logger) (any, error) {
	if log == nil {
		log = logging.NewNop()
	}
	return applyFiles(doc, target, files, log, 0)
}

func applyFiles(doc any, target string, files []string, log *slog.Logger, depth int) (any, error) {
	if depth > maxImportDepth {
		return nil, errf("customization imports nest deeper than %d levels (import cycle?)", maxImportDepth)
	}

	for _, file := range files {
		custom, err := tree.Load(file)
		if err != nil {
			return nil, err
		}
		basedir := filepath.Dir(file)
		customfn := filepath.Base(file)

		if imp, ok := custom.Get("imports"); ok && imp != nil {
			list, ok := imp.([]any)
			if !ok {
				return nil, errf("%s: 'imports' must be a list of file paths", customfn)
			}
			paths := make([]string, 0, len(list))
			for _, e := range list {
				s, ok := e.(string)
				if !ok {
					return nil, errf("%s: 'imports' must be a list of file paths", customfn)
				}
				paths = append(paths, filepath.Clean(filepath.Join(basedir, s)))
			}
			doc, err = applyFiles(doc, target, paths, log, depth+1)
			if err != nil {
				return nil, err
			}
		}

		blockVal, ok := custom.Get(target)
		if !ok || blockVal == nil {
			continue
		}
		block, ok := blockVal.(*tree.Map)
		if !ok {
			return nil, errf("%s: customization block for '%s' must be a mapping", customfn, target)
		}

		apply := func(selector string, value any) error {
			log.Debug("applying customization rule",
				"file", customfn, "target", target, "selector", selector)
			next, err := Apply(doc, selector, value)
			if err != nil {
				return &Error{Message: fmt.Sprintf("Applying %s in %s:\n %s", customfn, target, err)}
			}
			doc = next
			return nil
		}

		// The whole-document delete must run first.
		if block.Has(DeleteAll) {
			v, _ := block.Get(DeleteAll)
			if err := apply(DeleteAll, v); err != nil {
				return nil, err
			}
		}
		for _, selector := range block.Keys() {
			if selector == DeleteAll {
				continue
			}
			v, _ := block.Get(selector)
			if err := apply(selector, v); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}
