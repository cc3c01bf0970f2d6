package topiary

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/topiary/internal/logging"
	"github.com/aretw0/topiary/pkg/customize"
	"github.com/aretw0/topiary/pkg/schema"
	"github.com/aretw0/topiary/pkg/tree"
)

// SpecSuffix is appended to a data file's base name to locate its
// companion spec.
const SpecSuffix = ".meta.yaml"

// Option configures a Load call.
type Option func(*builder)

// WithSpecFile pins the spec file instead of discovering it.
func WithSpecFile(path string) Option {
	return func(b *builder) { b.specFile = path }
}

// WithSpecDirs adds directories searched for spec and type files.
func WithSpecDirs(dirs ...string) Option {
	return func(b *builder) { b.specDirs = append(b.specDirs, dirs...) }
}

// WithCustomizations applies the given customization files, in order,
// before validation.
func WithCustomizations(paths ...string) Option {
	return func(b *builder) { b.customizations = append(b.customizations, paths...) }
}

// WithTypes imports additional named-type files before the spec compiles.
func WithTypes(paths ...string) Option {
	return func(b *builder) { b.typeFiles = append(b.typeFiles, paths...) }
}

// WithoutSpec makes a missing spec non-fatal: the file is loaded and
// customized but not validated.
func WithoutSpec() Option {
	return func(b *builder) { b.needSpec = false }
}

// WithLogger sets a structured logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) { b.logger = logger }
}

// Load reads the data file at path, applies customizations, locates and
// compiles its spec, validates the tree and returns it with defaults
// filled in. Mappings reject duplicate keys.
func Load(path string, opts ...Option) (*tree.Map, error) {
	return load(path, tree.Load, opts)
}

// LoadOrdered behaves like Load but constructs mappings in the
// order-preserving mode, where a duplicate key overwrites the earlier
// value and moves to the last position.
func LoadOrdered(path string, opts ...Option) (*tree.Map, error) {
	return load(path, tree.LoadOrdered, opts)
}

type builder struct {
	specFile       string
	specDirs       []string
	customizations []string
	typeFiles      []string
	needSpec       bool
	logger         *slog.Logger
}

func load(path string, loadFn func(string) (*tree.Map, error), opts []Option) (*tree.Map, error) {
	b := &builder{needSpec: true}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	log := b.logger.With("file", filepath.Base(path))

	doc, err := loadFn(path)
	if err != nil {
		return nil, err
	}

	// Customizations mutate the tree before the spec compiles, so
	// conditional attributes see the final values.
	base := filepath.Base(path)
	if len(b.customizations) > 0 {
		patched, err := customize.ApplyFiles(doc, base, b.customizations, log)
		if err != nil {
			return nil, err
		}
		doc = patched.(*tree.Map)
	}

	specfn := b.specFile
	if specfn == "" {
		specfn = FindSpec(path, b.specDirs)
	}
	if specfn == "" {
		if b.needSpec {
			return nil, fmt.Errorf("no spec found for %s", path)
		}
		log.Debug("no spec found, skipping validation")
		return doc, nil
	}
	log.Debug("using spec", "spec", specfn)

	reg := schema.NewRegistry(doc)
	for _, tf := range b.typeFiles {
		if _, err := os.Stat(tf); err != nil {
			log.Debug("skipping missing type file", "path", tf)
			continue
		}
		if err := reg.ImportFile(tf, loadFn); err != nil {
			return nil, err
		}
	}

	spec, err := loadFn(specfn)
	if err != nil {
		return nil, err
	}
	if err := importSpecTypes(reg, spec, specfn, b.specDirs, loadFn); err != nil {
		return nil, err
	}

	rootSpec, ok := spec.Get("root")
	if !ok {
		return nil, &schema.SchemaError{Path: filepath.Base(specfn), Value: spec,
			Message: "spec file must contain a 'root' node"}
	}
	tname := strings.ReplaceAll(base, ".yaml", "")
	t, err := reg.Compile(tname, tname, rootSpec)
	if err != nil {
		return nil, err
	}
	if err := schema.Match(tname, t, doc); err != nil {
		return nil, err
	}
	log.Debug("validated")
	return doc, nil
}

// importSpecTypes resolves the spec's "imports" list: each entry is looked
// up in the type-search directories first, then under the spec's own
// "types" subdirectory.
func importSpecTypes(reg *schema.Registry, spec *tree.Map, specfn string, dirs []string,
	loadFn func(string) (*tree.Map, error)) error {

	imp, ok := spec.Get("imports")
	if !ok || imp == nil {
		return nil
	}
	list, ok := imp.([]any)
	if !ok {
		return &schema.SchemaError{Path: filepath.Base(specfn), Value: imp,
			Message: "'imports' must be a list of type-file names"}
	}
	specdir := filepath.Dir(specfn)
	for _, e := range list {
		name, ok := e.(string)
		if !ok {
			return &schema.SchemaError{Path: filepath.Base(specfn), Value: e,
				Message: "'imports' must be a list of type-file names"}
		}
		resolved := ""
		for _, dir := range dirs {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				resolved = candidate
				break
			}
		}
		if resolved == "" {
			candidate := filepath.Join(specdir, "types", name)
			if _, err := os.Stat(candidate); err == nil {
				resolved = candidate
			}
		}
		if resolved == "" {
			return fmt.Errorf("unable to find imports '%s'", name)
		}
		if err := reg.ImportFile(resolved, loadFn); err != nil {
			return err
		}
	}
	return nil
}

// FindSpec locates the companion spec for a data file: first the file's own
// base name with the spec suffix, then each candidate base name in each
// search directory, stripping leading dot-segments one at a time.
// Returns "" when no spec exists.
func FindSpec(path string, dirs []string) string {
	return findSpec(path, dirs, func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})
}

func findSpec(path string, dirs []string, exists func(string) bool) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if fn := base + SpecSuffix; exists(fn) {
		return fn
	}
	base = filepath.Base(base)
	for base != "" {
		for _, dir := range dirs {
			if fn := filepath.Join(dir, base) + SpecSuffix; exists(fn) {
				return fn
			}
		}
		if !strings.Contains(base, ".") {
			return ""
		}
		_, base, _ = strings.Cut(base, ".")
	}
	return ""
}
