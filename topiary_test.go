package topiary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/topiary/pkg/schema"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(content), 0o644))
	return fn
}

const serverSpec = `
root:
  type: dict
  kids:
    host:
      type: string
      required: true
    port:
      type: integer
      default: 8080
    tags:
      type: setofstrings
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server.meta.yaml", serverSpec)
	fn := writeFile(t, dir, "server.yaml", "host: example.com\ntags: [a, b]\n")

	doc, err := Load(fn)
	require.NoError(t, err)

	host, _ := doc.Get("host")
	assert.Equal(t, "example.com", host)
	port, _ := doc.Get("port")
	assert.Equal(t, 8080, port, "default should be filled in")
}

func TestLoadValidationFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server.meta.yaml", serverSpec)
	fn := writeFile(t, dir, "server.yaml", "host: example.com\nbogus: 1\n")

	_, err := Load(fn)
	require.Error(t, err)
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "Key 'bogus' not defined in spec file")
	assert.Equal(t, "server", ve.Path)
}

func TestLoadNoSpec(t *testing.T) {
	dir := t.TempDir()
	fn := writeFile(t, dir, "server.yaml", "host: example.com\n")

	_, err := Load(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no spec found for")

	doc, err := Load(fn, WithoutSpec())
	require.NoError(t, err)
	host, _ := doc.Get("host")
	assert.Equal(t, "example.com", host)
}

func TestLoadWithSpecFile(t *testing.T) {
	dir := t.TempDir()
	spec := writeFile(t, dir, "other-name.yaml", serverSpec)
	fn := writeFile(t, dir, "server.yaml", "host: example.com\n")

	_, err := Load(fn, WithSpecFile(spec))
	require.NoError(t, err)
}

func TestLoadWithSpecDirs(t *testing.T) {
	specDir := t.TempDir()
	writeFile(t, specDir, "server.meta.yaml", serverSpec)
	dataDir := t.TempDir()
	fn := writeFile(t, dataDir, "server.yaml", "host: example.com\n")

	_, err := Load(fn, WithSpecDirs(specDir))
	require.NoError(t, err)
}

func TestLoadWithCustomizations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server.meta.yaml", serverSpec)
	fn := writeFile(t, dir, "server.yaml", "host: example.com\ntags: [a]\n")
	custom := writeFile(t, dir, "site.yaml", `
server.yaml:
  host: patched.example.com
  "tags:APPEND": b
`)

	doc, err := Load(fn, WithCustomizations(custom))
	require.NoError(t, err)
	host, _ := doc.Get("host")
	assert.Equal(t, "patched.example.com", host)
	tags, _ := doc.Get("tags")
	assert.Equal(t, []any{"a", "b"}, tags)
}

func TestLoadCustomizationMakesInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server.meta.yaml", serverSpec)
	fn := writeFile(t, dir, "server.yaml", "host: example.com\n")
	custom := writeFile(t, dir, "site.yaml", "server.yaml:\n  host: 123\n")

	_, err := Load(fn, WithCustomizations(custom))
	require.Error(t, err)
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestLoadWithTypes(t *testing.T) {
	dir := t.TempDir()
	types := writeFile(t, dir, "common.type.yaml", "hostname:\n  type: string\n")
	writeFile(t, dir, "server.meta.yaml", `
root:
  type: dict
  kids:
    host:
      type: hostname
`)
	fn := writeFile(t, dir, "server.yaml", "host: example.com\n")

	_, err := Load(fn, WithTypes(types))
	require.NoError(t, err)

	// Missing type files are skipped, not fatal.
	_, err = Load(fn, WithTypes(types, filepath.Join(dir, "nope.type.yaml")))
	require.NoError(t, err)
}

func TestLoadSpecImports(t *testing.T) {
	dir := t.TempDir()
	typesDir := filepath.Join(dir, "types")
	require.NoError(t, os.Mkdir(typesDir, 0o755))
	writeFile(t, typesDir, "common.yaml", "hostname:\n  type: string\n")
	writeFile(t, dir, "server.meta.yaml", `
imports:
  - common.yaml
root:
  type: dict
  kids:
    host:
      type: hostname
`)
	fn := writeFile(t, dir, "server.yaml", "host: example.com\n")

	_, err := Load(fn)
	require.NoError(t, err)
}

func TestLoadSpecImportMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server.meta.yaml", "imports:\n  - nowhere.yaml\nroot:\n  type: string\n")
	fn := writeFile(t, dir, "server.yaml", "host: x\n")

	_, err := Load(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to find imports 'nowhere.yaml'")
}

func TestLoadSpecWithoutRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server.meta.yaml", "notroot:\n  type: string\n")
	fn := writeFile(t, dir, "server.yaml", "host: x\n")

	_, err := Load(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec file must contain a 'root' node")
}

func TestLoadDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "server.meta.yaml", serverSpec)
	fn := writeFile(t, dir, "server.yaml", "host: a\nhost: b\n")

	_, err := Load(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found already in-use key (host)")

	doc, err := LoadOrdered(fn)
	require.NoError(t, err)
	host, _ := doc.Get("host")
	assert.Equal(t, "b", host)
}

func TestFindSpec(t *testing.T) {
	files := map[string]bool{
		"/data/server.meta.yaml":       true,
		"/specs/worker.meta.yaml":      true,
		"/specs/prod.db.meta.yaml":     true,
		"/fallback/db.meta.yaml":       true,
		"/specs/override.a.meta.yaml":  true,
		"/fallback/override.meta.yaml": true,
	}
	exists := func(p string) bool { return files[p] }
	dirs := []string{"/specs", "/fallback"}

	cases := []struct {
		path, want string
	}{
		// Beside the data file.
		{"/data/server.yaml", "/data/server.meta.yaml"},
		// Base name in a search directory.
		{"/data/worker.yaml", "/specs/worker.meta.yaml"},
		// Full dotted base name matches before any stripping.
		{"/data/prod.db.yaml", "/specs/prod.db.meta.yaml"},
		// Dot-segments strip left to right across all directories.
		{"/data/site.db.yaml", "/fallback/db.meta.yaml"},
		// The full name is tried before any stripping.
		{"/data/override.a.yaml", "/specs/override.a.meta.yaml"},
		{"/data/x.override.yaml", "/fallback/override.meta.yaml"},
		{"/data/unknown.yaml", ""},
	}
	for _, c := range cases {
		got := findSpec(c.path, dirs, exists)
		assert.Equal(t, c.want, got, "findSpec(%s)", c.path)
	}
}
