package customize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/topiary/pkg/tree"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(content), 0o644))
	return fn
}

func TestApplyFiles(t *testing.T) {
	dir := t.TempDir()
	custom := writeFile(t, dir, "site.yaml", `
conf:
  a.b: 10
  "a.c:APPEND": 4
other:
  a.b: 999
`)

	doc := fixture(t)
	out, err := ApplyFiles(doc, "conf", []string{custom}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, get(t, out, "a", "b"))
	assert.Equal(t, []any{1, 2, 3, 4}, get(t, out, "a", "c"))
}

func TestApplyFilesSkipsUnrelatedTargets(t *testing.T) {
	dir := t.TempDir()
	custom := writeFile(t, dir, "site.yaml", "other:\n  a.b: 999\n")

	doc := fixture(t)
	out, err := ApplyFiles(doc, "conf", []string{custom}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, get(t, out, "a", "b"))
}

func TestApplyFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.yaml", "conf:\n  a.b: 10\n")
	second := writeFile(t, dir, "second.yaml", "conf:\n  a.b: 20\n")

	doc := fixture(t)
	out, err := ApplyFiles(doc, "conf", []string{first, second}, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, get(t, out, "a", "b"))
}

func TestApplyFilesDeleteAllFirst(t *testing.T) {
	dir := t.TempDir()
	// The delete-all sentinel runs before the other rules of its block,
	// regardless of declaration order.
	custom := writeFile(t, dir, "site.yaml", `
conf:
  fresh: 1
  ":DELETE":
`)

	doc := fixture(t)
	out, err := ApplyFiles(doc, "conf", []string{custom}, nil)
	require.NoError(t, err)
	m := out.(*tree.Map)
	assert.Equal(t, []string{"fresh"}, m.Keys())
}

func TestApplyFilesImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "conf:\n  a.b: 10\n  a.base: true\n")
	custom := writeFile(t, dir, "site.yaml", `
imports:
  - base.yaml
conf:
  a.b: 20
`)

	doc := fixture(t)
	out, err := ApplyFiles(doc, "conf", []string{custom}, nil)
	require.NoError(t, err)
	// Imports apply first; the importing file wins.
	assert.Equal(t, 20, get(t, out, "a", "b"))
	assert.Equal(t, true, get(t, out, "a", "base"))
}

func TestApplyFilesImportsRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, sub, "base.yaml", "conf:\n  a.b: 10\n")
	custom := writeFile(t, sub, "site.yaml", "imports:\n  - base.yaml\nconf: {}\n")

	doc := fixture(t)
	out, err := ApplyFiles(doc, "conf", []string{custom}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, get(t, out, "a", "b"))
}

func TestApplyFilesImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "imports:\n  - b.yaml\n")
	writeFile(t, dir, "b.yaml", "imports:\n  - a.yaml\n")

	doc := fixture(t)
	_, err := ApplyFiles(doc, "conf", []string{filepath.Join(dir, "a.yaml")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import cycle")
}

func TestApplyFilesBadImports(t *testing.T) {
	dir := t.TempDir()
	custom := writeFile(t, dir, "site.yaml", "imports: notalist\n")

	doc := fixture(t)
	_, err := ApplyFiles(doc, "conf", []string{custom}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'imports' must be a list of file paths")
}

func TestApplyFilesRuleErrorContext(t *testing.T) {
	dir := t.TempDir()
	custom := writeFile(t, dir, "site.yaml", "conf:\n  x.y: 1\n")

	doc := fixture(t)
	_, err := ApplyFiles(doc, "conf", []string{custom}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Applying site.yaml in conf:")
	assert.Contains(t, err.Error(), "wants to traverse non-existing key 'x'")
}

func TestApplyFilesMissingFile(t *testing.T) {
	doc := fixture(t)
	_, err := ApplyFiles(doc, "conf", []string{filepath.Join(t.TempDir(), "nope.yaml")}, nil)
	require.Error(t, err)
}
