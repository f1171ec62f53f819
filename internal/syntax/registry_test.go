package syntax

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSyntaxFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRegistryBuiltinLookup(t *testing.T) {
	r := NewRegistry(nil)

	assert.Equal(t, "Go", r.ForFilename("main.go").Name)
	assert.Equal(t, "Rust", r.ForFilename("src/lib.rs").Name)
	assert.Equal(t, "Shell", r.ForFilename("deploy.sh").Name)
}

func TestRegistryUnknownFallsBackToPlain(t *testing.T) {
	r := NewRegistry(nil)

	def := r.ForFilename("notes.xyz")
	require.NotNil(t, def)
	assert.Empty(t, def.Name, "unknown extensions get the plain definition")

	def = r.ForFilename("Makefile")
	require.NotNil(t, def)
	assert.Empty(t, def.Name, "files without an extension get the plain definition")
}

func TestRegistryUserDirShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeSyntaxFile(t, dir, "go.yaml", `
name: MyGo
extensions: [go]
numbers: true
`)

	r := NewRegistry([]string{dir})
	assert.Equal(t, "MyGo", r.ForFilename("main.go").Name,
		"a user descriptor for the same extension wins over the builtin")
	assert.Equal(t, "Rust", r.ForFilename("lib.rs").Name,
		"unshadowed extensions still resolve to builtins")
}

func TestRegistryDirOrderDecidesPrecedence(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeSyntaxFile(t, first, "ex.yaml", "name: First\nextensions: [ex]\n")
	writeSyntaxFile(t, second, "ex.yaml", "name: Second\nextensions: [ex]\n")

	r := NewRegistry([]string{first, second})
	assert.Equal(t, "First", r.ForFilename("a.ex").Name)
}

func TestRegistryLookupIsCachedUntilInvalidate(t *testing.T) {
	dir := t.TempDir()
	writeSyntaxFile(t, dir, "ex.yaml", "name: Before\nextensions: [ex]\n")

	r := NewRegistry([]string{dir})
	require.Equal(t, "Before", r.ForFilename("a.ex").Name)

	writeSyntaxFile(t, dir, "ex.yaml", "name: After\nextensions: [ex]\n")
	assert.Equal(t, "Before", r.ForFilename("a.ex").Name,
		"lookups are served from cache until invalidated")

	r.Invalidate()
	assert.Equal(t, "After", r.ForFilename("a.ex").Name,
		"invalidation forces a re-read from disk")
}

func TestRegistrySkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeSyntaxFile(t, dir, "broken.yaml", "name: [unclosed\n")
	writeSyntaxFile(t, dir, "invalid.yaml", "name: NoExtensions\n")
	writeSyntaxFile(t, dir, "ok.yaml", "name: OK\nextensions: [ok]\n")
	writeSyntaxFile(t, dir, "notes.txt", "not a descriptor\n")

	r := NewRegistry([]string{dir})
	assert.Equal(t, "OK", r.ForFilename("a.ok").Name,
		"valid descriptors load even when siblings are broken")
}

func TestRegistryMissingDirIsSkipped(t *testing.T) {
	r := NewRegistry([]string{filepath.Join(t.TempDir(), "does-not-exist")})
	assert.Equal(t, "Go", r.ForFilename("main.go").Name)
}

func TestRegistryList(t *testing.T) {
	dir := t.TempDir()
	writeSyntaxFile(t, dir, "zz.yaml", "name: Zed\nextensions: [zz]\n")
	writeSyntaxFile(t, dir, "aa.yaml", "name: Alpha\nextensions: [aa]\n")

	entries := NewRegistry([]string{dir}).List()
	require.GreaterOrEqual(t, len(entries), 7, "two user entries plus the builtins")

	assert.Equal(t, "Alpha", entries[0].Def.Name, "user entries come first, sorted by name")
	assert.Equal(t, dir, entries[0].Source)
	assert.Equal(t, "Zed", entries[1].Def.Name)

	var builtins []string
	for _, e := range entries[2:] {
		require.Equal(t, "builtin", e.Source)
		builtins = append(builtins, e.Def.Name)
	}
	assert.Equal(t, []string{"C", "Go", "Python", "Rust", "Shell"}, builtins)
}

func TestBuiltinsParse(t *testing.T) {
	defs := Builtins()
	require.Len(t, defs, 5)
	for _, def := range defs {
		assert.NoError(t, def.Validate(), "builtin %q must validate", def.Name)
	}
}
