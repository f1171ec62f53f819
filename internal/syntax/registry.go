package syntax

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/quill/internal/cachemanager"
	"github.com/zjrosen/quill/internal/log"
)

// Registry resolves file names to language definitions. User directories are
// searched in order before the builtin set, so a user file shadows a builtin
// definition for the same extension. Lookups are cached; Invalidate drops
// the cache after a syntax directory changes on disk.
type Registry struct {
	dirs   []string
	lookup *cachemanager.ReadThroughCache[string, *Definition, string]
}

// Entry pairs a definition with where it came from, for listings.
type Entry struct {
	Def    *Definition
	Source string
}

// NewRegistry creates a registry over the given syntax.d directories.
// Directories that do not exist are simply skipped at scan time.
func NewRegistry(dirs []string) *Registry {
	r := &Registry{dirs: dirs}
	cache := cachemanager.NewInMemoryCacheManager[string, *Definition](
		"syntax", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	r.lookup = cachemanager.NewReadThroughCache(cache, r.find, false)
	return r
}

// ForFilename returns the definition matching the file's extension, or the
// plain definition when nothing matches. It never fails: a broken descriptor
// file is logged and skipped.
func (r *Registry) ForFilename(name string) *Definition {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return Plain()
	}
	def, err := r.lookup.Get(ext, ext, cachemanager.DefaultExpiration)
	if err != nil || def == nil {
		return Plain()
	}
	return def
}

// Invalidate drops every cached lookup so changed descriptor files are
// re-read on the next ForFilename call.
func (r *Registry) Invalidate() {
	r.lookup.Flush()
	log.Debug(log.CatSyntax, "registry cache invalidated")
}

// List returns every known definition, user files first, then builtins,
// sorted by name within each source. Shadowed builtins are still listed so
// users can see what a directory file overrides.
func (r *Registry) List() []Entry {
	var entries []Entry
	for _, dir := range r.dirs {
		defs := loadDir(os.DirFS(dir), dir)
		sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
		for _, def := range defs {
			entries = append(entries, Entry{Def: def, Source: dir})
		}
	}
	builtins := append([]*Definition(nil), Builtins()...)
	sort.Slice(builtins, func(i, j int) bool { return builtins[i].Name < builtins[j].Name })
	for _, def := range builtins {
		entries = append(entries, Entry{Def: def, Source: "builtin"})
	}
	return entries
}

// find is the cache loader: scan user directories in order, then builtins.
func (r *Registry) find(ext string) (*Definition, error) {
	name := "." + ext
	for _, dir := range r.dirs {
		for _, def := range loadDir(os.DirFS(dir), dir) {
			if def.Matches(name) {
				log.Debug(log.CatSyntax, "definition selected", "name", def.Name, "ext", ext, "source", dir)
				return def, nil
			}
		}
	}
	for _, def := range Builtins() {
		if def.Matches(name) {
			log.Debug(log.CatSyntax, "definition selected", "name", def.Name, "ext", ext, "source", "builtin")
			return def, nil
		}
	}
	return Plain(), nil
}

// loadDir parses every .yaml/.yml file in fsys. Malformed files are logged
// under the given source label and skipped; a syntax typo in one descriptor
// must not take the editor down.
func loadDir(fsys fs.FS, source string) []*Definition {
	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if !os.IsNotExist(err) {
			log.ErrorErr(log.CatSyntax, "reading syntax directory", err, "source", source)
		}
		return nil
	}

	var defs []*Definition
	for _, f := range files {
		if f.IsDir() || !isYAML(f.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, f.Name())
		if err != nil {
			log.ErrorErr(log.CatSyntax, "reading syntax file", err, "file", f.Name(), "source", source)
			continue
		}
		var def Definition
		if err := yaml.Unmarshal(data, &def); err != nil {
			log.ErrorErr(log.CatSyntax, "parsing syntax file", err, "file", f.Name(), "source", source)
			continue
		}
		if err := def.Validate(); err != nil {
			log.ErrorErr(log.CatSyntax, "invalid syntax file", err, "file", f.Name(), "source", source)
			continue
		}
		defs = append(defs, &def)
	}
	return defs
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
