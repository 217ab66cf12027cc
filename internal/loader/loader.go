// Package loader discovers effect plugins on disk, acquires their code and
// registers the effects they provide.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/framefx/internal/catalog"
	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/logger"
	"github.com/alexisbeaulieu97/framefx/internal/plugin"
	"github.com/alexisbeaulieu97/framefx/internal/script"
	pkgerrors "github.com/alexisbeaulieu97/framefx/pkg/errors"
)

// Registry is the part of plugin.Registry the loader drives.
type Registry interface {
	Register(e effect.Effect, ui effect.UIDescriptor) (string, error)
	Unregister(id string) bool
	MergeMetadata(id string, extra map[string]any) bool
}

// Options configures a Loader.
type Options struct {
	Logger *logger.Logger
	// ScriptTimeout bounds every call into a Lua module.
	ScriptTimeout time.Duration
}

// origin records where a set of registered effects came from.
type origin struct {
	key    string
	path   string
	dir    bool
	module Module
	extra  map[string]any
	ids    []string
}

// Loader owns the roots it scans and every module it acquired. It is not
// safe for concurrent use.
type Loader struct {
	registry Registry
	log      *logger.Logger
	scripts  script.Options
	roots    []string
	origins  map[string]*origin
}

// New creates a loader that registers into registry.
func New(registry Registry, opts Options) *Loader {
	return &Loader{
		registry: registry,
		log:      opts.Logger,
		scripts:  script.Options{CallTimeout: opts.ScriptTimeout, Logger: opts.Logger},
		origins:  make(map[string]*origin),
	}
}

// AddDirectory adds a root to scan. Paths that are missing or not
// directories are logged and ignored.
func (l *Loader) AddDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		l.log.Warn("plugin directory does not exist", "path", path)
		return false
	}
	for _, root := range l.roots {
		if root == path {
			return true
		}
	}
	l.roots = append(l.roots, path)
	l.log.Info("added plugin directory", "path", path)
	return true
}

// Roots returns the directories LoadAll scans.
func (l *Loader) Roots() []string {
	return append([]string(nil), l.roots...)
}

// LoadAll scans every root and loads each candidate directory. The result
// maps candidate keys to success. A root that cannot be walked is reported
// under its own path.
func (l *Loader) LoadAll() map[string]bool {
	results := make(map[string]bool)
	for _, root := range l.roots {
		l.log.Info("scanning plugin directory", "path", root)

		candidates, err := findCandidates(root)
		if err != nil {
			l.log.Error(pkgerrors.NewLoadError(root, err), "plugin directory scan failed")
			results[root] = false
		}

		for _, dir := range candidates {
			key := candidateKey(root, dir, results)
			ids, err := l.loadDirectory(dir, key)
			if err != nil {
				l.log.Error(err, "failed to load plugin", "plugin", key, "path", dir)
				results[key] = false
				continue
			}
			l.log.Info("loaded plugin", "plugin", key, "effects", strings.Join(ids, ","))
			results[key] = true
		}
	}
	return results
}

// LoadFromPath loads a single candidate directory or a .lua or .so file and
// returns the ids it registered.
func (l *Loader) LoadFromPath(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, pkgerrors.NewLoadError(path, err)
	}
	if info.IsDir() {
		return l.loadDirectory(path, filepath.Base(path))
	}
	return l.loadFile(path, moduleName(path))
}

// Reload unregisters every effect that came from the same module as id,
// acquires the module again and registers it anew. It returns the id that
// replaces id.
func (l *Loader) Reload(id string) (string, error) {
	o, ok := l.origins[id]
	if !ok {
		return "", plugin.ErrPluginNotFound{ID: id}
	}
	index := indexOf(o.ids, id)

	l.forget(o)

	var (
		ids []string
		err error
	)
	if o.dir {
		ids, err = l.loadDirectory(o.path, o.key)
	} else {
		ids, err = l.loadFile(o.path, o.key)
	}
	if err != nil {
		return "", fmt.Errorf("reload %s: %w", id, err)
	}
	if index >= len(ids) {
		return "", pkgerrors.NewPluginError(o.key, fmt.Errorf("reloaded module no longer provides effect %s", id))
	}
	l.log.Info("reloaded plugin", "plugin", o.key, "old_id", id, "new_id", ids[index])
	return ids[index], nil
}

// Modules maps every id the loader registered to the path it came from.
func (l *Loader) Modules() map[string]string {
	out := make(map[string]string, len(l.origins))
	for id, o := range l.origins {
		out[id] = o.module.Path()
	}
	return out
}

// Owns reports whether id was registered by this loader.
func (l *Loader) Owns(id string) bool {
	_, ok := l.origins[id]
	return ok
}

// Cleanup unregisters every effect the loader registered, then closes its
// module, and forgets all roots. Effect cleanup hooks run while their module
// is still open.
func (l *Loader) Cleanup() {
	for _, o := range l.distinctOrigins() {
		l.forget(o)
	}
	l.origins = make(map[string]*origin)
	l.roots = nil
}

func (l *Loader) loadDirectory(dir, key string) ([]string, error) {
	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	extra, err := readMetadata(dir)
	if err != nil {
		l.log.Warn("ignoring plugin metadata", "plugin", key, "error", err.Error())
		extra = nil
	}
	fileUI, err := readUI(dir)
	if err != nil {
		l.log.Warn("ignoring plugin ui descriptor", "plugin", key, "error", err.Error())
		fileUI = nil
	}

	mod, err := l.acquire(dir, manifest)
	if err != nil {
		return nil, pkgerrors.NewPluginError(key, err)
	}
	return l.register(&origin{key: key, path: dir, dir: true, module: mod, extra: extra}, fileUI)
}

func (l *Loader) loadFile(path, key string) ([]string, error) {
	mod, err := openFile(path, l.scripts)
	if err != nil {
		return nil, pkgerrors.NewPluginError(key, err)
	}
	return l.register(&origin{key: key, path: path, module: mod}, nil)
}

// acquire resolves the module of a candidate: a catalog module named in the
// manifest, then the manifest's main file, then effect.so, then effect.lua.
func (l *Loader) acquire(dir string, manifest Manifest) (Module, error) {
	if manifest.Module != "" {
		mod, ok := catalog.Get(manifest.Module)
		if !ok {
			return nil, fmt.Errorf("catalog module %q is not linked into this binary (linked: %s)", manifest.Module, strings.Join(catalog.Names(), ", "))
		}
		return &catalogModule{mod: mod, path: dir}, nil
	}
	if manifest.Main != "" {
		return openFile(filepath.Join(dir, manifest.Main), l.scripts)
	}
	for _, name := range []string{SharedObjectFile, LuaFile} {
		if path := filepath.Join(dir, name); isFile(path) {
			return openFile(path, l.scripts)
		}
	}
	return nil, fmt.Errorf("no code entry point in %s", dir)
}

// register runs the module's entry point, or discovers an effect by
// capability, and records the origin of every id. On failure the ids
// registered so far are withdrawn and the module is closed.
func (l *Loader) register(o *origin, fileUI effect.UIDescriptor) ([]string, error) {
	rec := &recorder{registry: l.registry, fallback: fileUI}

	var err error
	if sym, ok := o.module.Lookup(RegisterSymbol); ok {
		fn, valid := entryPoint(sym)
		if !valid {
			err = fmt.Errorf("symbol %s has type %T", RegisterSymbol, sym)
		} else {
			err = callEntryPoint(fn, rec)
		}
	} else {
		err = l.discover(o.module, rec)
	}
	if err == nil && len(rec.ids) == 0 {
		err = errors.New("module registered no effects")
	}
	if err != nil {
		for _, id := range rec.ids {
			l.registry.Unregister(id)
		}
		if cerr := o.module.Close(); cerr != nil {
			l.log.Error(cerr, "failed to close module", "module", o.module.Name())
		}
		return nil, pkgerrors.NewPluginError(o.key, err)
	}

	o.ids = rec.ids
	for _, id := range o.ids {
		if len(o.extra) > 0 {
			l.registry.MergeMetadata(id, o.extra)
		}
		l.origins[id] = o
	}
	return append([]string(nil), o.ids...), nil
}

// discover registers the first effect-shaped symbol, paired with the first
// UI-shaped symbol when there is one.
func (l *Loader) discover(mod Module, rec *recorder) error {
	var (
		found effect.Effect
		rest  []string
	)
	for _, name := range mod.Symbols() {
		sym, ok := mod.Lookup(name)
		if !ok {
			continue
		}
		if found != nil {
			rest = append(rest, name)
			continue
		}
		e, ok, err := instantiate(sym)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if ok {
			found = e
			continue
		}
		rest = append(rest, name)
	}
	if found == nil {
		return fmt.Errorf("module %s exports no %s entry point and no effect", mod.Name(), RegisterSymbol)
	}

	var ui effect.UIDescriptor
	for _, name := range rest {
		sym, _ := mod.Lookup(name)
		if d, ok := describe(sym, found); ok {
			ui = d
			break
		}
	}
	_, err := rec.Register(found, ui)
	return err
}

func (l *Loader) forget(o *origin) {
	for _, id := range o.ids {
		l.registry.Unregister(id)
		delete(l.origins, id)
	}
	if err := o.module.Close(); err != nil {
		l.log.Error(err, "failed to close module", "module", o.module.Name())
	}
}

func (l *Loader) distinctOrigins() []*origin {
	seen := make(map[*origin]bool)
	var out []*origin
	for _, o := range l.origins {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

// recorder forwards registrations and remembers the ids it was given. A
// registration without a UI descriptor gets the declarative one.
type recorder struct {
	registry Registry
	fallback effect.UIDescriptor
	ids      []string
}

func (r *recorder) Register(e effect.Effect, ui effect.UIDescriptor) (string, error) {
	if ui == nil {
		if p, ok := e.(effect.UIProvider); ok {
			ui = p.UI()
		}
	}
	if ui == nil {
		ui = r.fallback
	}
	id, err := r.registry.Register(e, ui)
	if err != nil {
		return "", err
	}
	r.ids = append(r.ids, id)
	return id, nil
}

func callEntryPoint(fn func(effect.Registrar) error, reg effect.Registrar) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", RegisterSymbol, r)
		}
	}()
	return fn(reg)
}

// findCandidates walks root in lexical order and returns every candidate
// directory below it. Unreadable subdirectories are skipped.
func findCandidates(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return fs.SkipDir
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if IsCandidate(path) {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

// candidateKey is the directory name, or its path relative to root when the
// name is already taken.
func candidateKey(root, dir string, taken map[string]bool) string {
	key := filepath.Base(dir)
	if _, used := taken[key]; !used {
		return key
	}
	if rel, err := filepath.Rel(root, dir); err == nil {
		rel = filepath.ToSlash(rel)
		if _, used := taken[rel]; !used {
			return rel
		}
	}
	return dir
}

func indexOf(list []string, value string) int {
	for i, item := range list {
		if item == value {
			return i
		}
	}
	return -1
}
