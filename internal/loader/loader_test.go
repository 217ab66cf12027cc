package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/framefx/internal/catalog"
	"github.com/alexisbeaulieu97/framefx/internal/dependency"
	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/effect/effecttest"
	"github.com/alexisbeaulieu97/framefx/internal/logger"
	"github.com/alexisbeaulieu97/framefx/internal/plugin"
)

const tintScript = `
function register_plugin(registry)
  registry:register({
    name = "Tint",
    category = "color",
    version = "%s",
    parameters = {
      { name = "mode", type = "choice", default = "Warm", options = {"Warm", "Custom"} },
      { name = "shade", type = "color", default = "#ff8800" },
    },
    apply = function(r, g, b, params) return r, g, 0 end,
  })
end
`

// hookScript registers an effect whose cleanup hook fails loudly, so the
// hook running shows up in the log.
const hookScript = `
function register_plugin(registry)
  registry:register({
    name = "%s",
    category = "test",
    version = "1.0.0",
    apply = function(r, g, b, params) return r, g, b end,
    cleanup = function() error("cleanup ran") end,
  })
end
`

const tintUI = `
groups:
  - title: Tint
    parameters: [mode, shade]
dependencies:
  - controlling: mode
    dependent: shade
    condition: equals
    value: Custom
`

func newLoader(t *testing.T) (*Loader, *plugin.Registry) {
	t.Helper()
	log := logger.Nop()
	registry := plugin.NewRegistry(nil, log, nil)
	l := New(registry, Options{Logger: log})
	t.Cleanup(l.Cleanup)
	return l, registry
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

// registerCatalog adds a catalog module unique to the test and removes it
// afterwards.
func registerCatalog(t *testing.T, symbols catalog.Symbols) string {
	t.Helper()
	name := "loader-test/" + strings.ReplaceAll(t.Name(), "/", "-")
	require.NoError(t, catalog.Register(name, symbols))
	t.Cleanup(func() { catalog.Unregister(name) })
	return name
}

func TestLoadAllPartialScan(t *testing.T) {
	t.Parallel()

	module := registerCatalog(t, catalog.Symbols{
		"NewEffect": func() effect.Effect { return effecttest.New("Alpha") },
	})

	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "alpha"), map[string]string{
		ManifestFile:     "module: " + module + "\n",
		MetadataYAMLFile: "author: alpha team\n",
	})
	writeFiles(t, filepath.Join(root, "beta"), map[string]string{
		LuaFile: fmt.Sprintf(tintScript, "1.0.0"),
	})
	writeFiles(t, filepath.Join(root, "gamma"), map[string]string{
		ManifestFile: "",
		LuaFile:      fmt.Sprintf(tintScript, "1.0.0"),
	})

	l, registry := newLoader(t)
	require.True(t, l.AddDirectory(root))

	results := l.LoadAll()
	require.Equal(t, map[string]bool{"alpha": true, "gamma": true}, results)
	require.Equal(t, 2, registry.Len())

	d, ok := registry.Descriptor("alpha_1.0.0")
	require.True(t, ok)
	assert.Equal(t, "alpha team", d.Author)
}

func TestLoadAllReportsFailedCandidates(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "broken"), map[string]string{
		ManifestFile: "module: [unterminated\n",
		LuaFile:      fmt.Sprintf(tintScript, "1.0.0"),
	})
	writeFiles(t, filepath.Join(root, "missing-module"), map[string]string{
		ManifestFile: "module: not-linked\n",
		UIFile:       tintUI,
	})
	writeFiles(t, filepath.Join(root, "syntax"), map[string]string{
		ManifestFile: "",
		LuaFile:      "function (",
	})
	writeFiles(t, filepath.Join(root, "ok"), map[string]string{
		ManifestFile: "",
		LuaFile:      fmt.Sprintf(tintScript, "1.0.0"),
	})

	l, registry := newLoader(t)
	require.True(t, l.AddDirectory(root))

	results := l.LoadAll()
	require.Equal(t, map[string]bool{
		"broken":         false,
		"missing-module": false,
		"syntax":         false,
		"ok":             true,
	}, results)
	require.Equal(t, 1, registry.Len())

	_, err := l.LoadFromPath(filepath.Join(root, "missing-module"))
	require.ErrorContains(t, err, `catalog module "not-linked" is not linked`)
	require.ErrorContains(t, err, "linked: ")
}

func TestMalformedMetadataDegrades(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "tint"), map[string]string{
		ManifestFile:     "",
		LuaFile:          fmt.Sprintf(tintScript, "1.0.0"),
		MetadataJSONFile: "{not json",
	})

	l, registry := newLoader(t)
	ids, err := l.LoadFromPath(filepath.Join(root, "tint"))
	require.NoError(t, err)
	require.Len(t, ids, 1)

	d, ok := registry.Descriptor(ids[0])
	require.True(t, ok)
	assert.Empty(t, d.Extra)
	assert.Equal(t, "Tint", d.Name)
}

func TestMetadataIsMergedIntoDescriptor(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "tint"), map[string]string{
		ManifestFile:     "",
		LuaFile:          fmt.Sprintf(tintScript, "1.0.0"),
		MetadataJSONFile: `{"description": "Warm color cast", "license": "MIT"}`,
	})

	l, registry := newLoader(t)
	ids, err := l.LoadFromPath(filepath.Join(root, "tint"))
	require.NoError(t, err)

	d, ok := registry.Descriptor(ids[0])
	require.True(t, ok)
	assert.Equal(t, "Warm color cast", d.Description)
	assert.Equal(t, "MIT", d.Extra["license"])
}

func TestLuaRegistrationUsesDeclarativeUI(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "tint"), map[string]string{
		ManifestFile: "",
		LuaFile:      fmt.Sprintf(tintScript, "1.0.0"),
		UIFile:       tintUI,
	})

	l, registry := newLoader(t)
	require.True(t, l.AddDirectory(root))
	require.Equal(t, map[string]bool{"tint": true}, l.LoadAll())

	ui, ok := registry.UI("tint_1.0.0")
	require.True(t, ok)
	require.NotNil(t, ui)
	require.Equal(t, []effect.Group{{Title: "Tint", Parameters: []string{"mode", "shade"}}}, ui.Groups())
	require.Equal(t, []dependency.Rule{{
		Controlling: "mode",
		Dependent:   "shade",
		Condition:   dependency.Equals{Value: "Custom"},
	}}, ui.Dependencies())

	e, ok := registry.Get("tint_1.0.0")
	require.True(t, ok)
	frame := effecttest.Frame(1, 1, effect.Color{R: 10, G: 20, B: 30})
	out := e.Apply(frame, effect.Defaults(e.ParameterSpecs()))
	require.Equal(t, []uint8{10, 20, 0, 255}, out.Pix)
}

func TestCatalogEntryPoint(t *testing.T) {
	t.Parallel()

	module := registerCatalog(t, catalog.Symbols{
		RegisterSymbol: func(reg effect.Registrar) error {
			for _, name := range []string{"Soft Glow", "Hard Glow"} {
				if _, err := reg.Register(effecttest.New(name, effecttest.WithCategory("filters")), nil); err != nil {
					return err
				}
			}
			return nil
		},
	})

	dir := filepath.Join(t.TempDir(), "glow")
	writeFiles(t, dir, map[string]string{
		ManifestFile:     "module: " + module + "\n",
		MetadataYAMLFile: "tags: [glow]\n",
	})

	l, registry := newLoader(t)
	ids, err := l.LoadFromPath(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"soft_glow_1.0.0", "hard_glow_1.0.0"}, ids)
	require.Len(t, registry.ByCategory("filters"), 2)
	for _, id := range ids {
		d, ok := registry.Descriptor(id)
		require.True(t, ok)
		assert.Equal(t, []string{"glow"}, d.Tags)
		assert.Equal(t, dir, l.Modules()[id])
	}
}

func TestFailedEntryPointIsRolledBack(t *testing.T) {
	t.Parallel()

	module := registerCatalog(t, catalog.Symbols{
		RegisterSymbol: func(reg effect.Registrar) error {
			if _, err := reg.Register(effecttest.New("First"), nil); err != nil {
				return err
			}
			return errors.New("second effect unavailable")
		},
	})

	dir := filepath.Join(t.TempDir(), "half")
	writeFiles(t, dir, map[string]string{
		ManifestFile:     "module: " + module + "\n",
		MetadataYAMLFile: "{}\n",
	})

	l, registry := newLoader(t)
	_, err := l.LoadFromPath(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "second effect unavailable")
	require.Zero(t, registry.Len())
	require.Empty(t, l.Modules())
}

func TestCapabilityDiscoveryPairsUI(t *testing.T) {
	t.Parallel()

	ui := &effect.StaticUI{GroupList: []effect.Group{{Title: "Main"}}}
	module := registerCatalog(t, catalog.Symbols{
		"NewEffect": func() (effect.Effect, error) { return effecttest.New("Paired"), nil },
		"NewUI":     func(effect.Effect) effect.UIDescriptor { return ui },
	})

	dir := filepath.Join(t.TempDir(), "paired")
	writeFiles(t, dir, map[string]string{
		ManifestFile: "module: " + module + "\n",
		UIFile:       "groups: [{title: Ignored}]\n",
	})

	l, registry := newLoader(t)
	ids, err := l.LoadFromPath(dir)
	require.NoError(t, err)

	got, ok := registry.UI(ids[0])
	require.True(t, ok)
	require.Same(t, ui, got)
}

func TestReloadCatalogModule(t *testing.T) {
	t.Parallel()

	var built []*effecttest.Fake
	module := registerCatalog(t, catalog.Symbols{
		"NewEffect": func() effect.Effect {
			f := effecttest.New("Counter")
			built = append(built, f)
			return f
		},
	})

	dir := filepath.Join(t.TempDir(), "counter")
	writeFiles(t, dir, map[string]string{
		ManifestFile:     "module: " + module + "\n",
		MetadataYAMLFile: "author: counters\n",
	})

	l, registry := newLoader(t)
	ids, err := l.LoadFromPath(dir)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	newID, err := l.Reload(ids[0])
	require.NoError(t, err)
	require.NotEqual(t, ids[0], newID)
	require.Len(t, built, 2)
	require.Equal(t, 1, built[0].CleanupCalls)

	_, ok := registry.Get(ids[0])
	require.False(t, ok)
	d, ok := registry.Descriptor(newID)
	require.True(t, ok)
	assert.Equal(t, "counters", d.Author)
	assert.True(t, l.Owns(newID))
	assert.False(t, l.Owns(ids[0]))
}

func TestReloadLuaRereadsFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "tint")
	writeFiles(t, dir, map[string]string{
		ManifestFile: "",
		LuaFile:      fmt.Sprintf(tintScript, "1.0.0"),
	})

	l, registry := newLoader(t)
	ids, err := l.LoadFromPath(dir)
	require.NoError(t, err)
	old, _ := registry.Get(ids[0])

	writeFiles(t, dir, map[string]string{LuaFile: fmt.Sprintf(tintScript, "2.0.0")})

	newID, err := l.Reload(ids[0])
	require.NoError(t, err)
	require.Equal(t, "tint_2.0.0", newID)

	frame := effecttest.Frame(1, 1, effect.Color{R: 1, G: 2, B: 3})
	require.Same(t, frame, old.Apply(frame, nil), "old script state is closed")
}

func TestReloadUnknownID(t *testing.T) {
	t.Parallel()

	l, registry := newLoader(t)
	_, err := registry.Register(effecttest.New("Manual"), nil)
	require.NoError(t, err)

	_, err = l.Reload("manual_1.0.0")
	var notFound plugin.ErrPluginNotFound
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "manual_1.0.0", notFound.ID)
}

func TestLoadFromPathSingleScript(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "posterize.lua")
	require.NoError(t, os.WriteFile(path, []byte(`
posterize = {
  name = "Posterize",
  category = "artistic",
  parameters = { { name = "levels", type = "int", default = 4, min = 2, max = 16 } },
  apply = function(r, g, b, params)
    local step = 255 / (params.levels - 1)
    return math.floor(r / step + 0.5) * step, math.floor(g / step + 0.5) * step, math.floor(b / step + 0.5) * step
  end,
}
`), 0o644))

	l, registry := newLoader(t)
	ids, err := l.LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, []string{"posterize_1.0.0"}, ids)

	e, _ := registry.Get(ids[0])
	frame := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(frame.Pix, []uint8{200, 10, 90, 255})
	out := e.Apply(frame, effect.Values{"levels": 2})
	require.Equal(t, []uint8{255, 0, 0, 255}, out.Pix)
}

func TestAddDirectoryIgnoresMissingPaths(t *testing.T) {
	t.Parallel()

	l, _ := newLoader(t)
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.False(t, l.AddDirectory(filepath.Join(t.TempDir(), "missing")))
	assert.False(t, l.AddDirectory(file))
	assert.Empty(t, l.Roots())
	assert.Empty(t, l.LoadAll())
}

func TestDuplicateDirectoryNamesGetRelativeKeys(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, dir := range []string{"a/tint", "b/tint"} {
		writeFiles(t, filepath.Join(root, dir), map[string]string{
			ManifestFile: "",
			LuaFile:      fmt.Sprintf(tintScript, "1.0.0"),
		})
	}

	l, registry := newLoader(t)
	require.True(t, l.AddDirectory(root))
	require.Equal(t, map[string]bool{"tint": true, "b/tint": true}, l.LoadAll())
	require.ElementsMatch(t, []string{"tint_1.0.0", "tint_1.0.0_1"}, registry.IDs())
}

func TestCleanupClosesModules(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "tint")
	writeFiles(t, dir, map[string]string{
		ManifestFile: "",
		LuaFile:      fmt.Sprintf(tintScript, "1.0.0"),
	})

	l, registry := newLoader(t)
	require.True(t, l.AddDirectory(filepath.Dir(dir)))
	ids, err := l.LoadFromPath(dir)
	require.NoError(t, err)

	e, ok := registry.Get(ids[0])
	require.True(t, ok)

	l.Cleanup()
	assert.Empty(t, l.Modules())
	assert.Empty(t, l.Roots())
	assert.Zero(t, registry.Len())

	_, ok = registry.Get(ids[0])
	assert.False(t, ok)
	frame := effecttest.Frame(1, 1, effect.Color{R: 9})
	assert.Same(t, frame, e.Apply(frame, nil))
}

func TestCleanupRunsScriptHooksBeforeClosing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"first", "second"} {
		writeFiles(t, filepath.Join(root, name), map[string]string{
			ManifestFile: "",
			LuaFile:      fmt.Sprintf(hookScript, name),
		})
	}

	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "debug", Writer: buf})
	require.NoError(t, err)
	registry := plugin.NewRegistry(nil, log, nil)
	l := New(registry, Options{Logger: log})
	require.True(t, l.AddDirectory(root))
	require.Equal(t, map[string]bool{"first": true, "second": true}, l.LoadAll())

	l.Cleanup()
	assert.Equal(t, 2, strings.Count(buf.String(), "script cleanup failed"))
	assert.Zero(t, registry.Len())
}
