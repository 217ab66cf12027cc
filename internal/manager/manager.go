// Package manager is the host-facing façade over the registry and the loader.
// It tracks the current effect of a session, its parameter values and the
// visibility of parameters governed by dependency rules.
package manager

import (
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/alexisbeaulieu97/framefx/internal/dependency"
	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/events"
	"github.com/alexisbeaulieu97/framefx/internal/loader"
	"github.com/alexisbeaulieu97/framefx/internal/logger"
	"github.com/alexisbeaulieu97/framefx/internal/plugin"
)

// Options configures a Manager.
type Options struct {
	Logger *logger.Logger
	// Registry tunes id generation; nil uses plugin.DefaultConfig.
	Registry *plugin.Config
	// ScriptTimeout bounds every call into a Lua effect.
	ScriptTimeout time.Duration
}

// Summary reports the outcome of Initialize.
type Summary struct {
	Directories []string          `json:"directories"`
	Results     map[string]bool   `json:"results"`
	Loaded      int               `json:"loaded"`
	Failed      int               `json:"failed"`
	Statistics  plugin.Statistics `json:"statistics"`
}

// Manager is not safe for concurrent use; hosts serialise calls, typically
// on their frame-processing goroutine.
type Manager struct {
	session  string
	log      *logger.Logger
	events   *events.Publisher
	registry *plugin.Registry
	loader   *loader.Loader

	currentID  string
	current    effect.Effect
	values     effect.Values
	rules      map[string]*dependency.Rules
	visibility map[string]bool
}

// New wires a registry, a loader and a publisher together.
func New(opts Options) *Manager {
	session := uuid.NewString()
	log := opts.Logger.With("session", session)
	publisher := events.NewPublisher(log)
	registry := plugin.NewRegistry(opts.Registry, log, publisher)

	m := &Manager{
		session:  session,
		log:      log,
		events:   publisher,
		registry: registry,
		loader:   loader.New(registry, loader.Options{Logger: log, ScriptTimeout: opts.ScriptTimeout}),
		values:   effect.Values{},
		rules:    make(map[string]*dependency.Rules),
	}
	publisher.Subscribe(events.PluginRegistered, m.onRegistered)
	publisher.Subscribe(events.PluginUnregistered, m.onUnregistered)
	return m
}

// Session returns the id attached to every log entry of this manager.
func (m *Manager) Session() string { return m.session }

// Registry exposes the underlying registry.
func (m *Manager) Registry() *plugin.Registry { return m.registry }

// Loader exposes the underlying loader.
func (m *Manager) Loader() *loader.Loader { return m.loader }

// DefaultDirectories lists the conventional plugin roots relative to the
// working directory and to the executable.
func DefaultDirectories() []string {
	dirs := []string{filepath.Join("plugins", "effects")}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Join(filepath.Dir(exe), "plugins", "effects"))
	}
	if cfg, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(cfg, "framefx", "plugins"))
	}
	return dirs
}

// Initialize scans dirs, or the existing default directories when none are
// given, and registers every plugin found.
func (m *Manager) Initialize(dirs ...string) Summary {
	if len(dirs) == 0 {
		for _, dir := range DefaultDirectories() {
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				dirs = append(dirs, dir)
			}
		}
	}

	summary := Summary{}
	for _, dir := range dirs {
		if m.loader.AddDirectory(dir) {
			summary.Directories = append(summary.Directories, dir)
		}
	}

	summary.Results = m.loader.LoadAll()
	for _, ok := range summary.Results {
		if ok {
			summary.Loaded++
		} else {
			summary.Failed++
		}
	}
	summary.Statistics = m.registry.Statistics()

	m.log.Info("plugin manager initialized",
		"loaded", summary.Loaded,
		"failed", summary.Failed,
		"effects", summary.Statistics.Total,
		"categories", summary.Statistics.Categories)
	return summary
}

// AllEffects lists every registered effect in registration order.
func (m *Manager) AllEffects() []plugin.Entry { return m.registry.All() }

// EffectsByCategory lists the effects of category.
func (m *Manager) EffectsByCategory(category string) []plugin.Entry {
	return m.registry.ByCategory(category)
}

// Categories lists categories in the order they first appeared.
func (m *Manager) Categories() []string { return m.registry.Categories() }

// SearchEffects matches query against names, descriptions and tags.
func (m *Manager) SearchEffects(query string) []plugin.Entry { return m.registry.Search(query) }

// Effect returns the effect registered under id.
func (m *Manager) Effect(id string) (effect.Effect, bool) { return m.registry.Get(id) }

// EffectUI returns the descriptor registered with id.
func (m *Manager) EffectUI(id string) (effect.UIDescriptor, bool) { return m.registry.UI(id) }

// EffectMetadata returns the descriptor of id.
func (m *Manager) EffectMetadata(id string) (plugin.Descriptor, bool) {
	return m.registry.Descriptor(id)
}

// Statistics summarises the registry.
func (m *Manager) Statistics() plugin.Statistics { return m.registry.Statistics() }

// SetCurrentEffect makes id the current effect and resets the parameter
// values to their declared defaults, uncoerced.
func (m *Manager) SetCurrentEffect(id string) bool {
	e, ok := m.registry.Get(id)
	if !ok {
		m.log.Warn("effect not found", "id", id)
		return false
	}

	m.currentID = id
	m.current = e
	m.values = declaredDefaults(e)
	m.loadRules(id)
	m.visibility = m.rulesFor(id).Map(paramNames(e), m.values)

	m.log.Info("current effect changed", "id", id, "name", e.Metadata().Name)
	m.events.Publish(events.Event{
		Type:    events.EffectChanged,
		Payload: map[string]any{"id": id, "name": e.Metadata().Name},
	})
	return true
}

// CurrentEffect returns the current effect and its id.
func (m *Manager) CurrentEffect() (string, effect.Effect, bool) {
	if m.current == nil {
		return "", nil, false
	}
	return m.currentID, m.current, true
}

// SetParameter stores value for the current effect and forwards it to the
// instance. Values are not validated here; ApplyEffect does that per frame.
func (m *Manager) SetParameter(name string, value any) bool {
	if m.current == nil {
		m.log.Warn("no current effect", "parameter", name)
		return false
	}

	m.values[name] = value
	m.current.SetParameter(name, value)
	m.events.Publish(events.Event{
		Type:    events.ParameterChanged,
		Payload: map[string]any{"id": m.currentID, "parameter": name, "value": value},
	})

	if results := m.OnParameterChanged(name, value); len(results) > 0 {
		payload := make(map[string]any, len(results)+1)
		for _, r := range results {
			payload[r.Parameter] = r.Visible
		}
		payload["id"] = m.currentID
		m.events.Publish(events.Event{Type: events.VisibilityChanged, Payload: payload})
	}
	return true
}

// Parameter returns the stored value of name.
func (m *Manager) Parameter(name string) (any, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Parameters returns a copy of the stored values.
func (m *Manager) Parameters() effect.Values { return m.values.Clone() }

// ResetParameters restores every declared default, in the mapping and on the
// instance.
func (m *Manager) ResetParameters() {
	if m.current == nil {
		return
	}
	m.values = declaredDefaults(m.current)
	for _, spec := range m.current.ParameterSpecs() {
		m.current.SetParameter(spec.Name, spec.Default)
	}
	m.visibility = m.rulesFor(m.currentID).Map(paramNames(m.current), m.values)
	m.log.Info("parameters reset", "id", m.currentID)
}

// ApplyEffect runs the current effect over frame. Without an enabled current
// effect the frame is returned unchanged.
func (m *Manager) ApplyEffect(frame *image.RGBA) *image.RGBA {
	if m.current == nil || !m.current.Enabled() {
		return frame
	}
	params := effect.ValidateValues(m.current.ParameterSpecs(), m.values)
	return effect.SafeApply(m.current, frame, params, m.log.With("effect", m.currentID))
}

// EnableEffect enables id.
func (m *Manager) EnableEffect(id string) bool { return m.registry.Enable(id) }

// DisableEffect disables id. It stays registered.
func (m *Manager) DisableEffect(id string) bool { return m.registry.Disable(id) }

// ReloadEffect reloads the module id came from. When id was current, the
// session moves to the new id and keeps the values the new effect still
// declares.
func (m *Manager) ReloadEffect(id string) (string, error) {
	wasCurrent := id == m.currentID && m.current != nil
	previous := m.values.Clone()

	newID, err := m.loader.Reload(id)
	if err != nil {
		m.log.Error(err, "failed to reload effect", "id", id)
		return "", err
	}
	if wasCurrent && m.SetCurrentEffect(newID) {
		for _, spec := range m.current.ParameterSpecs() {
			if v, ok := previous[spec.Name]; ok {
				m.values[spec.Name] = v
				m.current.SetParameter(spec.Name, v)
			}
		}
		m.visibility = m.rulesFor(newID).Map(paramNames(m.current), m.values)
	}
	return newID, nil
}

// LoadFromPath loads one plugin directory or code file.
func (m *Manager) LoadFromPath(path string) ([]string, error) {
	ids, err := m.loader.LoadFromPath(path)
	if err != nil {
		m.log.Error(err, "failed to load plugin", "path", path)
	}
	return ids, err
}

// Subscribe registers handler for eventType.
func (m *Manager) Subscribe(eventType string, handler events.Handler) events.Subscription {
	return m.events.Subscribe(eventType, handler)
}

// Cleanup releases the current effect, the loader's modules and every
// registered effect, in that order.
func (m *Manager) Cleanup() {
	m.log.Info("cleaning up plugin manager")
	if m.current != nil {
		m.current.Cleanup()
	}
	m.clearSession()
	m.loader.Cleanup()
	m.registry.Clear()
	m.rules = make(map[string]*dependency.Rules)
}

func (m *Manager) clearSession() {
	m.currentID = ""
	m.current = nil
	m.values = effect.Values{}
	m.visibility = nil
}

func (m *Manager) onRegistered(event events.Event) error {
	m.log.Debug("plugin registered", "id", event.Payload["id"], "name", event.Payload["name"])
	m.events.Publish(events.Event{Type: events.PluginLoaded, Payload: event.Payload})
	return nil
}

func (m *Manager) onUnregistered(event events.Event) error {
	id, _ := event.Payload["id"].(string)
	delete(m.rules, id)
	if id != "" && id == m.currentID {
		m.log.Info("current effect was unregistered", "id", id)
		m.clearSession()
	}
	return nil
}

// declaredDefaults maps every parameter to its default exactly as declared.
// Coercion happens per frame in ApplyEffect.
func declaredDefaults(e effect.Effect) effect.Values {
	specs := e.ParameterSpecs()
	values := make(effect.Values, len(specs))
	for _, spec := range specs {
		values[spec.Name] = spec.Default
	}
	return values
}

func paramNames(e effect.Effect) []string {
	specs := e.ParameterSpecs()
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Name)
	}
	return names
}
