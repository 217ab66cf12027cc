package plugin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/events"
	"github.com/alexisbeaulieu97/framefx/internal/logger"
)

// Registry owns registered effects and indexes them by id and category.
// It is not safe for concurrent use.
type Registry struct {
	config *Config
	logger *logger.Logger
	events *events.Publisher

	effects     map[string]effect.Effect
	uis         map[string]effect.UIDescriptor
	descriptors map[string]*Descriptor
	categories  map[string][]string
	catOrder    []string
	order       []string
	issued      map[string]struct{}
}

// NewRegistry returns an empty registry. A nil config selects DefaultConfig;
// a nil publisher disables notifications.
func NewRegistry(config *Config, log *logger.Logger, publisher *events.Publisher) *Registry {
	return &Registry{
		config:      config.normalized(),
		logger:      log,
		events:      publisher,
		effects:     make(map[string]effect.Effect),
		uis:         make(map[string]effect.UIDescriptor),
		descriptors: make(map[string]*Descriptor),
		categories:  make(map[string][]string),
		issued:      make(map[string]struct{}),
	}
}

// Register validates e, assigns it a fresh id and indexes it. When ui is nil
// and e provides its own descriptor, that one is used.
func (r *Registry) Register(e effect.Effect, ui effect.UIDescriptor) (string, error) {
	if err := effect.Validate(e); err != nil {
		return "", err
	}

	if ui == nil {
		if provider, ok := e.(effect.UIProvider); ok {
			ui = provider.UI()
		}
	}

	meta := e.Metadata()
	id := r.nextID(meta)

	r.effects[id] = e
	if ui != nil {
		r.uis[id] = ui
	}
	if _, ok := r.categories[meta.Category]; !ok {
		r.catOrder = append(r.catOrder, meta.Category)
	}
	r.categories[meta.Category] = append(r.categories[meta.Category], id)
	r.order = append(r.order, id)
	r.descriptors[id] = newDescriptor(id, meta)

	if aware, ok := e.(effect.LoggerAware); ok && r.logger != nil {
		aware.SetLogger(r.logger.With("effect", id))
	}

	r.logger.Info("registered effect", "id", id, "name", meta.Name, "category", meta.Category)
	r.events.Publish(events.Event{
		Type:    events.PluginRegistered,
		Payload: map[string]any{"id": id, "name": meta.Name, "category": meta.Category},
	})
	return id, nil
}

// Unregister cleans up and removes id. It reports false for unknown ids.
func (r *Registry) Unregister(id string) bool {
	e, ok := r.effects[id]
	if !ok {
		r.logger.Warn("effect not found in registry", "id", id)
		return false
	}

	r.release(id, e)

	category := r.descriptors[id].Category
	r.removeFromCategory(category, id)
	r.order = remove(r.order, id)
	delete(r.effects, id)
	delete(r.uis, id)
	delete(r.descriptors, id)

	r.logger.Info("unregistered effect", "id", id)
	r.events.Publish(events.Event{
		Type:    events.PluginUnregistered,
		Payload: map[string]any{"id": id, "category": category},
	})
	return true
}

// Get returns the effect registered under id.
func (r *Registry) Get(id string) (effect.Effect, bool) {
	e, ok := r.effects[id]
	return e, ok
}

// UI returns the descriptor registered with id, if any.
func (r *Registry) UI(id string) (effect.UIDescriptor, bool) {
	ui, ok := r.uis[id]
	return ui, ok
}

// Descriptor returns a copy of the snapshot taken for id.
func (r *Registry) Descriptor(id string) (Descriptor, bool) {
	d, ok := r.descriptors[id]
	if !ok {
		return Descriptor{}, false
	}
	out := d.clone()
	out.Enabled = r.effects[id].Enabled()
	return out, true
}

// Descriptors returns every snapshot in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		d, _ := r.Descriptor(id)
		out = append(out, d)
	}
	return out
}

// MergeMetadata folds declarative metadata into the snapshot of id.
func (r *Registry) MergeMetadata(id string, extra map[string]any) bool {
	d, ok := r.descriptors[id]
	if !ok {
		return false
	}
	d.merge(extra)
	return true
}

// ByCategory returns the effects of category in registration order.
func (r *Registry) ByCategory(category string) []Entry {
	ids := r.categories[category]
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, Entry{ID: id, Effect: r.effects[id]})
	}
	return out
}

// All returns every effect in registration order.
func (r *Registry) All() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Entry{ID: id, Effect: r.effects[id]})
	}
	return out
}

// Enabled returns the effects that are currently enabled.
func (r *Registry) Enabled() []Entry {
	var out []Entry
	for _, id := range r.order {
		if e := r.effects[id]; e.Enabled() {
			out = append(out, Entry{ID: id, Effect: e})
		}
	}
	return out
}

// IDs returns every id in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Categories returns the non-empty categories in first-registration order.
func (r *Registry) Categories() []string {
	return append([]string(nil), r.catOrder...)
}

// Len returns the number of registered effects.
func (r *Registry) Len() int {
	return len(r.order)
}

// Search matches query case-insensitively against names, descriptions and
// tags. An empty query matches everything.
func (r *Registry) Search(query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Entry
	for _, id := range r.order {
		if matches(r.descriptors[id], q) {
			out = append(out, Entry{ID: id, Effect: r.effects[id]})
		}
	}
	return out
}

// Enable enables id.
func (r *Registry) Enable(id string) bool {
	e, ok := r.effects[id]
	if !ok {
		return false
	}
	e.Enable()
	r.logger.Debug("enabled effect", "id", id)
	return true
}

// Disable disables id. The effect stays registered.
func (r *Registry) Disable(id string) bool {
	e, ok := r.effects[id]
	if !ok {
		return false
	}
	e.Disable()
	r.logger.Debug("disabled effect", "id", id)
	return true
}

// Clear cleans up and removes every effect. Issued ids stay reserved.
func (r *Registry) Clear() {
	for _, id := range r.order {
		r.release(id, r.effects[id])
	}
	r.effects = make(map[string]effect.Effect)
	r.uis = make(map[string]effect.UIDescriptor)
	r.descriptors = make(map[string]*Descriptor)
	r.categories = make(map[string][]string)
	r.catOrder = nil
	r.order = nil
	r.logger.Info("registry cleared")
}

// Statistics counts effects overall and per category.
func (r *Registry) Statistics() Statistics {
	stats := Statistics{
		Total:       len(r.order),
		Categories:  len(r.categories),
		PerCategory: make(map[string]int, len(r.categories)),
	}
	for category, ids := range r.categories {
		stats.PerCategory[category] = len(ids)
	}
	for _, id := range r.order {
		if r.effects[id].Enabled() {
			stats.Enabled++
		}
	}
	stats.Disabled = stats.Total - stats.Enabled
	return stats
}

func (r *Registry) nextID(meta effect.Metadata) string {
	sep := r.config.IDSeparator
	base := strings.ToLower(strings.ReplaceAll(meta.Name+sep+meta.Version, " ", sep))
	id := base
	for n := r.config.SuffixStart; ; n++ {
		if _, taken := r.issued[id]; !taken {
			break
		}
		id = base + sep + strconv.Itoa(n)
	}
	r.issued[id] = struct{}{}
	return id
}

// release runs the cleanup hooks of an effect and its descriptor. A panicking
// hook is logged and does not stop removal.
func (r *Registry) release(id string, e effect.Effect) {
	r.guard(id, "effect cleanup", e.Cleanup)
	if ui, ok := r.uis[id]; ok {
		if closer, ok := ui.(interface{ Cleanup() }); ok {
			r.guard(id, "ui cleanup", closer.Cleanup)
		}
	}
}

func (r *Registry) guard(id, what string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(fmt.Errorf("%v", rec), what+" panicked", "id", id)
		}
	}()
	fn()
}

func (r *Registry) removeFromCategory(category, id string) {
	ids := remove(r.categories[category], id)
	if len(ids) == 0 {
		delete(r.categories, category)
		r.catOrder = remove(r.catOrder, category)
		return
	}
	r.categories[category] = ids
}

func matches(d *Descriptor, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Description), q) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func remove(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
