package plugin

import (
	"github.com/alexisbeaulieu97/framefx/internal/effect"
)

// Descriptor is the registry's snapshot of an effect taken at registration.
type Descriptor struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description string         `json:"description,omitempty"`
	Version     string         `json:"version"`
	Author      string         `json:"author,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Enabled     bool           `json:"enabled"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Entry pairs an id with its live effect.
type Entry struct {
	ID     string
	Effect effect.Effect
}

// Statistics summarises the registry contents.
type Statistics struct {
	Total       int            `json:"total_plugins"`
	Enabled     int            `json:"enabled_plugins"`
	Disabled    int            `json:"disabled_plugins"`
	Categories  int            `json:"total_categories"`
	PerCategory map[string]int `json:"category_counts"`
}

func newDescriptor(id string, meta effect.Metadata) *Descriptor {
	return &Descriptor{
		ID:          id,
		Name:        meta.Name,
		Category:    meta.Category,
		Description: meta.Description,
		Version:     meta.Version,
		Author:      meta.Author,
		Tags:        append([]string(nil), meta.Tags...),
		Enabled:     true,
	}
}

func (d *Descriptor) clone() Descriptor {
	out := *d
	out.Tags = append([]string(nil), d.Tags...)
	if d.Extra != nil {
		out.Extra = make(map[string]any, len(d.Extra))
		for k, v := range d.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// merge folds declarative metadata into the snapshot. Display fields are
// overwritten; identity fields (name, category, version) are kept and every
// key is preserved in Extra.
func (d *Descriptor) merge(extra map[string]any) {
	if len(extra) == 0 {
		return
	}
	if d.Extra == nil {
		d.Extra = make(map[string]any, len(extra))
	}
	for key, value := range extra {
		d.Extra[key] = value
		switch key {
		case "description":
			if s, ok := value.(string); ok {
				d.Description = s
			}
		case "author":
			if s, ok := value.(string); ok {
				d.Author = s
			}
		case "tags":
			if tags, ok := stringList(value); ok {
				d.Tags = tags
			}
		}
	}
}

func stringList(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
