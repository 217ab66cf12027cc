// Package effecttest provides a configurable Effect for tests.
package effecttest

import (
	"image"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
)

// Option configures a Fake before it is built.
type Option func(*Fake)

// Fake is an effect whose behaviour is set through options. It records the
// calls made to it.
type Fake struct {
	*effect.Base

	meta    effect.Metadata
	specs   []effect.ParameterSpec
	applyFn func(*image.RGBA, effect.Values) *image.RGBA
	ui      effect.UIDescriptor

	CleanupCalls int
	ApplyCalls   int
	LastParams   effect.Values
	SetCalls     []string
}

// New returns a Fake named name in category "test" at version 1.0.0.
func New(name string, opts ...Option) *Fake {
	f := &Fake{meta: effect.Metadata{Name: name, Category: "test", Version: "1.0.0"}}
	for _, opt := range opts {
		opt(f)
	}
	f.Base = effect.NewBase(f.meta, f.specs...)
	f.Base.OnCleanup(func() { f.CleanupCalls++ })
	return f
}

// WithCategory sets the category.
func WithCategory(category string) Option {
	return func(f *Fake) { f.meta.Category = category }
}

// WithVersion sets the version.
func WithVersion(version string) Option {
	return func(f *Fake) { f.meta.Version = version }
}

// WithDescription sets the description.
func WithDescription(description string) Option {
	return func(f *Fake) { f.meta.Description = description }
}

// WithTags sets the tags.
func WithTags(tags ...string) Option {
	return func(f *Fake) { f.meta.Tags = tags }
}

// WithParams declares parameters.
func WithParams(specs ...effect.ParameterSpec) Option {
	return func(f *Fake) { f.specs = append(f.specs, specs...) }
}

// WithApply replaces the identity transform.
func WithApply(fn func(*image.RGBA, effect.Values) *image.RGBA) Option {
	return func(f *Fake) { f.applyFn = fn }
}

// WithUI attaches a descriptor returned by UI().
func WithUI(ui effect.UIDescriptor) Option {
	return func(f *Fake) { f.ui = ui }
}

// Apply implements effect.Effect.
func (f *Fake) Apply(frame *image.RGBA, params effect.Values) *image.RGBA {
	f.ApplyCalls++
	f.LastParams = params
	if f.applyFn != nil {
		return f.applyFn(frame, params)
	}
	return frame
}

// SetParameter records the call and stores the value.
func (f *Fake) SetParameter(name string, value any) {
	f.SetCalls = append(f.SetCalls, name)
	f.Base.SetParameter(name, value)
}

// UI implements effect.UIProvider.
func (f *Fake) UI() effect.UIDescriptor {
	return f.ui
}

// Frame returns a w x h frame filled with c.
func Frame(w, h int, c effect.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = 0xff
	}
	return img
}
