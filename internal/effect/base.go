package effect

import (
	"sync"

	"github.com/alexisbeaulieu97/framefx/internal/logger"
)

// Base implements every Effect method except Apply. Effects embed a *Base
// created by NewBase.
type Base struct {
	meta    Metadata
	specs   []ParameterSpec
	params  Values
	enabled bool
	log     *logger.Logger

	cleanupOnce sync.Once
	release     func()
}

// NewBase returns an enabled Base whose parameters start at their defaults.
func NewBase(meta Metadata, specs ...ParameterSpec) *Base {
	if meta.Version == "" {
		meta.Version = DefaultVersion
	}
	return &Base{
		meta:    meta,
		specs:   specs,
		params:  Defaults(specs),
		enabled: true,
	}
}

// Metadata implements Effect.
func (b *Base) Metadata() Metadata {
	meta := b.meta
	meta.Tags = append([]string(nil), b.meta.Tags...)
	return meta
}

// ParameterSpecs implements Effect.
func (b *Base) ParameterSpecs() []ParameterSpec {
	return append([]ParameterSpec(nil), b.specs...)
}

// Spec returns the declaration of name.
func (b *Base) Spec(name string) (ParameterSpec, bool) {
	for _, spec := range b.specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return ParameterSpec{}, false
}

// SetParameter stores value for name. Declared parameters are coerced;
// values that do not coerce are stored as given.
func (b *Base) SetParameter(name string, value any) {
	if spec, ok := b.Spec(name); ok {
		if coerced, err := spec.Coerce(value); err == nil {
			value = coerced
		} else {
			b.log.Debug("parameter value kept uncoerced", "parameter", name, "error", err.Error())
		}
	}
	b.params[name] = value
}

// Parameter returns the stored value of name.
func (b *Base) Parameter(name string) (any, bool) {
	v, ok := b.params[name]
	return v, ok
}

// Parameters returns a copy of the stored values.
func (b *Base) Parameters() Values {
	return b.params.Clone()
}

// Enable implements Effect.
func (b *Base) Enable() { b.enabled = true }

// Disable implements Effect.
func (b *Base) Disable() { b.enabled = false }

// Enabled implements Effect.
func (b *Base) Enabled() bool { return b.enabled }

// OnCleanup sets the hook run by the first Cleanup call.
func (b *Base) OnCleanup(release func()) {
	b.release = release
}

// Cleanup runs the release hook once.
func (b *Base) Cleanup() {
	b.cleanupOnce.Do(func() {
		if b.release != nil {
			b.release()
		}
		b.log.Debug("effect cleaned up")
	})
}

// SetLogger implements LoggerAware.
func (b *Base) SetLogger(log *logger.Logger) {
	b.log = log
}

// Log returns the effect logger. It may be nil; logger methods are nil-safe.
func (b *Base) Log() *logger.Logger {
	return b.log
}
