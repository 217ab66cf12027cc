// Package effect defines the contract every effect plugin implements along
// with the parameter schema, value coercion and the helpers plugins embed.
package effect

import (
	stdErrors "errors"
	"fmt"
	"image"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alexisbeaulieu97/framefx/internal/dependency"
	"github.com/alexisbeaulieu97/framefx/internal/logger"
	pkgerrors "github.com/alexisbeaulieu97/framefx/pkg/errors"
)

// DefaultVersion is used when an effect does not declare a version.
const DefaultVersion = "1.0.0"

// Effect is a frame transform with a typed parameter schema.
type Effect interface {
	Metadata() Metadata
	ParameterSpecs() []ParameterSpec
	// Apply returns a frame with the bounds of frame. It must not retain
	// frame and returns it unchanged when processing fails.
	Apply(frame *image.RGBA, params Values) *image.RGBA
	SetParameter(name string, value any)
	Enable()
	Disable()
	Enabled() bool
	// Cleanup releases resources. Calling it more than once is harmless.
	Cleanup()
}

// Metadata identifies an effect.
type Metadata struct {
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Category    string   `json:"category" yaml:"category" validate:"required"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string   `json:"version" yaml:"version" validate:"required,semver"`
	Author      string   `json:"author,omitempty" yaml:"author,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Validate checks the identifying fields.
func (m Metadata) Validate() error {
	if err := validatorInstance().Struct(m); err != nil {
		return fieldError("metadata", err)
	}
	return nil
}

// Values maps parameter names to their current values.
type Values map[string]any

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// Group is a titled set of parameters shown together.
type Group struct {
	Title      string   `json:"title" yaml:"title"`
	Parameters []string `json:"parameters" yaml:"parameters"`
}

// UIDescriptor is the optional companion of an effect describing how its
// parameters are grouped and which of them depend on others. Descriptors
// that also implement Cleanup() have it called when the effect is removed.
type UIDescriptor interface {
	Groups() []Group
	Dependencies() []dependency.Rule
}

// UIProvider is implemented by effects that carry their own descriptor.
type UIProvider interface {
	UI() UIDescriptor
}

// LoggerAware is implemented by effects that accept a scoped logger.
type LoggerAware interface {
	SetLogger(log *logger.Logger)
}

// Registrar receives effects from plugin entry points.
type Registrar interface {
	Register(e Effect, ui UIDescriptor) (string, error)
}

// Validate checks the metadata and every parameter declaration of e.
func Validate(e Effect) error {
	if e == nil {
		return pkgerrors.NewValidationError("", "effect is nil", nil)
	}
	if err := e.Metadata().Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{})
	for i, spec := range e.ParameterSpecs() {
		if err := spec.Validate(); err != nil {
			var vErr *pkgerrors.ValidationError
			if stdErrors.As(err, &vErr) {
				return pkgerrors.NewValidationError(fmt.Sprintf("parameters[%d].%s", i, vErr.Field), vErr.Message, vErr.Err)
			}
			return err
		}
		if _, dup := seen[spec.Name]; dup {
			return pkgerrors.NewValidationError(fmt.Sprintf("parameters[%d].name", i), fmt.Sprintf("duplicate parameter %q", spec.Name), nil)
		}
		seen[spec.Name] = struct{}{}
	}
	return nil
}

// StaticUI is a UIDescriptor built from plain values.
type StaticUI struct {
	GroupList []Group
	Rules     []dependency.Rule
}

// Groups implements UIDescriptor.
func (s *StaticUI) Groups() []Group {
	if s == nil {
		return nil
	}
	return s.GroupList
}

// Dependencies implements UIDescriptor.
func (s *StaticUI) Dependencies() []dependency.Rule {
	if s == nil {
		return nil
	}
	return s.Rules
}

func fieldError(prefix string, err error) error {
	var verrs validator.ValidationErrors
	if stdErrors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		field := strings.ToLower(first.Field())
		if prefix != "" {
			field = prefix + "." + field
		}
		return pkgerrors.NewValidationError(field, describeTag(first), err)
	}
	return pkgerrors.NewValidationError(prefix, err.Error(), err)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "semver":
		return fmt.Sprintf("%q is not a version (expected X.Y or X.Y.Z)", fe.Value())
	case "param_name":
		return fmt.Sprintf("%q is not a valid parameter name", fe.Value())
	case "param_type":
		return fmt.Sprintf("unknown parameter type %q", fe.Value())
	default:
		return fmt.Sprintf("failed %s constraint", fe.Tag())
	}
}
