package effect

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	paramPattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// validatorInstance returns the validator shared by metadata and parameter
// declarations.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("param_name", func(fl validator.FieldLevel) bool {
			return paramPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("param_type", func(fl validator.FieldLevel) bool {
			return ParamType(fl.Field().String()).Valid()
		})

		validateInst = v
	})

	return validateInst
}

// Validator exposes the shared validator to packages that validate their own
// structs with the same custom tags.
func Validator() *validator.Validate {
	return validatorInstance()
}
