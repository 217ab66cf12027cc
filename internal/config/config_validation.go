package config

import (
	pkgerrors "github.com/alexisbeaulieu97/framefx/pkg/errors"
)

// ValidateConfig performs structural and cross-field validation on an entire configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return pkgerrors.NewValidationError("config", "configuration is nil", nil)
	}

	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	if len(cfg.Startup.Parameters) > 0 && cfg.Startup.Effect == "" {
		return pkgerrors.NewValidationError("startup.parameters", "parameters require a startup effect", nil)
	}

	return nil
}
