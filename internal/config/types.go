package config

import (
	"time"

	"github.com/alexisbeaulieu97/framefx/internal/effect"
	"github.com/alexisbeaulieu97/framefx/internal/logger"
	"github.com/alexisbeaulieu97/framefx/internal/plugin"
)

// Config is the host configuration document.
type Config struct {
	Log      LogSettings      `yaml:"log,omitempty"`
	Plugins  PluginSettings   `yaml:"plugins,omitempty"`
	Registry RegistrySettings `yaml:"registry,omitempty"`
	Startup  StartupSettings  `yaml:"startup,omitempty"`
}

// LogSettings configures the zerolog writer.
type LogSettings struct {
	Level         string `yaml:"level,omitempty" validate:"omitempty,log_level"`
	HumanReadable bool   `yaml:"human_readable,omitempty"`
}

// PluginSettings configures discovery.
type PluginSettings struct {
	Directories []string `yaml:"directories,omitempty" validate:"omitempty,dive,required"`
	// LuaCallTimeout bounds every call into a Lua effect, e.g. "250ms".
	LuaCallTimeout time.Duration `yaml:"lua_call_timeout,omitempty" validate:"omitempty,min=1ms,max=1m"`
}

// RegistrySettings tunes id generation.
type RegistrySettings struct {
	IDSeparator string `yaml:"id_separator,omitempty" validate:"omitempty,max=3"`
	SuffixStart int    `yaml:"suffix_start,omitempty" validate:"omitempty,min=0,max=1000"`
}

// StartupSettings selects the effect made current after initialisation.
type StartupSettings struct {
	Effect     string        `yaml:"effect,omitempty"`
	Parameters effect.Values `yaml:"parameters,omitempty" validate:"omitempty,dive,keys,param_name,endkeys"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: LogSettings{Level: "info"},
	}
}

// LoggerOptions converts the log settings.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{Level: c.Log.Level, HumanReadable: c.Log.HumanReadable}
}

// RegistryConfig converts the registry settings, keeping defaults for unset
// fields.
func (c *Config) RegistryConfig() *plugin.Config {
	cfg := plugin.DefaultConfig()
	if c.Registry.IDSeparator != "" {
		cfg.IDSeparator = c.Registry.IDSeparator
	}
	if c.Registry.SuffixStart != 0 {
		cfg.SuffixStart = c.Registry.SuffixStart
	}
	return cfg
}
