package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/framefx/internal/config"
	"github.com/alexisbeaulieu97/framefx/internal/logger"
	"github.com/alexisbeaulieu97/framefx/internal/manager"
)

// AppContext bundles the services a command uses for one invocation.
type AppContext struct {
	Config  *config.Config
	Logger  *logger.Logger
	Manager *manager.Manager
	Summary manager.Summary
}

// newAppContext loads the host configuration, builds the logger and the
// manager, scans the plugin directories and selects the startup effect.
func newAppContext(cmd *cobra.Command, flags *rootFlags, operation string) (*AppContext, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		parsed, err := config.ParseConfig(flags.configPath)
		if err != nil {
			return nil, newCommandError(operation, "loading configuration", err, "Check the configuration file syntax and values.")
		}
		cfg = parsed
	}

	opts := cfg.LoggerOptions()
	if flags.logLevel != "" {
		opts.Level = flags.logLevel
	}
	if flags.verbose {
		opts.Level = "debug"
	}
	opts.Writer = cmd.ErrOrStderr()
	opts.HumanReadable = opts.HumanReadable || isTerminal(cmd.ErrOrStderr())

	log, err := logger.New(opts)
	if err != nil {
		return nil, newCommandError(operation, "creating logger", err, "Use one of: debug, info, warn, error.")
	}

	m := manager.New(manager.Options{
		Logger:        log,
		Registry:      cfg.RegistryConfig(),
		ScriptTimeout: cfg.Plugins.LuaCallTimeout,
	})

	dirs := flags.plugins
	if len(dirs) == 0 {
		dirs = cfg.Plugins.Directories
	}
	summary := m.Initialize(dirs...)

	app := &AppContext{Config: cfg, Logger: log, Manager: m, Summary: summary}
	if cfg.Startup.Effect != "" {
		if err := app.selectEffect(cfg.Startup.Effect, nil); err != nil {
			app.Close()
			return nil, newCommandError(operation, "selecting the startup effect", err, "Run 'framefx list' to view loaded effects.")
		}
	}
	return app, nil
}

// selectEffect makes id current and applies the configured startup values
// followed by overrides.
func (a *AppContext) selectEffect(id string, overrides map[string]string) error {
	if !a.Manager.SetCurrentEffect(id) {
		return errUnknownEffect(id)
	}
	if a.Config.Startup.Effect == id {
		if err := setParameters(a.Manager, a.Config.Startup.Parameters); err != nil {
			return err
		}
	}
	values := make(map[string]any, len(overrides))
	for name, raw := range overrides {
		values[name] = raw
	}
	return setParameters(a.Manager, values)
}

// Close releases every loaded effect.
func (a *AppContext) Close() {
	a.Manager.Cleanup()
}
