package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	plugins    []string
	logLevel   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "framefx",
		Short:         "framefx loads pluggable frame effects and applies them to images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a host configuration file")
	cmd.PersistentFlags().StringArrayVarP(&flags.plugins, "plugins", "p", nil, "Plugin directory to scan (repeatable)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newListCmd(flags))
	cmd.AddCommand(newCategoriesCmd(flags))
	cmd.AddCommand(newSearchCmd(flags))
	cmd.AddCommand(newShowCmd(flags))
	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newStatsCmd(flags))
	cmd.AddCommand(newReloadCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
