package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/framefx/internal/manager"
	"github.com/alexisbeaulieu97/framefx/internal/plugin"
)

type listOptions struct {
	category   string
	jsonOutput bool
}

func newListCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loaded effects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, rootFlags, opts)
		},
	}

	cmd.Flags().StringVar(&opts.category, "category", "", "Only list effects in this category")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runList(cmd *cobra.Command, rootFlags *rootFlags, opts *listOptions) error {
	app, err := newAppContext(cmd, rootFlags, "list")
	if err != nil {
		return err
	}
	defer app.Close()

	descriptors := app.Manager.Registry().Descriptors()
	if opts.category != "" {
		descriptors = describeEntries(app.Manager, app.Manager.EffectsByCategory(opts.category))
	}

	if opts.jsonOutput {
		return renderEffectsJSON(cmd, descriptors)
	}
	if len(descriptors) == 0 {
		return renderEmptyList(cmd)
	}
	return renderEffectsTable(cmd, descriptors)
}

func newCategoriesCmd(rootFlags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List effect categories with their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, rootFlags, "list categories")
			if err != nil {
				return err
			}
			defer app.Close()

			stats := app.Manager.Statistics()
			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "CATEGORY\tEFFECTS")
			for _, category := range app.Manager.Categories() {
				fmt.Fprintf(writer, "%s\t%d\n", category, stats.PerCategory[category])
			}
			return writer.Flush()
		},
	}
}

func newSearchCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search effects by name, description or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, rootFlags, "search")
			if err != nil {
				return err
			}
			defer app.Close()

			descriptors := describeEntries(app.Manager, app.Manager.SearchEffects(args[0]))
			if opts.jsonOutput {
				return renderEffectsJSON(cmd, descriptors)
			}
			if len(descriptors) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No effects match %q.\n", args[0])
				return nil
			}
			return renderEffectsTable(cmd, descriptors)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func describeEntries(m *manager.Manager, entries []plugin.Entry) []plugin.Descriptor {
	out := make([]plugin.Descriptor, 0, len(entries))
	for _, entry := range entries {
		if d, ok := m.EffectMetadata(entry.ID); ok {
			out = append(out, d)
		}
	}
	return out
}

func renderEmptyList(cmd *cobra.Command) error {
	fmt.Fprintln(cmd.OutOrStdout(), "No effects loaded.")
	fmt.Fprintln(cmd.OutOrStdout(), "\nRun 'framefx list --plugins <dir>' to scan a plugin directory.")
	return nil
}

func renderEffectsTable(cmd *cobra.Command, descriptors []plugin.Descriptor) error {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(writer, "ID\tNAME\tCATEGORY\tVERSION\tSTATUS")
	for _, d := range descriptors {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Category, d.Version, status(d.Enabled))
	}

	return writer.Flush()
}

type effectsJSONPayload struct {
	Count   int                 `json:"count"`
	Effects []plugin.Descriptor `json:"effects"`
}

func renderEffectsJSON(cmd *cobra.Command, descriptors []plugin.Descriptor) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(effectsJSONPayload{Count: len(descriptors), Effects: descriptors})
}

func status(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func valueOrFallback(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
