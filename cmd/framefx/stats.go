package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type statsOptions struct {
	jsonOutput bool
}

func newStatsCmd(rootFlags *rootFlags) *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the plugin scan and the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, rootFlags, "collect statistics")
			if err != nil {
				return err
			}
			defer app.Close()

			if opts.jsonOutput {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(app.Summary)
			}
			return renderStats(cmd, app)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func renderStats(cmd *cobra.Command, app *AppContext) error {
	out := cmd.OutOrStdout()
	st := newStyles(out)
	summary := app.Summary
	stats := summary.Statistics

	fmt.Fprintln(out, st.heading.Render("Plugins"))
	fmt.Fprintf(out, "Session:  %s\n", app.Manager.Session())
	fmt.Fprintf(out, "Loaded:   %d\n", summary.Loaded)
	fmt.Fprintf(out, "Failed:   %d\n", summary.Failed)

	keys := make([]string, 0, len(summary.Results))
	for key := range summary.Results {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, key := range keys {
		result := "ok"
		if !summary.Results[key] {
			result = "failed"
		}
		fmt.Fprintf(writer, "  %s\t%s\n", key, result)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s\n", st.heading.Render("Registry"))
	fmt.Fprintf(out, "Effects:    %d (%d enabled, %d disabled)\n", stats.Total, stats.Enabled, stats.Disabled)
	fmt.Fprintf(out, "Categories: %d\n", stats.Categories)
	for _, category := range app.Manager.Categories() {
		fmt.Fprintf(out, "  %s: %d\n", category, stats.PerCategory[category])
	}
	return nil
}
