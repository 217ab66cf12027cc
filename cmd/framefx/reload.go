package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReloadCmd(rootFlags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reload <effect-id>",
		Short: "Reload an effect's module from disk and report its new id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, rootFlags, "reload")
			if err != nil {
				return err
			}
			defer app.Close()

			newID, err := app.Manager.ReloadEffect(args[0])
			if err != nil {
				return newCommandError("reload", fmt.Sprintf("reloading effect %q", args[0]), err, "Run 'framefx list' to view loaded effects.")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reloaded %s as %s\n", args[0], newID)
			return nil
		},
	}
}
