package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newThemeCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the theme preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), app.sf.Theme.Current(cmd.Context()))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := app.sf.Theme.Toggle(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})
	return cmd
}
