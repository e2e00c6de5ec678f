package main

import (
	"fmt"

	"github.com/dujiao-next/storefront/internal/storefront"

	"github.com/spf13/cobra"
)

func newProfileCmd(app *cliApp) *cobra.Command {
	var update storefront.ProfileUpdate
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update name, email or password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			identity, err := app.sf.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s <%s>\n", identity.DisplayName, identity.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&update.Name, "name", "", "new display name")
	cmd.Flags().StringVar(&update.Email, "email", "", "new email")
	cmd.Flags().StringVar(&update.Password, "password", "", "new password")
	return cmd
}

func newBecomeSellerCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "become-seller",
		Short: "Upgrade the current account to a seller account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			route, err := app.sf.BecomeSeller(cmd.Context())
			if err != nil {
				return userError(err)
			}
			identity := app.sf.Session.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "You are now a seller (%s)\n", identity.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "-> %s\n", route)
			return nil
		},
	}
}
