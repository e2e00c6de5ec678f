package main

import (
	"fmt"

	"github.com/dujiao-next/storefront/internal/storefront"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *cliApp) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as user, seller or admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			route, err := app.sf.Login(cmd.Context(), email, password)
			if err != nil {
				return userError(err)
			}
			identity := app.sf.Session.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", identity.DisplayName, identity.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "-> %s\n", route)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newLogoutCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the local session and cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			route := app.sf.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			fmt.Fprintf(cmd.OutOrStdout(), "-> %s\n", route)
			return nil
		},
	}
}

func newWhoamiCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			identity := app.sf.Session.Get()
			if identity == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "guest")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s\n", identity.DisplayName, identity.Email, identity.Role)
			if home := app.sf.Guard("/", storefront.Requirement{}); home != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "home: %s\n", home)
			}
			return nil
		},
	}
}
