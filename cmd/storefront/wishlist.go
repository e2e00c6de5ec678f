package main

import (
	"errors"
	"fmt"

	"github.com/dujiao-next/storefront/internal/wishlist"

	"github.com/spf13/cobra"
)

func newWishlistCmd(app *cliApp) *cobra.Command {
	list := func(cmd *cobra.Command) {
		items := app.sf.Wishlist.Items()
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Your wishlist is empty")
			return
		}
		for _, item := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-32s %10s\n", item.ID, item.Title, item.Price.StringFixed(2))
		}
	}
	run := func(fn func(cmd *cobra.Command, id string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if err := fn(cmd, args[0]); err != nil {
				if errors.Is(err, wishlist.ErrPending) {
					return nil
				}
				return userError(err)
			}
			list(cmd)
			return nil
		}
	}

	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Show and edit the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list(cmd)
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the wishlist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list(cmd)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <productId>",
			Short: "Add a product to the wishlist",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, id string) error {
				return app.sf.Wishlist.Add(cmd.Context(), id)
			}),
		},
		&cobra.Command{
			Use:   "remove <productId>",
			Short: "Remove a product from the wishlist",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, id string) error {
				return app.sf.Wishlist.Remove(cmd.Context(), id)
			}),
		},
		&cobra.Command{
			Use:   "toggle <productId>",
			Short: "Add the product if missing, remove it otherwise",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, id string) error {
				_, err := app.sf.Wishlist.Toggle(cmd.Context(), id)
				return err
			}),
		},
		&cobra.Command{
			Use:   "move <productId>",
			Short: "Move a product from the wishlist into the cart",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(cmd *cobra.Command, id string) error {
				return app.sf.Wishlist.MoveToCart(cmd.Context(), id)
			}),
		},
	)
	return cmd
}
