package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dujiao-next/storefront/internal/cart"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/orders"
	"github.com/dujiao-next/storefront/internal/storefront"

	"github.com/spf13/cobra"
)

func newOrdersCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Show order history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.sf.Orders.Load(cmd.Context()); err != nil {
				return userError(err)
			}
			printOrders(cmd.OutOrStdout(), app.sf.Orders.Orders())
			return nil
		},
	}
	cmd.AddCommand(newOrderCancelCmd(app))
	return cmd
}

func newOrderCancelCmd(app *cliApp) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cancel <orderId>",
		Short: "Cancel an order that has not been delivered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Are you sure you want to delete this order?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if err := app.sf.Orders.Cancel(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, orders.ErrPending) {
					return nil
				}
				return userError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Order deleted")
			printOrders(cmd.OutOrStdout(), app.sf.Orders.Orders())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newCheckoutCmd(app *cliApp) *cobra.Command {
	var input storefront.CheckoutInput
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for everything in the cart (cash on delivery)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, route, err := app.sf.Checkout(cmd.Context(), input)
			if err != nil {
				if errors.Is(err, cart.ErrPending) {
					return nil
				}
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s placed: %d items, total %s\n", order.ID, order.Quantity(), order.TotalPrice.StringFixed(2))
			fmt.Fprintf(cmd.OutOrStdout(), "-> %s\n", route)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Address, "address", "", "shipping address")
	cmd.Flags().StringVar(&input.City, "city", "", "shipping city")
	cmd.Flags().StringVar(&input.Zip, "zip", "", "shipping zip code")
	cmd.Flags().StringVar(&input.PaymentMethod, "payment", "COD", "payment method")
	return cmd
}

func printOrders(w io.Writer, list []models.OrderView) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No orders yet")
		return
	}
	for _, order := range list {
		status := "pending"
		if order.IsDelivered {
			status = "delivered"
		}
		fmt.Fprintf(w, "%-6s %-24s %-10s x%-4d %10s\n", order.ID, order.OrderNo, status, order.Quantity(), order.TotalPrice.StringFixed(2))
	}
}
