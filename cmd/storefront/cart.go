package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dujiao-next/storefront/internal/cart"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/spf13/cobra"
)

func newCartCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printCart(cmd.OutOrStdout(), app.sf.Cart.Cart())
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				printCart(cmd.OutOrStdout(), app.sf.Cart.Cart())
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <productId> [quantity]",
			Short: "Add a product to the cart",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity := 1
				if len(args) == 2 {
					n, err := parseQuantity(args[1])
					if err != nil {
						return err
					}
					quantity = n
				}
				return app.mutateCart(cmd, func() error {
					return app.sf.Cart.Add(cmd.Context(), args[0], quantity)
				})
			},
		},
		&cobra.Command{
			Use:   "set <productId> <quantity>",
			Short: "Set the quantity of a cart line",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				return app.mutateCart(cmd, func() error {
					return app.sf.Cart.SetQuantity(cmd.Context(), args[0], quantity)
				})
			},
		},
		&cobra.Command{
			Use:   "remove <productId>",
			Short: "Remove a line from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.mutateCart(cmd, func() error {
					return app.sf.Cart.Remove(cmd.Context(), args[0])
				})
			},
		},
		newCartClearCmd(app),
	)
	return cmd
}

func newCartClearCmd(app *cliApp) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every line from the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Clear the whole cart?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			return app.mutateCart(cmd, func() error {
				return app.sf.Cart.Clear(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

// mutateCart 执行购物车写操作并打印服务端返回的购物车
func (a *cliApp) mutateCart(cmd *cobra.Command, fn func() error) error {
	if err := fn(); err != nil {
		if errors.Is(err, cart.ErrPending) {
			return nil
		}
		return userError(err)
	}
	printCart(cmd.OutOrStdout(), a.sf.Cart.Cart())
	return nil
}

func parseQuantity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	return n, nil
}

func printCart(w io.Writer, c models.Cart) {
	if len(c.Lines) == 0 {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}
	for _, line := range c.Lines {
		title := line.Product.Title
		if title == "" {
			title = line.ProductID
		}
		fmt.Fprintf(w, "%-6s %-32s x%-4d %10s\n", line.ProductID, title, line.Quantity, line.UnitPriceSnapshot.MulInt(line.Quantity).StringFixed(2))
	}
	// 服务端未给出合计时退回价格快照估算，并明确标注
	if c.TotalPrice.IsZero() {
		fmt.Fprintf(w, "Items: %d  Est. total: %s\n", c.TotalQuantity, c.PreviewTotal().StringFixed(2))
	} else {
		fmt.Fprintf(w, "Items: %d  Total: %s\n", c.TotalQuantity, c.TotalPrice.StringFixed(2))
	}
	if badge := cart.FormatBadge(c.TotalQuantity); badge != "" {
		fmt.Fprintf(w, "Badge: %s\n", badge)
	}
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
