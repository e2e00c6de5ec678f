package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dujiao-next/storefront/internal/gateway"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/spf13/cobra"
)

type productPage struct {
	Items []models.ProductSummary `json:"items"`
}

func newProductsCmd(app *cliApp) *cobra.Command {
	var search, category string
	var page int
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			query.Set("page", strconv.Itoa(page))
			if search != "" {
				query.Set("search", search)
			}
			if category != "" {
				query.Set("category", category)
			}
			var resp productPage
			if err := app.sf.Gateway.Do(cmd.Context(), gateway.Call{
				Method: http.MethodGet,
				Path:   "/products?" + query.Encode(),
			}, &resp); err != nil {
				return userError(err)
			}
			if len(resp.Items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No products found")
				return nil
			}
			for _, item := range resp.Items {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-32s %10s  stock %d\n", item.ID, item.Title, item.Price.StringFixed(2), item.Stock)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "search keyword")
	cmd.Flags().StringVar(&category, "category", "", "category filter")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}
