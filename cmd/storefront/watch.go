package main

import (
	"fmt"

	"github.com/dujiao-next/storefront/internal/alert"
	"github.com/dujiao-next/storefront/internal/cart"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/notify"
	"github.com/dujiao-next/storefront/internal/session"

	"github.com/spf13/cobra"
)

// newWatchCmd 持续输出购物车与会话变化，直到收到中断信号
func newWatchCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow cart and session changes made from other terminals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			sf := app.sf

			stopCart := sf.Notifier.Subscribe(constants.TopicCartChanged, func(evt notify.Event) {
				if !evt.Remote {
					fmt.Fprintf(out, "cart: %s\n", badgeText(sf.Cart.Count()))
				}
			})
			defer stopCart()
			stopSession := sf.Session.Subscribe(func(change session.Change) {
				if change.Anonymous() {
					fmt.Fprintln(out, "session: logged out")
					return
				}
				fmt.Fprintf(out, "session: %s (%s)\n", change.Current.DisplayName, change.Current.Role)
			})
			defer stopSession()
			stopAlerts := sf.Alerts.Subscribe(func(a alert.Alert) {
				fmt.Fprintf(out, "[%s] %s\n", a.Level, a.Message)
			})
			defer stopAlerts()

			fmt.Fprintf(out, "watching (cart: %s), press Ctrl+C to stop\n", badgeText(sf.Cart.Count()))
			<-cmd.Context().Done()
			return nil
		},
	}
}

func badgeText(count int) string {
	if badge := cart.FormatBadge(count); badge != "" {
		return badge
	}
	return "0"
}
