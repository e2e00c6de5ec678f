package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/gateway"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/storage"
	"github.com/dujiao-next/storefront/internal/storefront"

	"github.com/spf13/cobra"
)

// rootOptions 允许测试注入配置、存储与 HTTP 客户端
type rootOptions struct {
	Config     *config.Config
	Storage    storage.Local
	HTTPClient *http.Client
}

// cliApp 命令共享的运行时
type cliApp struct {
	opts       rootOptions
	configFile string
	apiBaseURL string
	sf         *storefront.Storefront
}

func newRootCmd(opts rootOptions) *cobra.Command {
	app := &cliApp{opts: opts}

	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Terminal storefront: session, cart, wishlist and orders kept in sync with the shop API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.open(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			app.close()
		},
	}
	cmd.PersistentFlags().StringVarP(&app.configFile, "config", "c", "", "config file (default: ./config.yml)")
	cmd.PersistentFlags().StringVar(&app.apiBaseURL, "api", "", "override client.api_base_url")

	cmd.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newProductsCmd(app),
		newCartCmd(app),
		newWishlistCmd(app),
		newCheckoutCmd(app),
		newOrdersCmd(app),
		newProfileCmd(app),
		newBecomeSellerCmd(app),
		newThemeCmd(app),
		newWatchCmd(app),
	)
	return cmd
}

func (a *cliApp) open(cmd *cobra.Command) error {
	cfg := a.opts.Config
	if cfg == nil {
		cfg = config.LoadFile(a.configFile)
		// 日志写入文件，终端只输出命令结果
		logOpts := cfg.Log.ToLoggerOptions()
		logOpts.Stdout = false
		logger.Init("release", logOpts)
	}
	if base := strings.TrimSpace(a.apiBaseURL); base != "" {
		cfg.Client.APIBaseURL = base
	}

	store := a.opts.Storage
	if store == nil {
		opened, err := storage.Open(cfg.Client.Storage, cfg.Redis)
		if err != nil {
			return fmt.Errorf("open local storage failed: %w", err)
		}
		store = opened
	}

	sf, err := storefront.New(cmd.Context(), storefront.Options{
		Client:     cfg.Client,
		Storage:    store,
		HTTPClient: a.opts.HTTPClient,
		Navigator: func(route string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "-> %s\n", route)
		},
	})
	if err != nil {
		return err
	}
	a.sf = sf
	if err := sf.Start(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", gateway.UserMessage(err))
	}
	return nil
}

func (a *cliApp) close() {
	if a.sf != nil {
		a.sf.Close()
	}
}

// userError 把客户端错误转换为可读提示
func userError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(gateway.UserMessage(err))
}
