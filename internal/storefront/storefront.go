// Package storefront 把会话、网关、购物车、心愿单等组件装配为一个可注入的客户端核心。
package storefront

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/dujiao-next/storefront/internal/alert"
	"github.com/dujiao-next/storefront/internal/cart"
	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/gateway"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/notify"
	"github.com/dujiao-next/storefront/internal/orders"
	"github.com/dujiao-next/storefront/internal/session"
	"github.com/dujiao-next/storefront/internal/storage"
	"github.com/dujiao-next/storefront/internal/theme"
	"github.com/dujiao-next/storefront/internal/wishlist"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Navigator 界面跳转回调
type Navigator func(route string)

// Options 客户端核心依赖
type Options struct {
	Client     config.ClientConfig
	Storage    storage.Local
	HTTPClient *http.Client
	Navigator  Navigator
	Logger     *zap.SugaredLogger
}

// Storefront 客户端核心
type Storefront struct {
	Storage  storage.Local
	Notifier *notify.Notifier
	Session  *session.Store
	Gateway  *gateway.Client
	Cart     *cart.Synchronizer
	Wishlist *wishlist.Synchronizer
	Orders   *orders.Synchronizer
	Alerts   *alert.Center
	Theme    *theme.Preference

	log        *zap.SugaredLogger
	navMu      sync.RWMutex
	navigate   Navigator
	stopBridge func()
	closeOnce  sync.Once
}

// New 装配客户端核心
func New(ctx context.Context, opts Options) (*Storefront, error) {
	if opts.Storage == nil {
		return nil, errors.New("storefront storage is nil")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Named("storefront")
	}

	sf := &Storefront{
		Storage:  opts.Storage,
		Notifier: notify.New(log.With("component", "notify")),
		Alerts:   alert.NewCenter(0),
		Theme:    theme.New(opts.Storage),
		log:      log,
		navigate: opts.Navigator,
	}
	sf.Session = session.New(ctx, opts.Storage, sf.Notifier, log.With("component", "session"))
	sf.Gateway = gateway.New(gateway.Options{
		BaseURL:     opts.Client.APIBaseURL,
		Timeout:     opts.Client.Timeout(),
		HTTPClient:  opts.HTTPClient,
		Credentials: sf.Session,
		Logger:      log.With("component", "gateway"),
	})
	sf.Gateway.OnUnauthorized(sf.handleUnauthorized)
	sf.Cart = cart.New(ctx, cart.Options{
		API:      sf.Gateway,
		Session:  sf.Session,
		Storage:  opts.Storage,
		Notifier: sf.Notifier,
		Alerts:   sf.Alerts,
		Logger:   log.With("component", "cart"),
	})
	sf.Wishlist = wishlist.New(wishlist.Options{
		API:     sf.Gateway,
		Session: sf.Session,
		Cart:    sf.Cart,
		Alerts:  sf.Alerts,
		Logger:  log.With("component", "wishlist"),
	})
	sf.Orders = orders.New(orders.Options{
		API:     sf.Gateway,
		Session: sf.Session,
		Alerts:  sf.Alerts,
		Logger:  log.With("component", "orders"),
	})
	sf.stopBridge = sf.Notifier.Bridge(opts.Storage)
	return sf, nil
}

// SetNavigator 设置界面跳转回调
func (s *Storefront) SetNavigator(fn Navigator) {
	s.navMu.Lock()
	s.navigate = fn
	s.navMu.Unlock()
}

// Start 并发加载购物车与心愿单；游客不会发起请求
// 订单历史只在进入订单页时加载
func (s *Storefront) Start(ctx context.Context) error {
	if s.Session.Get() == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Cart.Load(gctx) })
	g.Go(func() error { return s.Wishlist.Load(gctx) })
	return g.Wait()
}

// Close 释放订阅与存储监听
func (s *Storefront) Close() {
	s.closeOnce.Do(func() {
		if s.stopBridge != nil {
			s.stopBridge()
		}
		s.Orders.Close()
		s.Wishlist.Close()
		s.Cart.Close()
		s.Session.Close()
		s.Notifier.Close()
	})
}

func (s *Storefront) handleUnauthorized() {
	s.log.Infow("storefront_unauthorized", "redirect", constants.RouteLogin)
	if s.Session.Get() != nil {
		s.Session.Clear(context.Background())
	}
	s.navigateTo(constants.RouteLogin)
}

func (s *Storefront) navigateTo(route string) {
	s.navMu.RLock()
	fn := s.navigate
	s.navMu.RUnlock()
	if fn != nil {
		fn(route)
	}
}
