// Package wishlist 心愿单同步器，沿用购物车的在途保护与服务端覆盖规则。
package wishlist

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dujiao-next/storefront/internal/alert"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/gateway"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/pending"
	"github.com/dujiao-next/storefront/internal/session"

	"go.uber.org/zap"
)

var (
	// ErrPending 同一商品已有在途操作
	ErrPending = errors.New("wishlist operation pending")
	// ErrProductRequired 缺少商品 ID
	ErrProductRequired = errors.New("wishlist product id required")
)

// API 远端调用
type API interface {
	Do(ctx context.Context, call gateway.Call, out interface{}) error
}

// Session 会话读取与订阅
type Session interface {
	Get() *models.Identity
	Subscribe(fn func(session.Change)) func()
}

// CartAdder 移入购物车所需的购物车能力
type CartAdder interface {
	Add(ctx context.Context, productID string, quantity int) error
}

// Options 同步器依赖
type Options struct {
	API     API
	Session Session
	Cart    CartAdder
	Alerts  *alert.Center
	Logger  *zap.SugaredLogger
}

// Synchronizer 心愿单同步器
type Synchronizer struct {
	api     API
	session Session
	cart    CartAdder
	alerts  *alert.Center
	pending *pending.Tracker
	log     *zap.SugaredLogger

	mu         sync.RWMutex
	items      []models.ProductSummary
	generation uint64
	unsub      func()
}

type productRequest struct {
	ProductID string `json:"productId"`
}

// New 创建心愿单同步器
func New(opts Options) *Synchronizer {
	log := opts.Logger
	if log == nil {
		log = logger.Named("wishlist")
	}
	s := &Synchronizer{
		api:     opts.API,
		session: opts.Session,
		cart:    opts.Cart,
		alerts:  opts.Alerts,
		pending: pending.New(),
		log:     log,
	}
	if s.session != nil {
		s.unsub = s.session.Subscribe(s.onSessionChange)
	}
	return s
}

// Close 取消订阅
func (s *Synchronizer) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// Items 当前心愿单
func (s *Synchronizer) Items() []models.ProductSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ProductSummary, len(s.items))
	copy(out, s.items)
	return out
}

// Contains 是否已收藏
func (s *Synchronizer) Contains(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == productID {
			return true
		}
	}
	return false
}

// Label 商品的在途提示
func (s *Synchronizer) Label(productID string) string {
	return s.pending.Label(productID)
}

// Load 拉取心愿单；游客为空列表
func (s *Synchronizer) Load(ctx context.Context) error {
	gen := s.currentGeneration()
	if s.session == nil || s.session.Get() == nil {
		s.replace(gen, nil)
		return nil
	}
	var items []models.ProductSummary
	if err := s.api.Do(ctx, gateway.Call{Method: http.MethodGet, Path: constants.APIPathWishlist, Auth: true}, &items); err != nil {
		s.fail("load", "", err)
		return err
	}
	s.replace(gen, items)
	return nil
}

// Add 加入心愿单
func (s *Synchronizer) Add(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrProductRequired
	}
	return s.guard(productID, constants.PendingLabelAdding, func() error {
		return s.add(ctx, productID)
	})
}

// Remove 移出心愿单
func (s *Synchronizer) Remove(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrProductRequired
	}
	return s.guard(productID, constants.PendingLabelRemoving, func() error {
		return s.remove(ctx, productID)
	})
}

// Toggle 已收藏则移除，否则加入；返回操作后的收藏状态
func (s *Synchronizer) Toggle(ctx context.Context, productID string) (bool, error) {
	if s.Contains(productID) {
		return false, s.Remove(ctx, productID)
	}
	return true, s.Add(ctx, productID)
}

// MoveToCart 加入购物车后从心愿单移除；加入购物车失败时心愿单保持不变
func (s *Synchronizer) MoveToCart(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return ErrProductRequired
	}
	return s.guard(productID, constants.PendingLabelMoving, func() error {
		if err := s.cart.Add(ctx, productID, 1); err != nil {
			return err
		}
		return s.remove(ctx, productID)
	})
}

func (s *Synchronizer) guard(productID, label string, fn func() error) error {
	done, err := s.pending.Begin(productID, label)
	if err != nil {
		return ErrPending
	}
	defer done()
	return fn()
}

func (s *Synchronizer) add(ctx context.Context, productID string) error {
	gen := s.currentGeneration()
	var items []models.ProductSummary
	err := s.api.Do(ctx, gateway.Call{
		Method: http.MethodPost,
		Path:   constants.APIPathWishlistAdd,
		Body:   productRequest{ProductID: productID},
		Auth:   true,
	}, &items)
	if err != nil {
		s.fail("add", productID, err)
		return err
	}
	s.replace(gen, items)
	return nil
}

func (s *Synchronizer) remove(ctx context.Context, productID string) error {
	gen := s.currentGeneration()
	var items []models.ProductSummary
	err := s.api.Do(ctx, gateway.Call{
		Method: http.MethodDelete,
		Path:   constants.APIPathWishlistRemove + url.PathEscape(productID),
		Auth:   true,
	}, &items)
	if err != nil {
		s.fail("remove", productID, err)
		return err
	}
	s.replace(gen, items)
	return nil
}

func (s *Synchronizer) replace(gen uint64, items []models.ProductSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.items = append([]models.ProductSummary(nil), items...)
}

func (s *Synchronizer) fail(op, productID string, err error) {
	s.log.Warnw("wishlist_operation_failed", "op", op, "product_id", productID, "kind", gateway.KindOf(err), "error", err)
	if s.alerts == nil || gateway.IsKind(err, gateway.KindUnauthorized) {
		return
	}
	s.alerts.Error(gateway.UserMessage(err))
}

func (s *Synchronizer) onSessionChange(change session.Change) {
	if !change.Anonymous() && !change.SwitchedUser() {
		return
	}
	s.mu.Lock()
	s.generation++
	s.items = nil
	s.mu.Unlock()
	// 本地登录由调用方随后加载
	if change.Remote && !change.Anonymous() {
		if err := s.Load(context.Background()); err != nil {
			s.log.Debugw("wishlist_session_reload_failed", "error", err)
		}
	}
}

func (s *Synchronizer) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
