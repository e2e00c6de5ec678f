// Package orders 订单同步器：下单、订单历史与取消。
//
// 订单列表只来自服务端响应，取消成功后重新拉取；会话切换时清空。
package orders

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
	// ErrPending 同一订单已有在途操作
	ErrPending = errors.New("order operation pending")
	// ErrOrderRequired 缺少订单 ID
	ErrOrderRequired = errors.New("order id required")
	// ErrAddressRequired 收货地址不完整
	ErrAddressRequired = errors.New("please fill in all address fields")
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

// Options 同步器依赖
type Options struct {
	API     API
	Session Session
	Alerts  *alert.Center
	Logger  *zap.SugaredLogger
}

// PlaceInput 下单参数
type PlaceInput struct {
	Shipping      models.ShippingAddress
	PaymentMethod string
}

// Synchronizer 订单同步器
type Synchronizer struct {
	api     API
	session Session
	alerts  *alert.Center
	pending *pending.Tracker
	log     *zap.SugaredLogger

	mu         sync.RWMutex
	orders     []models.OrderView
	generation uint64
	unsub      func()
}

type placeRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type placeResponse struct {
	Order models.OrderView `json:"order"`
}

type listResponse struct {
	Orders []models.OrderView `json:"orders"`
}

// New 创建订单同步器
func New(opts Options) *Synchronizer {
	log := opts.Logger
	if log == nil {
		log = logger.Named("orders")
	}
	s := &Synchronizer{
		api:     opts.API,
		session: opts.Session,
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

// Orders 当前订单列表
func (s *Synchronizer) Orders() []models.OrderView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.OrderView, len(s.orders))
	copy(out, s.orders)
	return out
}

// Label 订单的在途提示
func (s *Synchronizer) Label(orderID string) string {
	return s.pending.Label(orderID)
}

// Load 拉取当前用户的订单历史；游客为空列表
func (s *Synchronizer) Load(ctx context.Context) error {
	gen := s.currentGeneration()
	identity := s.identity()
	if identity == nil {
		s.replace(gen, nil)
		return nil
	}
	var resp listResponse
	err := s.api.Do(ctx, gateway.Call{
		Method: http.MethodGet,
		Path:   constants.APIPathOrdersByUser + url.PathEscape(identity.ID),
		Auth:   true,
	}, &resp)
	if err != nil {
		s.fail("load", "", err)
		return err
	}
	s.replace(gen, resp.Orders)
	return nil
}

// Place 提交订单，成功后插入列表首位
func (s *Synchronizer) Place(ctx context.Context, input PlaceInput) (models.OrderView, error) {
	shipping := models.ShippingAddress{
		Address: strings.TrimSpace(input.Shipping.Address),
		City:    strings.TrimSpace(input.Shipping.City),
		Zip:     strings.TrimSpace(input.Shipping.Zip),
	}
	if shipping.Address == "" || shipping.City == "" || shipping.Zip == "" {
		return models.OrderView{}, ErrAddressRequired
	}
	method := strings.TrimSpace(input.PaymentMethod)
	if method == "" {
		method = constants.PaymentMethodCOD
	}

	gen := s.currentGeneration()
	var resp placeResponse
	err := s.api.Do(ctx, gateway.Call{
		Method: http.MethodPost,
		Path:   constants.APIPathOrders,
		Body:   placeRequest{ShippingAddress: shipping, PaymentMethod: method},
		Auth:   true,
	}, &resp)
	if err != nil {
		s.log.Warnw("order_place_failed", "kind", gateway.KindOf(err), "error", err)
		return models.OrderView{}, err
	}
	s.mu.Lock()
	if s.generation == gen {
		s.orders = dedupe(append([]models.OrderView{resp.Order}, s.orders...))
	}
	s.mu.Unlock()
	s.log.Infow("order_placed", "order_id", resp.Order.ID, "total", resp.Order.TotalPrice.String())
	return resp.Order, nil
}

// Cancel 取消订单，确认交互由调用方负责；成功后重新拉取列表
func (s *Synchronizer) Cancel(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ErrOrderRequired
	}
	done, err := s.pending.Begin(orderID, constants.PendingLabelCancelling)
	if err != nil {
		return ErrPending
	}
	defer done()

	err = s.api.Do(ctx, gateway.Call{
		Method: http.MethodDelete,
		Path:   constants.APIPathOrders + "/" + url.PathEscape(orderID),
		Auth:   true,
	}, nil)
	if err != nil {
		s.fail("cancel", orderID, err)
		return err
	}
	if s.alerts != nil {
		s.alerts.Push(alert.LevelSuccess, "Order deleted")
	}
	return s.Load(ctx)
}

func (s *Synchronizer) replace(gen uint64, orders []models.OrderView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.orders = dedupe(orders)
}

func (s *Synchronizer) fail(op, orderID string, err error) {
	s.log.Warnw("order_operation_failed", "op", op, "order_id", orderID, "kind", gateway.KindOf(err), "error", err)
	if s.alerts == nil || gateway.IsKind(err, gateway.KindUnauthorized) || gateway.IsCanceled(err) {
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
	s.orders = nil
	s.mu.Unlock()
}

func (s *Synchronizer) identity() *models.Identity {
	if s.session == nil {
		return nil
	}
	return s.session.Get()
}

func (s *Synchronizer) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// dedupe 按订单 ID 去重，保留首次出现的位置
func dedupe(orders []models.OrderView) []models.OrderView {
	seen := make(map[string]struct{}, len(orders))
	out := make([]models.OrderView, 0, len(orders))
	for _, order := range orders {
		if _, ok := seen[order.ID]; ok {
			continue
		}
		seen[order.ID] = struct{}{}
		out = append(out, order)
	}
	return out
}
