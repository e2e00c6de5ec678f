// Package cart 购物车同步器：唯一允许修改购物车状态的组件。
//
// 每次变更成功后都用服务端返回的完整购物车替换本地状态，失败时保持上一次
// 确认的状态不变。同一商品行同时只允许一个在途变更。
package cart

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/dujiao-next/storefront/internal/alert"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/gateway"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/notify"
	"github.com/dujiao-next/storefront/internal/pending"
	"github.com/dujiao-next/storefront/internal/session"
	"github.com/dujiao-next/storefront/internal/storage"

	"go.uber.org/zap"
)

const lineKeyPrefix = "product:"

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
	API      API
	Session  Session
	Storage  storage.Store
	Notifier *notify.Notifier
	Alerts   *alert.Center
	Pending  *pending.Tracker
	Logger   *zap.SugaredLogger
}

// Synchronizer 购物车同步器
type Synchronizer struct {
	api      API
	session  Session
	storage  storage.Store
	notifier *notify.Notifier
	alerts   *alert.Center
	pending  *pending.Tracker
	log      *zap.SugaredLogger

	mu        sync.RWMutex
	cart      models.Cart
	confirmed bool
	// generation 在会话变化时递增，旧会话发起的请求结果会被丢弃
	generation uint64
	// commits 在变更结果提交时递增，早于该次提交发出的 Load 结果会被丢弃
	commits uint64

	unsubs []func()
}

type quantityRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// New 创建同步器；已登录时先展示本地缓存的购物车快照，直到首次加载成功
func New(ctx context.Context, opts Options) *Synchronizer {
	log := opts.Logger
	if log == nil {
		log = logger.Named("cart")
	}
	tracker := opts.Pending
	if tracker == nil {
		tracker = pending.New()
	}
	s := &Synchronizer{
		api:      opts.API,
		session:  opts.Session,
		storage:  opts.Storage,
		notifier: opts.Notifier,
		alerts:   opts.Alerts,
		pending:  tracker,
		log:      log,
	}
	s.restoreSnapshot(ctx)

	if s.session != nil {
		s.unsubs = append(s.unsubs, s.session.Subscribe(s.onSessionChange))
	}
	if s.notifier != nil {
		s.unsubs = append(s.unsubs, s.notifier.Subscribe(constants.TopicCartChanged, func(evt notify.Event) {
			if !evt.Remote {
				return
			}
			if err := s.Load(context.Background()); err != nil {
				s.log.Debugw("cart_remote_reload_failed", "error", err)
			}
		}))
	}
	return s
}

// Close 取消订阅
func (s *Synchronizer) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

// Cart 当前展示的购物车
func (s *Synchronizer) Cart() models.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Count 服务端给出的商品总数
func (s *Synchronizer) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.TotalQuantity
}

// Stale 当前展示的是否为尚未经服务端确认的缓存快照
func (s *Synchronizer) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.confirmed && s.cart.Len() > 0
}

// Pending 商品行是否有在途操作
func (s *Synchronizer) Pending(productID string) bool {
	return s.pending.Busy(lineKey(productID))
}

// Label 商品行的在途提示
func (s *Synchronizer) Label(productID string) string {
	return s.pending.Label(lineKey(productID))
}

// ClearLabel 清空购物车操作的在途提示
func (s *Synchronizer) ClearLabel() string {
	return s.pending.Label(constants.PendingKeyClear)
}

// Tracker 在途操作表，供视图渲染
func (s *Synchronizer) Tracker() *pending.Tracker {
	return s.pending
}

// Load 拉取当前会话的购物车；游客直接得到空购物车
func (s *Synchronizer) Load(ctx context.Context) error {
	gen, base := s.versions()
	if s.anonymous() {
		s.mu.Lock()
		if s.generation == gen {
			s.cart = models.Cart{}
			s.confirmed = true
		}
		s.mu.Unlock()
		return nil
	}

	var next models.Cart
	if err := s.api.Do(ctx, gateway.Call{Method: http.MethodGet, Path: constants.APIPathCart, Auth: true}, &next); err != nil {
		s.fail("load", "", err)
		return err
	}
	s.commit(ctx, gen, base, next, false)
	return nil
}

// Add 加入购物车
func (s *Synchronizer) Add(ctx context.Context, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if err := validate(productID, quantity); err != nil {
		return err
	}
	return s.mutate(ctx, "add", lineKey(productID), constants.PendingLabelAdding, gateway.Call{
		Method: http.MethodPost,
		Path:   constants.APIPathCartAdd,
		Body:   quantityRequest{ProductID: productID, Quantity: quantity},
		Auth:   true,
	})
}

// SetQuantity 修改商品数量，数量必须 ≥ 1（置零请使用 Remove）
func (s *Synchronizer) SetQuantity(ctx context.Context, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if err := validate(productID, quantity); err != nil {
		return err
	}
	label := constants.PendingLabelUpdating
	current := s.Cart()
	if line, ok := current.Line(productID); !ok || quantity > line.Quantity {
		label = constants.PendingLabelAdding
	}
	return s.mutate(ctx, "update", lineKey(productID), label, gateway.Call{
		Method: http.MethodPut,
		Path:   constants.APIPathCartUpdate,
		Body:   quantityRequest{ProductID: productID, Quantity: quantity},
		Auth:   true,
	})
}

// Remove 移除商品行
func (s *Synchronizer) Remove(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return &ValidationError{Field: "productId", Reason: "is required"}
	}
	return s.mutate(ctx, "remove", lineKey(productID), constants.PendingLabelRemoving, gateway.Call{
		Method: http.MethodDelete,
		Path:   constants.APIPathCartRemove + url.PathEscape(productID),
		Auth:   true,
	})
}

// Clear 清空购物车，确认交互由调用方负责
func (s *Synchronizer) Clear(ctx context.Context) error {
	return s.mutate(ctx, "clear", constants.PendingKeyClear, constants.PendingLabelClearing, gateway.Call{
		Method: http.MethodDelete,
		Path:   constants.APIPathCartClear,
		Auth:   true,
	})
}

// Checkout 提交订单；服务端下单时已清空购物车，成功后本地同步为空并广播
// 本地购物车为空时直接拒绝，不发起请求
func (s *Synchronizer) Checkout(ctx context.Context, place func(context.Context) error) error {
	if c := s.Cart(); !s.anonymous() && c.Len() == 0 {
		return &ValidationError{Field: "cart", Reason: "is empty"}
	}
	done, err := s.pending.Begin(constants.PendingKeyCheckout, constants.PendingLabelPlacingOrder)
	if err != nil {
		if errors.Is(err, pending.ErrBusy) {
			return ErrPending
		}
		return err
	}
	defer done()

	gen, base := s.versions()
	if err := place(ctx); err != nil {
		s.fail("checkout", constants.PendingKeyCheckout, err)
		return err
	}
	s.commit(ctx, gen, base, models.Cart{}, true)
	return nil
}

// CheckoutLabel 下单的在途提示
func (s *Synchronizer) CheckoutLabel() string {
	return s.pending.Label(constants.PendingKeyCheckout)
}

// Preview 乐观展示：返回把商品行数量改为 quantity 后的购物车副本，不写入状态
func (s *Synchronizer) Preview(productID string, quantity int) models.Cart {
	preview := s.Cart()
	total := 0
	lines := preview.Lines[:0]
	for _, line := range preview.Lines {
		if line.ProductID == productID {
			line.Quantity = quantity
		}
		if line.Quantity > 0 {
			lines = append(lines, line)
			total += line.Quantity
		}
	}
	preview.Lines = lines
	preview.TotalQuantity = total
	return preview
}

// Reset 清空本地购物车与缓存快照（退出登录时调用）
func (s *Synchronizer) Reset(ctx context.Context) {
	s.mu.Lock()
	s.generation++
	s.cart = models.Cart{}
	s.confirmed = false
	s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.Remove(ctx, constants.StorageKeyCart); err != nil {
			s.log.Warnw("cart_snapshot_remove_failed", "error", err)
		}
	}
	s.publish()
}

func (s *Synchronizer) mutate(ctx context.Context, op, key, label string, call gateway.Call) error {
	done, err := s.pending.Begin(key, label)
	if err != nil {
		if errors.Is(err, pending.ErrBusy) {
			return ErrPending
		}
		return err
	}
	defer done()

	gen, base := s.versions()
	var next models.Cart
	if err := s.api.Do(ctx, call, &next); err != nil {
		s.fail(op, key, err)
		return err
	}
	s.commit(ctx, gen, base, next, true)
	return nil
}

// commit 用服务端购物车替换本地状态
// force 为 true 表示变更结果，总是写快照并广播；否则为读取结果，
// 发出之后已有变更提交则丢弃，内容未变化时不写快照、不广播
func (s *Synchronizer) commit(ctx context.Context, gen, base uint64, next models.Cart, force bool) {
	next = next.Normalize()
	if next.Lines == nil {
		next.Lines = []models.CartLine{}
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.log.Debugw("cart_response_discarded", "reason", "session_changed")
		return
	}
	if !force && s.commits != base {
		s.mu.Unlock()
		s.log.Debugw("cart_response_discarded", "reason", "mutation_committed")
		return
	}
	if force {
		s.commits++
	}
	changed := !s.confirmed || !s.cart.Equal(next)
	s.cart = next
	s.confirmed = true
	s.mu.Unlock()

	if !force && !changed {
		return
	}
	if s.storage != nil {
		if err := storage.SetJSON(ctx, s.storage, constants.StorageKeyCart, next); err != nil {
			s.log.Warnw("cart_snapshot_persist_failed", "error", err)
		}
	}
	s.publish()
}

func (s *Synchronizer) fail(op, key string, err error) {
	s.log.Warnw("cart_mutation_failed", "op", op, "key", key, "kind", gateway.KindOf(err), "error", err)
	if s.alerts == nil || gateway.IsKind(err, gateway.KindUnauthorized) || gateway.IsCanceled(err) {
		return
	}
	s.alerts.Error(gateway.UserMessage(err))
}

func (s *Synchronizer) onSessionChange(change session.Change) {
	ctx := context.Background()
	if change.Anonymous() {
		s.Reset(ctx)
		return
	}
	if !change.SwitchedUser() {
		return
	}
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
	// 本地登录由调用方随后加载；其它上下文的切换在通知协程中直接重新加载
	if !change.Remote {
		return
	}
	if err := s.Load(ctx); err != nil {
		s.log.Debugw("cart_session_reload_failed", "error", err)
	}
}

func (s *Synchronizer) restoreSnapshot(ctx context.Context) {
	if s.storage == nil || s.anonymous() {
		return
	}
	var snapshot models.Cart
	hit, err := storage.GetJSON(ctx, s.storage, constants.StorageKeyCart, &snapshot)
	if err != nil {
		s.log.Warnw("cart_snapshot_malformed", "error", err)
		if hit {
			_ = s.storage.Remove(ctx, constants.StorageKeyCart)
		}
		return
	}
	if !hit {
		return
	}
	s.mu.Lock()
	s.cart = snapshot.Normalize()
	s.mu.Unlock()
}

func (s *Synchronizer) anonymous() bool {
	return s.session == nil || s.session.Get() == nil
}

func (s *Synchronizer) versions() (gen, commits uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation, s.commits
}

func (s *Synchronizer) publish() {
	if s.notifier != nil {
		s.notifier.Publish(constants.TopicCartChanged)
	}
}

func validate(productID string, quantity int) error {
	if productID == "" {
		return &ValidationError{Field: "productId", Reason: "is required"}
	}
	if quantity < 1 {
		return &ValidationError{Field: "quantity", Reason: "must be at least 1, use remove instead"}
	}
	return nil
}

func lineKey(productID string) string {
	return lineKeyPrefix + productID
}

// FormatBadge 购物车角标文案，超过 99 显示 99+
func FormatBadge(count int) string {
	if count <= 0 {
		return ""
	}
	if count > constants.BadgeOverflowQuantity {
		return constants.BadgeOverflowText
	}
	return strconv.Itoa(count)
}
