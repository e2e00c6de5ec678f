// Package session 维护当前执行上下文的登录身份。
//
// 身份持久化在存储的 user key 下，管理端提升身份单独保存在 admin key 下。
// 每个执行上下文只应创建一个 Store；角色只用于界面门控。
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/notify"
	"github.com/dujiao-next/storefront/internal/storage"

	"go.uber.org/zap"
)

// ErrIdentityInvalid 身份缺少 ID 或令牌
var ErrIdentityInvalid = errors.New("session identity invalid")

// Change 身份变化
type Change struct {
	Previous *models.Identity
	Current  *models.Identity
	// Remote 为 true 表示变化来自其它执行上下文（经 Reload 感知）
	Remote bool
}

// Anonymous 变化后是否为游客
func (c Change) Anonymous() bool {
	return c.Current == nil
}

// SwitchedUser 是否切换为另一个已登录用户
func (c Change) SwitchedUser() bool {
	if c.Current == nil {
		return false
	}
	return c.Previous == nil || c.Previous.ID != c.Current.ID
}

// Store 会话存储
type Store struct {
	mu        sync.RWMutex
	storage   storage.Store
	notifier  *notify.Notifier
	current   *models.Identity
	elevated  *models.Identity
	listeners map[uint64]func(Change)
	nextID    uint64
	unsub     func()
	log       *zap.SugaredLogger
}

// New 创建会话存储并从持久化数据恢复身份
// 持久化数据损坏时按游客处理并清除该 key
func New(ctx context.Context, store storage.Store, notifier *notify.Notifier, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.Named("session")
	}
	s := &Store{
		storage:   store,
		notifier:  notifier,
		listeners: make(map[uint64]func(Change)),
		log:       log,
	}
	s.current = s.readIdentity(ctx, constants.StorageKeyUser)
	s.elevated = s.readIdentity(ctx, constants.StorageKeyAdmin)
	if notifier != nil {
		s.unsub = notifier.Subscribe(constants.TopicSessionChanged, func(evt notify.Event) {
			if evt.Remote {
				s.Reload(context.Background())
			}
		})
	}
	return s
}

// Close 取消跨上下文订阅
func (s *Store) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// Get 当前身份，nil 表示游客
func (s *Store) Get() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Elevated 管理端提升身份
func (s *Store) Elevated() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elevated.Clone()
}

// Set 保存身份并通知订阅者
// 提升身份属于其它用户时一并清除，避免管理端路径继续携带旧令牌
func (s *Store) Set(ctx context.Context, identity *models.Identity) error {
	if !identity.Valid() {
		return ErrIdentityInvalid
	}
	next := identity.Clone()
	next.Role = models.NormalizeRole(next.Role)
	if err := storage.SetJSON(ctx, s.storage, constants.StorageKeyUser, next); err != nil {
		return err
	}

	s.mu.Lock()
	prev := s.current
	s.current = next
	dropElevated := s.elevated != nil && s.elevated.ID != next.ID
	if dropElevated {
		s.elevated = nil
	}
	s.mu.Unlock()

	if dropElevated {
		if err := s.storage.Remove(ctx, constants.StorageKeyAdmin); err != nil {
			s.log.Warnw("session_storage_remove_failed", "key", constants.StorageKeyAdmin, "error", err)
		}
	}

	s.log.Infow("session_set", "user_id", next.ID, "role", next.Role)
	s.emit(Change{Previous: prev.Clone(), Current: next.Clone()})
	s.publish()
	return nil
}

// SetElevated 保存管理端提升身份
func (s *Store) SetElevated(ctx context.Context, identity *models.Identity) error {
	if !identity.Valid() {
		return ErrIdentityInvalid
	}
	next := identity.Clone()
	next.Role = models.NormalizeRole(next.Role)
	if err := storage.SetJSON(ctx, s.storage, constants.StorageKeyAdmin, next); err != nil {
		return err
	}
	s.mu.Lock()
	s.elevated = next
	s.mu.Unlock()
	return nil
}

// Clear 清除身份（含提升身份）并通知订阅者
// 存储删除失败只记录日志，内存态总是被清空
func (s *Store) Clear(ctx context.Context) {
	for _, key := range []string{constants.StorageKeyUser, constants.StorageKeyAdmin} {
		if err := s.storage.Remove(ctx, key); err != nil {
			s.log.Warnw("session_storage_remove_failed", "key", key, "error", err)
		}
	}

	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.elevated = nil
	s.mu.Unlock()

	s.log.Infow("session_cleared")
	s.emit(Change{Previous: prev.Clone()})
	s.publish()
}

// Reload 重新读取持久化身份（其它上下文写入后调用）
// 仅在身份确有变化时通知本地订阅者，不再向外发布
func (s *Store) Reload(ctx context.Context) {
	current := s.readIdentity(ctx, constants.StorageKeyUser)
	elevated := s.readIdentity(ctx, constants.StorageKeyAdmin)

	s.mu.Lock()
	prev := s.current
	s.current = current
	s.elevated = elevated
	s.mu.Unlock()

	if prev.Equal(current) {
		return
	}
	s.log.Debugw("session_reloaded", "anonymous", current == nil)
	s.emit(Change{Previous: prev.Clone(), Current: current.Clone(), Remote: true})
}

// Subscribe 监听身份变化，返回取消函数
func (s *Store) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Credential 返回访问指定路径应携带的令牌
// 管理端路径优先使用提升身份，其余路径使用普通身份
func (s *Store) Credential(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if isElevatedPath(path) && s.elevated.Valid() {
		return s.elevated.Token
	}
	if s.current.Valid() {
		return s.current.Token
	}
	return ""
}

func isElevatedPath(path string) bool {
	segment := constants.RouteElevatedSegment
	return path == segment || strings.HasPrefix(path, segment+"/")
}

func (s *Store) readIdentity(ctx context.Context, key string) *models.Identity {
	var identity models.Identity
	hit, err := storage.GetJSON(ctx, s.storage, key, &identity)
	if !hit {
		if err != nil {
			s.log.Warnw("session_storage_read_failed", "key", key, "error", err)
		}
		return nil
	}
	if err != nil || !identity.Valid() {
		s.log.Warnw("session_storage_malformed", "key", key, "error", err)
		if removeErr := s.storage.Remove(ctx, key); removeErr != nil {
			s.log.Warnw("session_storage_remove_failed", "key", key, "error", removeErr)
		}
		return nil
	}
	identity.Role = models.NormalizeRole(identity.Role)
	return &identity
}

func (s *Store) emit(change Change) {
	s.mu.RLock()
	targets := make([]func(Change), 0, len(s.listeners))
	for _, fn := range s.listeners {
		targets = append(targets, fn)
	}
	s.mu.RUnlock()
	for _, fn := range targets {
		fn(change)
	}
}

func (s *Store) publish() {
	if s.notifier != nil {
		s.notifier.Publish(constants.TopicSessionChanged)
	}
}
