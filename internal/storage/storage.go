// Package storage 提供客户端持久化键值存储（对应浏览器 localStorage）。
//
// 同一命名空间下的多个执行上下文共享同一份数据；某个上下文写入后，
// 其它上下文通过 Watcher 收到仅包含 key 的变更事件，写入方自身不会收到。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrKeyInvalid key 为空
	ErrKeyInvalid = errors.New("storage key invalid")
	// ErrDriverUnsupported 不支持的存储驱动
	ErrDriverUnsupported = errors.New("storage driver unsupported")
)

// Store 键值存储
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Watcher 监听其它上下文的写入
// 回调只携带 key，不携带新值；stop 用于取消监听
type Watcher interface {
	Watch(fn func(key string)) (stop func())
}

// GetJSON 读取 JSON 值
// 返回 hit=false 表示 key 不存在；解析失败返回错误，由调用方决定如何降级
func GetJSON(ctx context.Context, s Store, key string, dest interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 写入 JSON 值
func SetJSON(ctx context.Context, s Store, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(payload))
}

func normalizeKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", ErrKeyInvalid
	}
	return trimmed, nil
}

func normalizeNamespace(namespace string) string {
	trimmed := strings.TrimSpace(namespace)
	if trimmed == "" {
		return "default"
	}
	return trimmed
}

func newContextID() string {
	return uuid.NewString()
}
