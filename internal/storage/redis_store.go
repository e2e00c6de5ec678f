package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dujiao-next/storefront/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于 Redis 的共享存储
// 每次写入都会向命名空间频道发布 {key, origin}，供其它上下文感知
type RedisStore struct {
	client    *redis.Client
	prefix    string
	namespace string
	contextID string
}

type redisChange struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client, prefix, namespace string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("storage redis client is nil")
	}
	if prefix == "" {
		prefix = "sf"
	}
	return &RedisStore{
		client:    client,
		prefix:    prefix,
		namespace: normalizeNamespace(namespace),
		contextID: newContextID(),
	}, nil
}

func (s *RedisStore) dataKey(key string) string {
	return fmt.Sprintf("%s:ls:%s:%s", s.prefix, s.namespace, key)
}

func (s *RedisStore) channel() string {
	return fmt.Sprintf("%s:ls:%s:events", s.prefix, s.namespace)
}

// Get 读取
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	normalized, err := normalizeKey(key)
	if err != nil {
		return "", false, err
	}
	val, err := s.client.Get(ctx, s.dataKey(normalized)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set 写入
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.dataKey(normalized), value, 0).Err(); err != nil {
		return err
	}
	return s.announce(ctx, normalized)
}

// Remove 删除
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.dataKey(normalized)).Err(); err != nil {
		return err
	}
	return s.announce(ctx, normalized)
}

func (s *RedisStore) announce(ctx context.Context, key string) error {
	payload, err := json.Marshal(redisChange{Key: key, Origin: s.contextID})
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel(), payload).Err()
}

// Watch 订阅命名空间频道
func (s *RedisStore) Watch(fn func(key string)) func() {
	if fn == nil {
		return func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := s.client.Subscribe(ctx, s.channel())
	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change redisChange
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					logger.Warnw("storage_redis_event_decode_failed", "channel", msg.Channel, "error", err)
					continue
				}
				if change.Origin == s.contextID || change.Key == "" {
					continue
				}
				fn(change.Key)
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = pubsub.Close()
		})
	}
}
