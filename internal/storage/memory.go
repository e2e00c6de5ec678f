package storage

import (
	"context"
	"sync"
)

// Profile 进程内共享的存储空间，相当于同一浏览器配置下的 localStorage
type Profile struct {
	mu       sync.RWMutex
	values   map[string]string
	watchers map[string]map[int]func(key string)
	nextID   int
}

// NewProfile 创建进程内共享存储空间
func NewProfile() *Profile {
	return &Profile{
		values:   make(map[string]string),
		watchers: make(map[string]map[int]func(key string)),
	}
}

// Open 打开一个新的执行上下文视图
func (p *Profile) Open() *MemoryStore {
	return &MemoryStore{profile: p, contextID: newContextID()}
}

func (p *Profile) write(origin, key string, value *string) {
	p.mu.Lock()
	if value == nil {
		delete(p.values, key)
	} else {
		p.values[key] = *value
	}
	targets := make([]func(string), 0)
	for contextID, fns := range p.watchers {
		if contextID == origin {
			continue
		}
		for _, fn := range fns {
			targets = append(targets, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range targets {
		fn(key)
	}
}

// MemoryStore 基于 Profile 的存储视图
type MemoryStore struct {
	profile   *Profile
	contextID string
}

// NewMemoryStore 创建独立的内存存储
func NewMemoryStore() *MemoryStore {
	return NewProfile().Open()
}

// ContextID 当前视图的上下文 ID
func (s *MemoryStore) ContextID() string {
	return s.contextID
}

// Get 读取
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	normalized, err := normalizeKey(key)
	if err != nil {
		return "", false, err
	}
	s.profile.mu.RLock()
	defer s.profile.mu.RUnlock()
	value, ok := s.profile.values[normalized]
	return value, ok, nil
}

// Set 写入
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}
	s.profile.write(s.contextID, normalized, &value)
	return nil
}

// Remove 删除
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}
	s.profile.write(s.contextID, normalized, nil)
	return nil
}

// Watch 监听同一 Profile 下其它视图的写入
func (s *MemoryStore) Watch(fn func(key string)) func() {
	if fn == nil {
		return func() {}
	}
	p := s.profile
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	if p.watchers[s.contextID] == nil {
		p.watchers[s.contextID] = make(map[int]func(key string))
	}
	p.watchers[s.contextID][id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers[s.contextID], id)
			if len(p.watchers[s.contextID]) == 0 {
				delete(p.watchers, s.contextID)
			}
			p.mu.Unlock()
		})
	}
}
