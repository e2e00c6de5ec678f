// Package alert 全局提示中心：短暂、可关闭的通知。
package alert

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level 提示级别
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

const defaultCapacity = 20

// Alert 一条提示
type Alert struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Center 提示中心，超过容量时丢弃最旧的提示
type Center struct {
	mu       sync.Mutex
	items    []Alert
	capacity int
	subs     map[uint64]func(Alert)
	nextID   uint64
}

// NewCenter 创建提示中心
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Center{capacity: capacity, subs: make(map[uint64]func(Alert))}
}

// Push 新增提示，返回提示 ID
func (c *Center) Push(level Level, message string) string {
	item := Alert{ID: uuid.NewString(), Level: level, Message: message, CreatedAt: time.Now()}
	c.mu.Lock()
	c.items = append(c.items, item)
	if overflow := len(c.items) - c.capacity; overflow > 0 {
		c.items = append([]Alert(nil), c.items[overflow:]...)
	}
	targets := make([]func(Alert), 0, len(c.subs))
	for _, fn := range c.subs {
		targets = append(targets, fn)
	}
	c.mu.Unlock()

	for _, fn := range targets {
		fn(item)
	}
	return item.ID
}

// Error 新增错误提示
func (c *Center) Error(message string) string {
	return c.Push(LevelError, message)
}

// List 当前提示（按时间先后）
func (c *Center) List() []Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Alert, len(c.items))
	copy(out, c.items)
	return out
}

// Dismiss 关闭提示
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// DismissAll 关闭全部提示
func (c *Center) DismissAll() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Subscribe 监听新增提示
func (c *Center) Subscribe(fn func(Alert)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
