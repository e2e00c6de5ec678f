// Package pending 记录按 key 划分的在途操作，同一 key 同时只允许一个操作。
package pending

import (
	"errors"
	"sort"
	"sync"
)

// ErrBusy key 已有在途操作
var ErrBusy = errors.New("operation already pending")

// Tracker 在途操作表
type Tracker struct {
	mu     sync.Mutex
	labels map[string]string
	subs   map[uint64]func(key, label string)
	nextID uint64
}

// New 创建在途操作表
func New() *Tracker {
	return &Tracker{
		labels: make(map[string]string),
		subs:   make(map[uint64]func(key, label string)),
	}
}

// Begin 标记 key 进入在途状态，返回结束函数
// key 已在途时返回 ErrBusy
func (t *Tracker) Begin(key, label string) (func(), error) {
	t.mu.Lock()
	if _, busy := t.labels[key]; busy {
		t.mu.Unlock()
		return nil, ErrBusy
	}
	t.labels[key] = label
	t.mu.Unlock()
	t.emit(key, label)

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.labels, key)
			t.mu.Unlock()
			t.emit(key, "")
		})
	}, nil
}

// Label 返回 key 的在途提示，空串表示空闲
func (t *Tracker) Label(key string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.labels[key]
}

// Busy key 是否在途
func (t *Tracker) Busy(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.labels[key]
	return ok
}

// Any 是否存在任意在途操作
func (t *Tracker) Any() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.labels) > 0
}

// Keys 当前在途的 key（有序）
func (t *Tracker) Keys() []string {
	t.mu.Lock()
	keys := make([]string, 0, len(t.labels))
	for key := range t.labels {
		keys = append(keys, key)
	}
	t.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Watch 监听在途状态变化，label 为空表示回到空闲
func (t *Tracker) Watch(fn func(key, label string)) func() {
	if fn == nil {
		return func() {}
	}
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.subs[id] = fn
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) emit(key, label string) {
	t.mu.Lock()
	targets := make([]func(string, string), 0, len(t.subs))
	for _, fn := range t.subs {
		targets = append(targets, fn)
	}
	t.mu.Unlock()
	for _, fn := range targets {
		fn(key, label)
	}
}
