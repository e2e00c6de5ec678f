// Package notify 跨上下文通知：同一上下文内的主题订阅，以及把其它上下文的
// 存储写入桥接为远端事件。事件只携带主题，不携带值，订阅方需要自行重新读取。
package notify

import (
	"strings"
	"sync"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/storage"

	"go.uber.org/zap"
)

// Event 通知事件
type Event struct {
	Topic string
	// Remote 为 true 表示事件来自其它执行上下文
	Remote bool
}

// Handler 事件回调
type Handler func(Event)

// Notifier 主题发布订阅
type Notifier struct {
	mu     sync.Mutex
	subs   map[string]map[uint64]*subscription
	nextID uint64
	closed bool
	log    *zap.SugaredLogger
}

// New 创建通知器
func New(log *zap.SugaredLogger) *Notifier {
	if log == nil {
		log = logger.Named("notify")
	}
	return &Notifier{
		subs: make(map[string]map[uint64]*subscription),
		log:  log,
	}
}

// Publish 发布本地事件
func (n *Notifier) Publish(topic string) {
	n.publish(Event{Topic: strings.TrimSpace(topic)})
}

// PublishRemote 发布来自其它上下文的事件
func (n *Notifier) PublishRemote(topic string) {
	n.publish(Event{Topic: strings.TrimSpace(topic), Remote: true})
}

func (n *Notifier) publish(evt Event) {
	if evt.Topic == "" {
		return
	}
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	targets := make([]*subscription, 0, len(n.subs[evt.Topic]))
	for _, sub := range n.subs[evt.Topic] {
		targets = append(targets, sub)
	}
	n.mu.Unlock()

	n.log.Debugw("notify_publish", "topic", evt.Topic, "remote", evt.Remote, "subscribers", len(targets))
	for _, sub := range targets {
		sub.enqueue(evt)
	}
}

// Subscribe 订阅主题，返回取消函数
// 发布时只投递给当时已存在的订阅者；回调在订阅者独立的 goroutine 中执行
func (n *Notifier) Subscribe(topic string, fn Handler) func() {
	topic = strings.TrimSpace(topic)
	if topic == "" || fn == nil {
		return func() {}
	}
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return func() {}
	}
	n.nextID++
	id := n.nextID
	sub := newSubscription(fn, n.log)
	if n.subs[topic] == nil {
		n.subs[topic] = make(map[uint64]*subscription)
	}
	n.subs[topic][id] = sub
	n.mu.Unlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs[topic], id)
			if len(n.subs[topic]) == 0 {
				delete(n.subs, topic)
			}
			n.mu.Unlock()
			sub.stop()
		})
	}
}

// Bridge 将其它上下文的存储写入转换为远端事件
func (n *Notifier) Bridge(watcher storage.Watcher) func() {
	if watcher == nil {
		return func() {}
	}
	return watcher.Watch(func(key string) {
		if topic, ok := TopicForKey(key); ok {
			n.PublishRemote(topic)
		}
	})
}

// TopicForKey 存储 key 对应的通知主题
func TopicForKey(key string) (string, bool) {
	switch key {
	case constants.StorageKeyUser, constants.StorageKeyAdmin:
		return constants.TopicSessionChanged, true
	case constants.StorageKeyCart:
		return constants.TopicCartChanged, true
	default:
		return "", false
	}
}

// Close 停止所有投递
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	all := n.subs
	n.subs = make(map[string]map[uint64]*subscription)
	n.mu.Unlock()

	for _, subs := range all {
		for _, sub := range subs {
			sub.stop()
		}
	}
}
