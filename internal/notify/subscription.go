package notify

import (
	"sync"

	"go.uber.org/zap"
)

type subscription struct {
	fn   Handler
	log  *zap.SugaredLogger
	mu   sync.Mutex
	wait []Event
	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func newSubscription(fn Handler, log *zap.SugaredLogger) *subscription {
	return &subscription{
		fn:   fn,
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// enqueue 尚未投递的相同事件合并为一次
func (s *subscription) enqueue(evt Event) {
	s.mu.Lock()
	for _, queued := range s.wait {
		if queued == evt {
			s.mu.Unlock()
			return
		}
	}
	s.wait = append(s.wait, evt)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			s.mu.Lock()
			if len(s.wait) == 0 {
				s.mu.Unlock()
				break
			}
			batch := s.wait
			s.wait = nil
			s.mu.Unlock()

			for _, evt := range batch {
				select {
				case <-s.done:
					return
				default:
				}
				s.deliver(evt)
			}
		}
	}
}

func (s *subscription) deliver(evt Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("notify_handler_panic", "topic", evt.Topic, "panic", r)
		}
	}()
	s.fn(evt)
}

func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}
