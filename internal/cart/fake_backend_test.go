package cart

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dujiao-next/storefront/internal/models"
)

// fakeBackend 按请求回显确定性的购物车，并记录最后一次响应
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	order    []string
	qty      map[string]int
	stock    map[string]int
	price    map[string]string
	last     models.Cart
	hits     int32
	gates    map[string]chan struct{}
	holds    map[string]chan struct{}
	held     chan string
	entered  chan string
	failNext int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		t:       t,
		qty:     make(map[string]int),
		stock:   map[string]int{"p1": 5, "p2": 10, "p3": 2},
		price:   map[string]string{"p1": "10.00", "p2": "2.50", "p3": "99.90"},
		gates:   make(map[string]chan struct{}),
		holds:   make(map[string]chan struct{}),
		held:    make(chan string, 16),
		entered: make(chan string, 16),
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) URL() string {
	return b.server.URL + "/api"
}

func (b *fakeBackend) Hits() int {
	return int(atomic.LoadInt32(&b.hits))
}

func (b *fakeBackend) Last() models.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last.Clone()
}

// gate 阻塞指定路径的请求，直到返回的函数被调用
func (b *fakeBackend) gate(path string) func() {
	ch := make(chan struct{})
	b.mu.Lock()
	b.gates[path] = ch
	b.mu.Unlock()
	return func() { close(ch) }
}

// hold 让指定路径的请求先按当时的状态生成响应，再阻塞到返回的函数被调用后才写出
func (b *fakeBackend) hold(path string) func() {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holds[path] = ch
	b.mu.Unlock()
	return func() { close(ch) }
}

func (b *fakeBackend) failWith(status int) {
	b.mu.Lock()
	b.failNext = status
	b.mu.Unlock()
}

func (b *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&b.hits, 1)
	path := strings.TrimPrefix(r.URL.Path, "/api")
	select {
	case b.entered <- path:
	default:
	}

	b.mu.Lock()
	gate := b.gates[path]
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized"})
		return
	}

	b.mu.Lock()
	status, payload := b.serveLocked(r, path)
	hold := b.holds[path]
	delete(b.holds, path)
	b.mu.Unlock()
	if hold != nil {
		b.held <- path
		<-hold
	}
	writeJSON(w, status, payload)
}

func (b *fakeBackend) serveLocked(r *http.Request, path string) (int, interface{}) {
	if b.failNext != 0 {
		status := b.failNext
		b.failNext = 0
		return status, map[string]string{"message": "backend unavailable"}
	}

	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	switch {
	case r.Method == http.MethodGet && path == "/cart":
	case r.Method == http.MethodPost && path == "/cart/add":
		if status, payload := b.setLocked(req.ProductID, b.qty[req.ProductID]+req.Quantity); status != 0 {
			return status, payload
		}
	case r.Method == http.MethodPut && path == "/cart/update":
		if status, payload := b.setLocked(req.ProductID, req.Quantity); status != 0 {
			return status, payload
		}
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/cart/remove/"):
		id := strings.TrimPrefix(path, "/cart/remove/")
		b.deleteLocked(id)
	case r.Method == http.MethodDelete && path == "/cart/clear":
		b.order = nil
		b.qty = make(map[string]int)
	default:
		return http.StatusNotFound, map[string]string{"message": "route not found"}
	}
	b.last = b.cartLocked()
	return http.StatusOK, b.last.Clone()
}

// setLocked 返回非零状态码表示拒绝
func (b *fakeBackend) setLocked(id string, quantity int) (int, interface{}) {
	stock, ok := b.stock[id]
	if !ok {
		return http.StatusNotFound, map[string]string{"message": "Product not found"}
	}
	if quantity > stock {
		return http.StatusConflict, map[string]string{"message": fmt.Sprintf("Only %d left in stock", stock)}
	}
	if _, exists := b.qty[id]; !exists {
		b.order = append(b.order, id)
	}
	b.qty[id] = quantity
	return 0, nil
}

func (b *fakeBackend) deleteLocked(id string) {
	delete(b.qty, id)
	kept := b.order[:0]
	for _, existing := range b.order {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	b.order = kept
}

func (b *fakeBackend) cartLocked() models.Cart {
	c := models.Cart{Lines: []models.CartLine{}}
	for _, id := range b.order {
		price := models.NewMoneyFromString(b.price[id])
		c.Lines = append(c.Lines, models.CartLine{
			ProductID:         id,
			Quantity:          b.qty[id],
			UnitPriceSnapshot: price,
			Product: models.ProductSummary{
				ID:    id,
				Title: "Product " + id,
				Price: price,
				Stock: b.stock[id],
			},
		})
		c.TotalQuantity += b.qty[id]
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
