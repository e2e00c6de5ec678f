package cart

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dujiao-next/storefront/internal/alert"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/gateway"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/notify"
	"github.com/dujiao-next/storefront/internal/session"
	"github.com/dujiao-next/storefront/internal/storage"
)

type cartFixture struct {
	backend   *fakeBackend
	store     storage.Store
	notifier  *notify.Notifier
	session   *session.Store
	alerts    *alert.Center
	sync      *Synchronizer
	redirects int32
}

func setupCartTest(t *testing.T, loggedIn bool) *cartFixture {
	t.Helper()
	return setupCartContext(t, newFakeBackend(t), storage.NewMemoryStore(), loggedIn)
}

func setupCartContext(t *testing.T, backend *fakeBackend, store storage.Store, loggedIn bool) *cartFixture {
	t.Helper()
	ctx := context.Background()
	f := &cartFixture{backend: backend, store: store, alerts: alert.NewCenter(0)}
	f.notifier = notify.New(nil)
	t.Cleanup(f.notifier.Close)
	f.session = session.New(ctx, store, f.notifier, nil)
	t.Cleanup(f.session.Close)
	if loggedIn && f.session.Get() == nil {
		if err := f.session.Set(ctx, &models.Identity{ID: "u1", DisplayName: "User", Role: constants.RoleUser, Token: "tok-u1"}); err != nil {
			t.Fatalf("set session failed: %v", err)
		}
	}

	client := gateway.New(gateway.Options{BaseURL: backend.URL(), Credentials: f.session})
	client.OnUnauthorized(func() {
		atomic.AddInt32(&f.redirects, 1)
		f.session.Clear(context.Background())
	})
	f.sync = New(ctx, Options{
		API:      client,
		Session:  f.session,
		Storage:  store,
		Notifier: f.notifier,
		Alerts:   f.alerts,
	})
	t.Cleanup(f.sync.Close)
	return f
}

func (f *cartFixture) assertMirrorsServer(t *testing.T) {
	t.Helper()
	got := f.sync.Cart()
	want := f.backend.Last()
	if !got.Equal(want) {
		t.Fatalf("cart diverged from server:\n got  %+v\n want %+v", got, want)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestMutationsMirrorServerResponse(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()

	steps := []func() error{
		func() error { return f.sync.Add(ctx, "p1", 1) },
		func() error { return f.sync.Add(ctx, "p2", 3) },
		func() error { return f.sync.Add(ctx, "p1", 2) },
		func() error { return f.sync.SetQuantity(ctx, "p2", 1) },
		func() error { return f.sync.Remove(ctx, "p1") },
		func() error { return f.sync.Add(ctx, "p3", 2) },
		func() error { return f.sync.Clear(ctx) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		f.assertMirrorsServer(t)
	}
	if f.sync.Count() != 0 || cartLen(f.sync.Cart()) != 0 {
		t.Fatalf("expected empty cart after clear")
	}
}

func TestCommittedCartPersistedAsSnapshot(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	if err := f.sync.Add(ctx, "p2", 4); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	var snapshot models.Cart
	hit, err := storage.GetJSON(ctx, f.store, constants.StorageKeyCart, &snapshot)
	if err != nil || !hit {
		t.Fatalf("snapshot missing: hit=%v err=%v", hit, err)
	}
	if !snapshot.Equal(f.backend.Last()) {
		t.Fatalf("snapshot differs from server cart: %+v", snapshot)
	}
	if f.sync.Count() != 4 {
		t.Fatalf("count should come from server totalQuantity, got %d", f.sync.Count())
	}
}

func TestSetQuantityBelowOneRejectedWithoutNetwork(t *testing.T) {
	f := setupCartTest(t, true)
	before := f.backend.Hits()

	for _, qty := range []int{0, -3} {
		err := f.sync.SetQuantity(context.Background(), "p1", qty)
		if !IsValidation(err) {
			t.Fatalf("expected validation error for %d, got %v", qty, err)
		}
	}
	if err := f.sync.Add(context.Background(), "p1", 0); !IsValidation(err) {
		t.Fatalf("expected validation error for add 0, got %v", err)
	}
	if f.backend.Hits() != before {
		t.Fatalf("validation must not touch network")
	}
}

func TestDuplicateAddWhilePendingIssuesOneRequest(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	release := f.backend.gate("/cart/add")
	before := f.backend.Hits()

	firstErr := make(chan error, 1)
	go func() { firstErr <- f.sync.Add(ctx, "p1", 1) }()

	waitFor(t, func() bool { return f.sync.Pending("p1") })
	if got := f.sync.Label("p1"); got != constants.PendingLabelAdding {
		t.Fatalf("unexpected pending label %q", got)
	}
	if err := f.sync.Add(ctx, "p1", 1); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	if err := f.sync.Remove(ctx, "p1"); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending for remove on same line, got %v", err)
	}

	release()
	if err := <-firstErr; err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if got := f.backend.Hits() - before; got != 1 {
		t.Fatalf("expected exactly one request, got %d", got)
	}
	if f.sync.Pending("p1") || f.sync.Label("p1") != "" {
		t.Fatalf("pending state should clear after completion")
	}
	line, ok := cartLine(f.sync.Cart(), "p1")
	if !ok || line.Quantity != 1 {
		t.Fatalf("unexpected line %+v ok=%v", line, ok)
	}
}

func TestDifferentLinesMayRunConcurrently(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	release := f.backend.gate("/cart/add")

	errs := make(chan error, 2)
	go func() { errs <- f.sync.Add(ctx, "p1", 1) }()
	waitFor(t, func() bool { return f.sync.Pending("p1") })
	go func() { errs <- f.sync.Add(ctx, "p2", 1) }()
	waitFor(t, func() bool { return f.sync.Pending("p2") })

	release()
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}
	if cartLen(f.sync.Cart()) != 2 {
		t.Fatalf("expected two lines, got %+v", f.sync.Cart())
	}
}

func TestSetQuantityLabels(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	if err := f.sync.Add(ctx, "p2", 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	var labels []string
	stop := f.sync.Tracker().Watch(func(key, label string) {
		if label != "" {
			labels = append(labels, label)
		}
	})
	defer stop()

	_ = f.sync.SetQuantity(ctx, "p2", 5)
	_ = f.sync.SetQuantity(ctx, "p2", 2)
	_ = f.sync.Remove(ctx, "p2")
	_ = f.sync.Clear(ctx)

	want := []string{
		constants.PendingLabelAdding,
		constants.PendingLabelUpdating,
		constants.PendingLabelRemoving,
		constants.PendingLabelClearing,
	}
	if len(labels) != len(want) {
		t.Fatalf("unexpected labels %v", labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("label %d: want %s got %s", i, want[i], labels[i])
		}
	}
}

func TestConflictLeavesCartUnchanged(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	if err := f.sync.Add(ctx, "p1", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	before := f.sync.Cart()

	err := f.sync.SetQuantity(ctx, "p1", 50)
	if !gateway.IsKind(err, gateway.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !f.sync.Cart().Equal(before) {
		t.Fatalf("cart changed after conflict: %+v", f.sync.Cart())
	}
	if f.sync.Pending("p1") {
		t.Fatalf("pending label should clear after failure")
	}
	alerts := f.alerts.List()
	if len(alerts) != 1 || alerts[0].Message != "Only 5 left in stock" {
		t.Fatalf("conflict should surface server message verbatim, got %+v", alerts)
	}
}

func TestServerErrorKeepsLastKnownGood(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	if err := f.sync.Add(ctx, "p2", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	before := f.sync.Cart()

	f.backend.failWith(500)
	if err := f.sync.Load(ctx); !gateway.IsKind(err, gateway.KindServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
	if !f.sync.Cart().Equal(before) {
		t.Fatalf("load failure must not touch cart")
	}
	f.backend.failWith(500)
	if err := f.sync.Remove(ctx, "p2"); !gateway.IsKind(err, gateway.KindServerError) {
		t.Fatalf("expected server error, got %v", err)
	}
	if !f.sync.Cart().Equal(before) {
		t.Fatalf("remove failure must not touch cart")
	}
	if len(f.alerts.List()) != 2 {
		t.Fatalf("each failure should push an alert, got %+v", f.alerts.List())
	}
}

func TestAnonymousAddRedirectsWithoutNetwork(t *testing.T) {
	f := setupCartTest(t, false)
	ctx := context.Background()
	before := f.backend.Hits()

	err := f.sync.Add(ctx, "p1", 1)
	if !gateway.IsKind(err, gateway.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if atomic.LoadInt32(&f.redirects) != 1 {
		t.Fatalf("expected login redirect")
	}
	if f.backend.Hits() != before {
		t.Fatalf("anonymous add must not issue a request")
	}
	if cartLen(f.sync.Cart()) != 0 || f.sync.Count() != 0 {
		t.Fatalf("cart should stay empty")
	}
}

func TestAnonymousLoadIsEmptyWithoutNetwork(t *testing.T) {
	f := setupCartTest(t, false)
	before := f.backend.Hits()
	if err := f.sync.Load(context.Background()); err != nil {
		t.Fatalf("anonymous load failed: %v", err)
	}
	if f.backend.Hits() != before || cartLen(f.sync.Cart()) != 0 {
		t.Fatalf("anonymous load should be empty and offline")
	}
}

func TestSessionClearResetsCart(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	if err := f.sync.Add(ctx, "p1", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	f.session.Clear(ctx)

	if cartLen(f.sync.Cart()) != 0 || f.sync.Count() != 0 {
		t.Fatalf("cart should reset on logout")
	}
	if _, ok, _ := f.store.Get(ctx, constants.StorageKeyCart); ok {
		t.Fatalf("snapshot should be removed on logout")
	}
}

func TestSessionSwitchDefersLoadToCaller(t *testing.T) {
	f := setupCartTest(t, false)
	ctx := context.Background()
	before := f.backend.Hits()
	if err := f.session.Set(ctx, &models.Identity{ID: "u9", Role: constants.RoleUser, Token: "tok-u9"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	// 本地登录不在订阅回调里同步请求
	if got := f.backend.Hits() - before; got != 0 {
		t.Fatalf("local login should not load inside the session callback, got %d requests", got)
	}
	if err := f.sync.Load(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	f.assertMirrorsServer(t)
	if f.sync.Stale() {
		t.Fatalf("cart should be confirmed after login load")
	}
}

func TestLoadStartedBeforeMutationIsDiscarded(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	release := f.backend.hold("/cart")

	loadErr := make(chan error, 1)
	go func() { loadErr <- f.sync.Load(ctx) }()
	select {
	case <-f.backend.held:
	case <-time.After(2 * time.Second):
		t.Fatalf("load request never reached backend")
	}

	// 读取响应已按空购物车生成，此时变更先提交
	if err := f.sync.Add(ctx, "p1", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	release()
	if err := <-loadErr; err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if f.sync.Count() != 1 {
		t.Fatalf("stale load overwrote committed mutation, count=%d", f.sync.Count())
	}
	f.assertMirrorsServer(t)
	var snapshot models.Cart
	if _, err := storage.GetJSON(ctx, f.store, constants.StorageKeyCart, &snapshot); err != nil || snapshot.TotalQuantity != 1 {
		t.Fatalf("snapshot should keep the mutation result, got %+v err=%v", snapshot, err)
	}

	// 变更之后发出的读取照常生效
	if err := f.sync.Load(ctx); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	f.assertMirrorsServer(t)
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	// 服务端认为令牌失效
	f.backend.failWith(401)
	err := f.sync.Add(ctx, "p1", 1)
	if !gateway.IsKind(err, gateway.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if f.session.Get() != nil {
		t.Fatalf("session should be cleared on unauthorized")
	}
	if atomic.LoadInt32(&f.redirects) != 1 {
		t.Fatalf("expected login redirect")
	}
	if cartLen(f.sync.Cart()) != 0 {
		t.Fatalf("cart should be empty after forced logout")
	}
}

func TestSnapshotShownUntilFirstLoad(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	store := storage.NewMemoryStore()
	_ = storage.SetJSON(ctx, store, constants.StorageKeyUser, models.Identity{ID: "u1", Role: constants.RoleUser, Token: "tok-u1"})
	cached := models.Cart{
		Lines:         []models.CartLine{{ProductID: "p3", Quantity: 1, Product: models.ProductSummary{ID: "p3", Title: "cached"}}},
		TotalQuantity: 1,
	}
	_ = storage.SetJSON(ctx, store, constants.StorageKeyCart, cached)

	f := setupCartContext(t, backend, store, true)
	if !f.sync.Cart().Equal(cached) || !f.sync.Stale() {
		t.Fatalf("cached snapshot should be shown before first load")
	}
	if err := f.sync.Load(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if f.sync.Stale() || cartLen(f.sync.Cart()) != 0 {
		t.Fatalf("server cart should replace snapshot, got %+v", f.sync.Cart())
	}
}

func TestCrossContextConvergence(t *testing.T) {
	backend := newFakeBackend(t)
	profile := storage.NewProfile()
	tabA := setupCartContext(t, backend, profile.Open(), true)
	tabB := setupCartContext(t, backend, profile.Open(), true)
	stopA := tabA.notifier.Bridge(tabA.store.(storage.Watcher))
	defer stopA()
	stopB := tabB.notifier.Bridge(tabB.store.(storage.Watcher))
	defer stopB()

	if err := tabA.sync.Add(context.Background(), "p2", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	waitFor(t, func() bool { return tabB.sync.Cart().Equal(backend.Last()) })

	// 另一个上下文退出登录后，本上下文的购物车也被清空
	tabA.session.Clear(context.Background())
	waitFor(t, func() bool { return tabB.session.Get() == nil && cartLen(tabB.sync.Cart()) == 0 })
}

func TestPreviewDoesNotCommit(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	if err := f.sync.Add(ctx, "p1", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	preview := f.sync.Preview("p1", 4)
	if line, _ := preview.Line("p1"); line.Quantity != 4 || preview.TotalQuantity != 4 {
		t.Fatalf("unexpected preview %+v", preview)
	}
	if line, _ := cartLine(f.sync.Cart(), "p1"); line.Quantity != 2 {
		t.Fatalf("preview must not change committed cart")
	}
}

func TestFormatBadge(t *testing.T) {
	cases := map[int]string{0: "", 1: "1", 99: "99", 100: "99+", 250: "99+"}
	for count, want := range cases {
		if got := FormatBadge(count); got != want {
			t.Fatalf("FormatBadge(%d) = %q, want %q", count, got, want)
		}
	}
}

func TestCheckoutEmptiesCartAfterOrder(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()

	placed := 0
	place := func(context.Context) error {
		placed++
		return nil
	}
	if err := f.sync.Checkout(ctx, place); !IsValidation(err) || placed != 0 {
		t.Fatalf("empty cart checkout want validation error without order, got %v placed=%d", err, placed)
	}

	if err := f.sync.Add(ctx, "p1", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := f.sync.Checkout(ctx, place); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if placed != 1 || f.sync.Count() != 0 || f.sync.Stale() {
		t.Fatalf("cart should be empty and confirmed after checkout, count=%d placed=%d", f.sync.Count(), placed)
	}
	var snapshot models.Cart
	if hit, err := storage.GetJSON(ctx, f.store, constants.StorageKeyCart, &snapshot); !hit || err != nil || snapshot.Len() != 0 {
		t.Fatalf("snapshot should be emptied, hit=%v err=%v %+v", hit, err, snapshot)
	}
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	if err := f.sync.Add(ctx, "p1", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	before := f.sync.Cart()

	err := f.sync.Checkout(ctx, func(context.Context) error {
		return &gateway.Error{Kind: gateway.KindConflict, Status: 409, Message: "Only 1 left in stock"}
	})
	if !gateway.IsKind(err, gateway.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if !f.sync.Cart().Equal(before) {
		t.Fatalf("failed checkout should keep cart")
	}
	alerts := f.alerts.List()
	if len(alerts) != 1 || alerts[0].Message != "Only 1 left in stock" {
		t.Fatalf("expected one alert with server message, got %+v", alerts)
	}
}

func TestCheckoutWhilePendingRejected(t *testing.T) {
	f := setupCartTest(t, true)
	ctx := context.Background()
	if err := f.sync.Add(ctx, "p1", 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	release := make(chan struct{})
	firstErr := make(chan error, 1)
	go func() {
		firstErr <- f.sync.Checkout(ctx, func(context.Context) error {
			<-release
			return nil
		})
	}()
	waitFor(t, func() bool { return f.sync.CheckoutLabel() == constants.PendingLabelPlacingOrder })

	if err := f.sync.Checkout(ctx, func(context.Context) error { return nil }); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	close(release)
	if err := <-firstErr; err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	if f.sync.CheckoutLabel() != "" || f.sync.Count() != 0 {
		t.Fatalf("checkout should complete and clear label")
	}
}

// cartLen 对 Cart() 返回的值调用指针方法 Len
func cartLen(c models.Cart) int {
	return c.Len()
}

// cartLine 对 Cart() 返回的值调用指针方法 Line
func cartLine(c models.Cart, productID string) (models.CartLine, bool) {
	return c.Line(productID)
}
