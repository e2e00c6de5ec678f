package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db       *gorm.DB
	auth     *AuthService
	users    *UserService
	products *ProductService
	cart     *CartService
	wishlist *WishlistService
	orders   *OrderService
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1}}
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	return &serviceTestEnv{
		db:       db,
		auth:     NewAuthService(cfg, userRepo),
		users:    NewUserService(userRepo),
		products: NewProductService(productRepo),
		cart:     NewCartService(cartRepo, productRepo),
		wishlist: NewWishlistService(repository.NewWishlistRepository(db), productRepo),
		orders:   NewOrderService(repository.NewOrderRepository(db), cartRepo, productRepo),
	}
}

func (e *serviceTestEnv) product(t *testing.T, title string, price int64, stock int) string {
	t.Helper()
	product, err := e.products.Create(CreateProductInput{
		Title: title,
		Price: models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return strconv.FormatUint(uint64(product.ID), 10)
}

func TestRegisterAndLoginWithRole(t *testing.T) {
	env := setupServiceTest(t)
	user, err := env.auth.Register("", "Seller@Example.com", "secret1", constants.RoleSeller)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Name != "seller" || user.Email != "seller@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, _, _, err := env.auth.Login("seller@example.com", "secret1", constants.RoleAdmin); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected role mismatch to be invalid credentials, got %v", err)
	}
	if _, _, _, err := env.auth.Login("seller@example.com", "wrong", constants.RoleSeller); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrong password to fail, got %v", err)
	}

	logged, token, _, err := env.auth.Login("seller@example.com", "secret1", constants.RoleSeller)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := env.auth.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != logged.ID || claims.Role != constants.RoleSeller {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterRejectsDuplicatesAndAdmin(t *testing.T) {
	env := setupServiceTest(t)
	if _, err := env.auth.Register("a", "a@example.com", "secret1", constants.RoleUser); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := env.auth.Register("a", "A@example.com", "secret1", constants.RoleUser); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if _, err := env.auth.Register("b", "b@example.com", "secret1", constants.RoleAdmin); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := env.auth.Register("c", "c@example.com", "123", constants.RoleUser); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := env.auth.Register("d", "not-an-email", "secret1", constants.RoleUser); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupServiceTest(t)
	if _, err := env.auth.Register("u", "u@example.com", "secret1", constants.RoleUser); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, token, _, err := env.auth.Login("u@example.com", "secret1", constants.RoleUser)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := env.auth.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ctx := context.Background()
	if _, err := env.auth.ResolveAuthState(ctx, claims); err != nil {
		t.Fatalf("expected fresh token valid, got %v", err)
	}
	if err := env.auth.Logout(ctx, claims.UserID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := env.auth.ResolveAuthState(ctx, claims); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestBlockedUserCannotLogin(t *testing.T) {
	env := setupServiceTest(t)
	user, err := env.auth.Register("u", "blocked@example.com", "secret1", constants.RoleUser)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := env.users.SetBlocked(context.Background(), user.ID, true); err != nil {
		t.Fatalf("block failed: %v", err)
	}
	if _, _, _, err := env.auth.Login("blocked@example.com", "secret1", constants.RoleUser); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestCartAddAccumulatesAndChecksStock(t *testing.T) {
	env := setupServiceTest(t)
	lamp := env.product(t, "Lamp", 25, 3)

	cart, err := env.cart.Add(1, lamp, 2)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if cart.TotalQuantity != 2 || len(cart.Lines) != 1 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	line := cart.Lines[0]
	if line.ProductID != lamp || line.Product.ID != lamp || line.Product.Title != "Lamp" {
		t.Fatalf("unexpected line: %+v", line)
	}
	if !line.UnitPriceSnapshot.Equal(models.NewMoneyFromDecimal(decimal.NewFromInt(25))) {
		t.Fatalf("unexpected unit price: %s", line.UnitPriceSnapshot)
	}
	if !cart.TotalPrice.Equal(models.NewMoneyFromDecimal(decimal.NewFromInt(50))) {
		t.Fatalf("unexpected cart total: %s", cart.TotalPrice)
	}

	_, err = env.cart.Add(1, lamp, 2)
	var stockErr *StockError
	if !errors.As(err, &stockErr) || !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected stock error, got %v", err)
	}
	if stockErr.Error() != "Only 3 left in stock" {
		t.Fatalf("unexpected stock message: %s", stockErr.Error())
	}

	cart, err = env.cart.Get(1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cart.TotalQuantity != 2 {
		t.Fatalf("expected rejected add to leave cart unchanged, got %d", cart.TotalQuantity)
	}
}

func TestCartUpdateRemoveClear(t *testing.T) {
	env := setupServiceTest(t)
	a := env.product(t, "A", 10, 10)
	b := env.product(t, "B", 20, 10)

	if _, err := env.cart.Add(7, a, 1); err != nil {
		t.Fatalf("add a failed: %v", err)
	}
	if _, err := env.cart.Add(7, b, 1); err != nil {
		t.Fatalf("add b failed: %v", err)
	}
	cart, err := env.cart.Update(7, a, 5)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if cart.TotalQuantity != 6 || cart.Lines[0].ProductID != a || cart.Lines[0].Quantity != 5 {
		t.Fatalf("unexpected cart after update: %+v", cart)
	}
	if _, err := env.cart.Update(7, a, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	cart, err = env.cart.Remove(7, a)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].ProductID != b {
		t.Fatalf("unexpected cart after remove: %+v", cart)
	}

	cart, err = env.cart.Clear(7)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if len(cart.Lines) != 0 || cart.TotalQuantity != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
}

func TestCartUnknownProduct(t *testing.T) {
	env := setupServiceTest(t)
	if _, err := env.cart.Add(1, "999", 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if _, err := env.cart.Add(1, "abc", 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for bad id, got %v", err)
	}
}

func TestCartDropsDeactivatedProducts(t *testing.T) {
	env := setupServiceTest(t)
	a := env.product(t, "A", 10, 10)
	if _, err := env.cart.Add(1, a, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := env.products.Deactivate(a); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	cart, err := env.cart.Get(1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected deactivated product dropped, got %+v", cart)
	}
}

func TestWishlistAddRemove(t *testing.T) {
	env := setupServiceTest(t)
	a := env.product(t, "A", 10, 10)

	list, err := env.wishlist.Add(2, a)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != a {
		t.Fatalf("unexpected wishlist: %+v", list)
	}
	if _, err := env.wishlist.Add(2, "404"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	list, err = env.wishlist.Remove(2, a)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty wishlist, got %+v", list)
	}
}

func TestSellerProductNeedsVerification(t *testing.T) {
	env := setupServiceTest(t)
	product, err := env.products.Create(CreateProductInput{SellerID: 9, Title: "Mug", Stock: 1})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if product.IsVerified {
		t.Fatalf("expected seller product unverified")
	}
	verified, err := env.products.SetVerified(strconv.FormatUint(uint64(product.ID), 10), true)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !verified.IsVerified {
		t.Fatalf("expected verified product")
	}
	mine, total, err := env.products.ListBySeller(9, 1, 20)
	if err != nil || total != 1 || len(mine) != 1 {
		t.Fatalf("unexpected seller list: %d %v", total, err)
	}
	if _, err := env.products.Create(CreateProductInput{Title: "  "}); !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("expected ErrProductInvalid, got %v", err)
	}
}

func sampleShipping() models.ShippingAddress {
	return models.ShippingAddress{Address: "1 Main St", City: "Pune", Zip: "411001"}
}

func TestPlaceOrderFromCart(t *testing.T) {
	env := setupServiceTest(t)
	lamp := env.product(t, "Lamp", 25, 3)
	desk := env.product(t, "Desk", 300, 5)
	if _, err := env.cart.Add(1, lamp, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := env.cart.Add(1, desk, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	order, err := env.orders.PlaceFromCart(PlaceOrderInput{UserID: 1, Shipping: sampleShipping()})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	view := OrderView(order)
	want := map[string]string{"items": "350.00", "shipping": "50.00", "tax": "35.00", "total": "435.00"}
	got := map[string]string{
		"items":    view.ItemsPrice.String(),
		"shipping": view.ShippingPrice.String(),
		"tax":      view.TaxPrice.String(),
		"total":    view.TotalPrice.String(),
	}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("%s: want %s got %s", key, value, got[key])
		}
	}
	if view.PaymentMethod != constants.PaymentMethodCOD || view.IsPaid || view.Quantity() != 3 || len(view.Lines) != 2 {
		t.Fatalf("unexpected order view %+v", view)
	}

	cart, _ := env.cart.Get(1)
	if len(cart.Lines) != 0 {
		t.Fatalf("cart should be cleared after order, got %+v", cart)
	}
	product, _ := env.products.GetPublic(lamp)
	if product.Stock != 1 {
		t.Fatalf("stock should be decremented, got %d", product.Stock)
	}
}

func TestPlaceOrderFreeShippingAboveThreshold(t *testing.T) {
	env := setupServiceTest(t)
	sofa := env.product(t, "Sofa", 1200, 2)
	if _, err := env.cart.Add(1, sofa, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	order, err := env.orders.PlaceFromCart(PlaceOrderInput{UserID: 1, Shipping: sampleShipping(), PaymentMethod: "cod"})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if order.ShippingAmount.String() != "0.00" || order.TotalAmount.String() != "1320.00" {
		t.Fatalf("unexpected amounts shipping=%s total=%s", order.ShippingAmount, order.TotalAmount)
	}
}

func TestPlaceOrderRejections(t *testing.T) {
	env := setupServiceTest(t)
	if _, err := env.orders.PlaceFromCart(PlaceOrderInput{UserID: 1, Shipping: sampleShipping()}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
	lamp := env.product(t, "Lamp", 25, 3)
	if _, err := env.cart.Add(1, lamp, 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := env.orders.PlaceFromCart(PlaceOrderInput{UserID: 1, Shipping: models.ShippingAddress{City: "Pune"}}); !errors.Is(err, ErrShippingAddressRequired) {
		t.Fatalf("expected ErrShippingAddressRequired, got %v", err)
	}
	if _, err := env.orders.PlaceFromCart(PlaceOrderInput{UserID: 1, Shipping: sampleShipping(), PaymentMethod: "Stripe"}); !errors.Is(err, ErrPaymentMethodUnsupported) {
		t.Fatalf("expected ErrPaymentMethodUnsupported, got %v", err)
	}

	// 其它买家先买走库存后，下单整体回滚
	if _, err := env.cart.Add(2, lamp, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := env.orders.PlaceFromCart(PlaceOrderInput{UserID: 2, Shipping: sampleShipping()}); err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	_, err := env.orders.PlaceFromCart(PlaceOrderInput{UserID: 1, Shipping: sampleShipping()})
	var stockErr *StockError
	if !errors.As(err, &stockErr) || stockErr.Available != 2 {
		t.Fatalf("expected stock error with 2 left, got %v", err)
	}
	cart, _ := env.cart.Get(1)
	if cart.TotalQuantity != 3 {
		t.Fatalf("failed order should keep cart, got %+v", cart)
	}
}

func TestListAndCancelOrders(t *testing.T) {
	env := setupServiceTest(t)
	lamp := env.product(t, "Lamp", 25, 3)
	if _, err := env.cart.Add(1, lamp, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	order, err := env.orders.PlaceFromCart(PlaceOrderInput{UserID: 1, Shipping: sampleShipping()})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}

	if _, err := env.orders.ListForUser(2, constants.RoleUser, "1"); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("expected ErrOrderForbidden, got %v", err)
	}
	if orders, err := env.orders.ListForUser(9, constants.RoleAdmin, "1"); err != nil || len(orders) != 1 {
		t.Fatalf("admin should see orders, got %d err=%v", len(orders), err)
	}
	orders, err := env.orders.ListForUser(1, constants.RoleUser, "1")
	if err != nil || len(orders) != 1 || orders[0].ID != order.ID {
		t.Fatalf("unexpected own orders %+v err=%v", orders, err)
	}

	orderID := strconv.FormatUint(uint64(order.ID), 10)
	if err := env.orders.Cancel(2, orderID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other user cancel want ErrOrderNotFound, got %v", err)
	}
	if err := env.orders.Cancel(1, orderID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if orders, _ := env.orders.ListForUser(1, constants.RoleUser, "1"); len(orders) != 0 {
		t.Fatalf("cancelled order should disappear, got %d", len(orders))
	}
	product, _ := env.products.GetPublic(lamp)
	if product.Stock != 3 {
		t.Fatalf("stock should be restored, got %d", product.Stock)
	}
}

func TestCancelDeliveredOrderRefused(t *testing.T) {
	env := setupServiceTest(t)
	lamp := env.product(t, "Lamp", 25, 3)
	if _, err := env.cart.Add(1, lamp, 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	order, err := env.orders.PlaceFromCart(PlaceOrderInput{UserID: 1, Shipping: sampleShipping()})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if err := env.db.Model(order).Update("is_delivered", true).Error; err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}
	if err := env.orders.Cancel(1, strconv.FormatUint(uint64(order.ID), 10)); !errors.Is(err, ErrOrderCancelNotAllowed) {
		t.Fatalf("expected ErrOrderCancelNotAllowed, got %v", err)
	}
}

func TestBecomeSellerReissuesToken(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	user, err := env.auth.Register("u", "u@example.com", "secret1", constants.RoleUser)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, oldToken, _, err := env.auth.Login("u@example.com", "secret1", constants.RoleUser)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	upgraded, token, _, err := env.auth.BecomeSeller(ctx, user.ID)
	if err != nil {
		t.Fatalf("become seller failed: %v", err)
	}
	if upgraded.Role != constants.RoleSeller {
		t.Fatalf("expected seller role, got %s", upgraded.Role)
	}
	claims, err := env.auth.ParseJWT(token)
	if err != nil || claims.Role != constants.RoleSeller {
		t.Fatalf("new token should carry seller role: %+v err=%v", claims, err)
	}
	if _, err := env.auth.ResolveAuthState(ctx, claims); err != nil {
		t.Fatalf("new token should be valid, got %v", err)
	}
	oldClaims, _ := env.auth.ParseJWT(oldToken)
	if _, err := env.auth.ResolveAuthState(ctx, oldClaims); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("old token should be revoked, got %v", err)
	}

	if _, err := env.auth.Register("a", "seller2@example.com", "secret1", constants.RoleSeller); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	admin := &models.User{Email: "root@example.com", Name: "root", Role: constants.RoleAdmin, Status: constants.UserStatusActive}
	if err := env.db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if _, _, _, err := env.auth.BecomeSeller(ctx, admin.ID); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("admin should not be downgraded, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	user, err := env.auth.Register("u", "u@example.com", "secret1", constants.RoleUser)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := env.auth.Register("other", "taken@example.com", "secret1", constants.RoleUser); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := env.auth.UpdateProfile(ctx, user.ID, "", "Taken@example.com", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if _, err := env.auth.UpdateProfile(ctx, user.ID, "", "", "123"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	updated, err := env.auth.UpdateProfile(ctx, user.ID, "  Renamed ", "New@Example.com", "secret2")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Renamed" || updated.Email != "new@example.com" {
		t.Fatalf("unexpected profile %+v", updated)
	}
	if _, _, _, err := env.auth.Login("new@example.com", "secret2", constants.RoleUser); err != nil {
		t.Fatalf("login with new credentials failed: %v", err)
	}
}
