package cache

import (
	"context"
	"testing"

	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/models"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init redis failed: %v", err)
	}
	if Enabled() {
		t.Fatalf("expected cache disabled")
	}
	ctx := context.Background()
	if err := SetUserAuthState(ctx, &UserAuthState{UserID: 1}); err != nil {
		t.Fatalf("set on disabled cache should be noop, got %v", err)
	}
	state, hit, err := GetUserAuthState(ctx, 1)
	if err != nil || hit || state != nil {
		t.Fatalf("expected miss on disabled cache, got %+v %v %v", state, hit, err)
	}
}

func TestBuildUserAuthStateNormalizesRole(t *testing.T) {
	state := BuildUserAuthState(&models.User{ID: 3, Role: "Seller", Status: "active", TokenVersion: 2})
	if state.Role != "seller" || state.TokenVersion != 2 || state.UserID != 3 {
		t.Fatalf("unexpected state: %+v", state)
	}
	if BuildUserAuthState(nil) != nil {
		t.Fatalf("expected nil state for nil user")
	}
}
