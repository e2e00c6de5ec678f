// Package theme 持久化界面主题偏好（light / dark）。
package theme

import (
	"context"
	"strings"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/storage"
)

// Preference 主题偏好
type Preference struct {
	store storage.Store
}

// New 创建主题偏好
func New(store storage.Store) *Preference {
	return &Preference{store: store}
}

// Current 当前主题，未设置或非法值视为 light
func (p *Preference) Current(ctx context.Context) string {
	raw, ok, err := p.store.Get(ctx, constants.StorageKeyTheme)
	if err != nil || !ok {
		return constants.ThemeLight
	}
	return normalize(raw)
}

// Set 保存主题
func (p *Preference) Set(ctx context.Context, value string) (string, error) {
	next := normalize(value)
	if err := p.store.Set(ctx, constants.StorageKeyTheme, next); err != nil {
		return "", err
	}
	return next, nil
}

// Toggle 切换主题并返回新值
func (p *Preference) Toggle(ctx context.Context) (string, error) {
	if p.Current(ctx) == constants.ThemeDark {
		return p.Set(ctx, constants.ThemeLight)
	}
	return p.Set(ctx, constants.ThemeDark)
}

func normalize(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), constants.ThemeDark) {
		return constants.ThemeDark
	}
	return constants.ThemeLight
}
