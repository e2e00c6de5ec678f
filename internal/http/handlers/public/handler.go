package public

import "github.com/dujiao-next/storefront/internal/provider"

// Handler 前台/公开接口处理器入口
// 说明：该处理器用于游客、买家侧 API（登录、商品、购物车、心愿单）。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
