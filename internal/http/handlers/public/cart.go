package public

import (
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// CartItemRequest 购物车项请求
type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.Get(uid)
	h.respondCart(c, cart, err)
}

// AddCartItem 加入购物车
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Product id is required", nil)
		return
	}
	cart, err := h.CartService.Add(uid, req.ProductID, req.Quantity)
	h.respondCart(c, cart, err)
}

// UpdateCartItem 修改购物车行数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Product id is required", nil)
		return
	}
	cart, err := h.CartService.Update(uid, req.ProductID, req.Quantity)
	h.respondCart(c, cart, err)
}

// RemoveCartItem 删除购物车行
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.Remove(uid, c.Param("productId"))
	h.respondCart(c, cart, err)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.Clear(uid)
	h.respondCart(c, cart, err)
}

func (h *Handler) respondCart(c *gin.Context, cart models.Cart, err error) {
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, "Cart operation failed")
		return
	}
	if cart.Lines == nil {
		cart.Lines = []models.CartLine{}
	}
	response.Success(c, cart)
}
