package public

import (
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/gin-gonic/gin"
)

// WishlistRequest 心愿单请求
type WishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// GetWishlist 获取心愿单
func (h *Handler) GetWishlist(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.WishlistService.List(uid)
	respondWishlist(c, items, err)
}

// AddWishlistItem 加入心愿单
func (h *Handler) AddWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Product id is required", nil)
		return
	}
	items, err := h.WishlistService.Add(uid, req.ProductID)
	respondWishlist(c, items, err)
}

// RemoveWishlistItem 移出心愿单
func (h *Handler) RemoveWishlistItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.WishlistService.Remove(uid, c.Param("productId"))
	respondWishlist(c, items, err)
}

func respondWishlist(c *gin.Context, items []models.ProductSummary, err error) {
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, "Wishlist operation failed")
		return
	}
	if items == nil {
		items = []models.ProductSummary{}
	}
	response.Success(c, items)
}
