package admin

import (
	"errors"
	"strconv"

	handlershared "github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/handlers/public"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// VerifyProductRequest 审核请求，未传 verified 时视为通过
type VerifyProductRequest struct {
	Verified *bool `json:"verified"`
}

// GetProducts 后台商品列表（含下架与待审核商品）
func (h *Handler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListAdmin(c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "Failed to load products", err)
		return
	}
	response.SuccessWithPage(c, public.ToProductResponses(products), response.NewPagination(page, pageSize, total))
}

// VerifyProduct 审核商品
func (h *Handler) VerifyProduct(c *gin.Context) {
	var req VerifyProductRequest
	_ = c.ShouldBindJSON(&req)
	verified := true
	if req.Verified != nil {
		verified = *req.Verified
	}
	product, err := h.ProductService.SetVerified(c.Param("id"), verified)
	if err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, public.ToProductResponse(product))
}

// DeleteProduct 下架商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.ProductService.Deactivate(c.Param("id")); err != nil {
		respondProductError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Product removed"})
}

func respondProductError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrProductNotFound) {
		respondError(c, response.CodeNotFound, "Product not found", nil)
		return
	}
	respondError(c, response.CodeInternal, "Product update failed", err)
}
