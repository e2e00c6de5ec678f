package public

import (
	"strconv"

	handlershared "github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductResponse 商品详情响应
type ProductResponse struct {
	models.ProductSummary
	Description string `json:"description"`
	Category    string `json:"category"`
	SellerID    string `json:"sellerId,omitempty"`
	IsVerified  bool   `json:"isVerified"`
}

// ToProductResponse 转换商品响应
func ToProductResponse(product *models.Product) ProductResponse {
	resp := ProductResponse{
		ProductSummary: service.ProductSummary(product),
		Description:    product.Description,
		Category:       product.Category,
		IsVerified:     product.IsVerified,
	}
	if product.SellerID > 0 {
		resp.SellerID = strconv.FormatUint(uint64(product.SellerID), 10)
	}
	return resp
}

// ToProductResponses 批量转换商品响应
func ToProductResponses(products []models.Product) []ProductResponse {
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i]))
	}
	return items
}

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListPublic(c.Query("category"), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "Failed to load products", err)
		return
	}
	response.SuccessWithPage(c, ToProductResponses(products), response.NewPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.ProductService.GetPublic(c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, "Failed to load product")
		return
	}
	response.Success(c, ToProductResponse(product))
}
