package seller

import (
	"errors"
	"strconv"

	handlershared "github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/handlers/public"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/provider"
	"github.com/dujiao-next/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler 卖家接口处理器
type Handler struct {
	*provider.Container
}

// New 创建卖家处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

// CreateProductRequest 卖家上架商品请求
type CreateProductRequest struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Price       models.Money `json:"price"`
	ImageURL    string       `json:"imageUrl"`
	Stock       int          `json:"stock"`
}

// GetProducts 卖家自己的商品
func (h *Handler) GetProducts(c *gin.Context) {
	sellerID, ok := handlershared.GetContextUint(c, "user_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListBySeller(sellerID, page, pageSize)
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "Failed to load products", err)
		return
	}
	response.SuccessWithPage(c, public.ToProductResponses(products), response.NewPagination(page, pageSize, total))
}

// CreateProduct 卖家上架商品（需管理员审核）
func (h *Handler) CreateProduct(c *gin.Context) {
	sellerID, ok := handlershared.GetContextUint(c, "user_id")
	if !ok {
		return
	}
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "Title is required", nil)
		return
	}
	product, err := h.ProductService.Create(service.CreateProductInput{
		SellerID:    sellerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	})
	if err != nil {
		if errors.Is(err, service.ErrProductInvalid) {
			handlershared.RespondError(c, response.CodeBadRequest, "Invalid product", nil)
			return
		}
		handlershared.RespondError(c, response.CodeInternal, "Failed to create product", err)
		return
	}
	handlershared.RequestLog(c).Infow("seller_product_created", "seller_id", sellerID, "product_id", product.ID)
	response.Success(c, public.ToProductResponse(product))
}
