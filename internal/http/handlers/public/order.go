package public

import (
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// PlaceOrderRequest 下单请求，商品与金额以服务端购物车为准
type PlaceOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

// PlaceOrder 按当前购物车下单
func (h *Handler) PlaceOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Invalid order request", nil)
		return
	}
	order, err := h.OrderService.PlaceFromCart(service.PlaceOrderInput{
		UserID:        uid,
		Shipping:      req.ShippingAddress,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, "Order failed")
		return
	}
	response.Success(c, gin.H{"order": service.OrderView(order)})
}

// GetUserOrders 用户订单列表
func (h *Handler) GetUserOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orders, err := h.OrderService.ListForUser(uid, getUserRole(c), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, "Failed to load orders")
		return
	}
	views := make([]models.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, service.OrderView(&orders[i]))
	}
	response.Success(c, gin.H{"orders": views})
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.OrderService.Cancel(uid, c.Param("id")); err != nil {
		respondWithMappedError(c, err, orderErrorRules, "Failed to cancel order")
		return
	}
	response.Success(c, gin.H{"message": "Order deleted"})
}
