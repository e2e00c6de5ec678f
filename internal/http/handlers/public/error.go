package public

import (
	"errors"

	handlershared "github.com/dujiao-next/storefront/internal/http/handlers/shared"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	// 库存不足时直接返回带剩余数量的提示，客户端原样展示
	var stockErr *service.StockError
	if errors.As(err, &stockErr) {
		respondError(c, response.CodeConflict, stockErr.Error(), nil)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, response.CodeInternal, fallbackMsg, err)
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, msg: "Quantity must be at least 1"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "Product not found"},
	{target: service.ErrProductNotAvailable, code: response.CodeConflict, msg: "Product is not available"},
	{target: service.ErrUserNotFound, code: response.CodeUnauthorized, msg: "Unauthorized"},
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, msg: "Invalid email or password"},
	{target: service.ErrUserDisabled, code: response.CodeForbidden, msg: "Account is blocked"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "Invalid email"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "Password must be at least 6 characters"},
	{target: service.ErrEmailExists, code: response.CodeConflict, msg: "Email already registered"},
	{target: service.ErrInvalidRole, code: response.CodeBadRequest, msg: "Invalid role"},
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "Your cart is empty"},
	{target: service.ErrShippingAddressRequired, code: response.CodeBadRequest, msg: "Please fill in all address fields"},
	{target: service.ErrPaymentMethodUnsupported, code: response.CodeBadRequest, msg: "Payment method not supported"},
	{target: service.ErrProductNotAvailable, code: response.CodeConflict, msg: "Product is not available"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "Order not found"},
	{target: service.ErrOrderForbidden, code: response.CodeForbidden, msg: "Not allowed to view these orders"},
	{target: service.ErrOrderCancelNotAllowed, code: response.CodeConflict, msg: "Delivered orders cannot be cancelled"},
	{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "User not found"},
}

var profileErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "Invalid email"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, msg: "Password must be at least 6 characters"},
	{target: service.ErrEmailExists, code: response.CodeConflict, msg: "Email already registered"},
	{target: service.ErrInvalidRole, code: response.CodeConflict, msg: "Admins cannot become sellers"},
	{target: service.ErrUserNotFound, code: response.CodeUnauthorized, msg: "Unauthorized"},
}
