package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password too short")
	ErrEmailExists        = errors.New("email already registered")
	ErrUserDisabled       = errors.New("user disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductInvalid      = errors.New("invalid product")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrProductNotAvailable = errors.New("product not available")

	ErrCartEmpty                = errors.New("cart is empty")
	ErrShippingAddressRequired  = errors.New("shipping address required")
	ErrPaymentMethodUnsupported = errors.New("payment method unsupported")
	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderForbidden           = errors.New("order access forbidden")
	ErrOrderCancelNotAllowed    = errors.New("order cannot be cancelled")
)

// StockError 库存不足错误，携带剩余可售数量
type StockError struct {
	Available int
}

func (e *StockError) Error() string {
	if e.Available <= 0 {
		return "Out of stock"
	}
	return fmt.Sprintf("Only %d left in stock", e.Available)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
