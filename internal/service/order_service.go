package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	freeShippingThreshold = decimal.NewFromInt(1000)
	flatShippingFee       = decimal.NewFromInt(50)
	taxRate               = decimal.NewFromFloat(0.1)
)

// OrderService 订单服务：从购物车下单、查询与取消
type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, productRepo repository.ProductRepository) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// PlaceOrderInput 下单输入
type PlaceOrderInput struct {
	UserID        uint
	Shipping      models.ShippingAddress
	PaymentMethod string
}

// PlaceFromCart 按服务端购物车下单：扣减库存、生成订单并清空购物车
func (s *OrderService) PlaceFromCart(input PlaceOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	shipping := models.ShippingAddress{
		Address: strings.TrimSpace(input.Shipping.Address),
		City:    strings.TrimSpace(input.Shipping.City),
		Zip:     strings.TrimSpace(input.Shipping.Zip),
	}
	if shipping.Address == "" || shipping.City == "" || shipping.Zip == "" {
		return nil, ErrShippingAddressRequired
	}
	method := strings.ToUpper(strings.TrimSpace(input.PaymentMethod))
	if method == "" {
		method = constants.PaymentMethodCOD
	}
	if method != constants.PaymentMethodCOD {
		return nil, ErrPaymentMethodUnsupported
	}

	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		items, err := cartRepo.ListByUser(input.UserID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}

		itemsAmount := decimal.Zero
		lines := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			product := item.Product
			if product == nil || product.ID == 0 || !product.IsActive {
				return ErrProductNotAvailable
			}
			ok, err := productRepo.AdjustStock(product.ID, -item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &StockError{Available: product.Stock}
			}
			subtotal := product.PriceAmount.MulInt(item.Quantity)
			itemsAmount = itemsAmount.Add(subtotal.Decimal)
			lines = append(lines, models.OrderItem{
				ProductID:  product.ID,
				Title:      product.Title,
				ImageURL:   product.ImageURL,
				UnitPrice:  product.PriceAmount,
				Quantity:   item.Quantity,
				TotalPrice: subtotal,
			})
		}

		shippingFee := flatShippingFee
		if itemsAmount.GreaterThan(freeShippingThreshold) {
			shippingFee = decimal.Zero
		}
		tax := itemsAmount.Mul(taxRate).Round(2)
		order = &models.Order{
			OrderNo:         generateOrderNo(),
			UserID:          input.UserID,
			Status:          constants.OrderStatusPending,
			PaymentMethod:   method,
			ShippingAddress: shipping.Address,
			ShippingCity:    shipping.City,
			ShippingZip:     shipping.Zip,
			ItemsAmount:     models.NewMoneyFromDecimal(itemsAmount),
			ShippingAmount:  models.NewMoneyFromDecimal(shippingFee),
			TaxAmount:       models.NewMoneyFromDecimal(tax),
			TotalAmount:     models.NewMoneyFromDecimal(itemsAmount.Add(shippingFee).Add(tax)),
			Items:           lines,
		}
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		return cartRepo.ClearByUser(input.UserID)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("order_placed", "order_id", order.ID, "order_no", order.OrderNo, "user_id", order.UserID, "total", order.TotalAmount.String())
	return order, nil
}

// ListForUser 查询 targetID 的订单；只有本人或管理员可以查看
func (s *OrderService) ListForUser(requesterID uint, requesterRole, targetID string) ([]models.Order, error) {
	target, err := strconv.ParseUint(strings.TrimSpace(targetID), 10, 64)
	if err != nil || target == 0 {
		return nil, ErrUserNotFound
	}
	if uint(target) != requesterID && models.NormalizeRole(requesterRole) != constants.RoleAdmin {
		return nil, ErrOrderForbidden
	}
	return s.orderRepo.ListByUser(uint(target))
}

// Cancel 取消本人未送达的订单，库存回补后软删除
func (s *OrderService) Cancel(userID uint, orderID string) error {
	id, err := strconv.ParseUint(strings.TrimSpace(orderID), 10, 64)
	if err != nil || id == 0 {
		return ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(uint(id))
	if err != nil {
		return err
	}
	if order == nil || order.UserID != userID {
		return ErrOrderNotFound
	}
	if order.IsDelivered {
		return ErrOrderCancelNotAllowed
	}
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		for _, item := range order.Items {
			if _, err := productRepo.AdjustStock(item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return s.orderRepo.WithTx(tx).Delete(order.ID)
	})
	if err != nil {
		return err
	}
	logger.Infow("order_cancelled", "order_id", order.ID, "user_id", userID)
	return nil
}

// OrderView 转换为客户端订单视图
func OrderView(order *models.Order) models.OrderView {
	if order == nil {
		return models.OrderView{}
	}
	lines := make([]models.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, models.OrderLine{
			Product: models.ProductSummary{
				ID:       strconv.FormatUint(uint64(item.ProductID), 10),
				Title:    item.Title,
				Price:    item.UnitPrice,
				ImageURL: item.ImageURL,
			},
			Quantity: item.Quantity,
		})
	}
	return models.OrderView{
		ID:      strconv.FormatUint(uint64(order.ID), 10),
		OrderNo: order.OrderNo,
		Lines:   lines,
		ShippingAddress: models.ShippingAddress{
			Address: order.ShippingAddress,
			City:    order.ShippingCity,
			Zip:     order.ShippingZip,
		},
		PaymentMethod: order.PaymentMethod,
		IsPaid:        order.IsPaid,
		IsDelivered:   order.IsDelivered,
		DeliveredAt:   order.DeliveredAt,
		ItemsPrice:    order.ItemsAmount,
		ShippingPrice: order.ShippingAmount,
		TaxPrice:      order.TaxAmount,
		TotalPrice:    order.TotalAmount,
		CreatedAt:     order.CreatedAt,
	}
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("SF%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(strconv.FormatInt(n.Int64(), 10))
	}
	return b.String()
}
