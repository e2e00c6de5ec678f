package service

import (
	"strconv"
	"time"

	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/repository"

	"gorm.io/gorm"
)

// CartService 购物车服务，所有写操作返回写入后的完整购物车
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// Get 获取用户购物车
func (s *CartService) Get(userID uint) (models.Cart, error) {
	if userID == 0 {
		return models.Cart{}, ErrUserNotFound
	}
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return models.Cart{}, err
	}
	cart := models.Cart{Lines: make([]models.CartLine, 0, len(items))}
	for _, item := range items {
		product := item.Product
		if product == nil || product.ID == 0 || !product.IsActive {
			_ = s.cartRepo.DeleteByUserAndProduct(userID, item.ProductID)
			continue
		}
		cart.Lines = append(cart.Lines, models.CartLine{
			ProductID:         strconv.FormatUint(uint64(item.ProductID), 10),
			Quantity:          item.Quantity,
			UnitPriceSnapshot: product.PriceAmount,
			Product:           ProductSummary(product),
		})
		cart.TotalQuantity += item.Quantity
		cart.TotalPrice = models.NewMoneyFromDecimal(cart.TotalPrice.Decimal.Add(product.PriceAmount.MulInt(item.Quantity).Decimal))
	}
	return cart, nil
}

// Add 加入购物车，已有的行累加数量
func (s *CartService) Add(userID uint, productID string, quantity int) (models.Cart, error) {
	return s.write(userID, productID, quantity, true)
}

// Update 设置购物车行数量
func (s *CartService) Update(userID uint, productID string, quantity int) (models.Cart, error) {
	return s.write(userID, productID, quantity, false)
}

// Remove 删除购物车行
func (s *CartService) Remove(userID uint, productID string) (models.Cart, error) {
	id, err := ParseProductID(productID)
	if err != nil {
		return models.Cart{}, err
	}
	if err := s.cartRepo.DeleteByUserAndProduct(userID, id); err != nil {
		return models.Cart{}, err
	}
	return s.Get(userID)
}

// Clear 清空购物车
func (s *CartService) Clear(userID uint) (models.Cart, error) {
	if err := s.cartRepo.ClearByUser(userID); err != nil {
		return models.Cart{}, err
	}
	return s.Get(userID)
}

func (s *CartService) write(userID uint, productID string, quantity int, accumulate bool) (models.Cart, error) {
	if userID == 0 {
		return models.Cart{}, ErrUserNotFound
	}
	if quantity < 1 {
		return models.Cart{}, ErrInvalidQuantity
	}
	id, err := ParseProductID(productID)
	if err != nil {
		return models.Cart{}, err
	}

	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		product, err := s.productRepo.WithTx(tx).GetByID(id)
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive {
			return ErrProductNotFound
		}
		cartRepo := s.cartRepo.WithTx(tx)
		target := quantity
		if accumulate {
			existing, err := cartRepo.GetByUserAndProduct(userID, id)
			if err != nil {
				return err
			}
			if existing != nil {
				target += existing.Quantity
			}
		}
		if target > product.Stock {
			return &StockError{Available: product.Stock}
		}
		now := time.Now()
		return cartRepo.Upsert(&models.CartItem{
			UserID:    userID,
			ProductID: id,
			Quantity:  target,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return models.Cart{}, err
	}
	return s.Get(userID)
}
