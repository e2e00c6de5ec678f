package service

import (
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/repository"
)

// WishlistService 心愿单服务
type WishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
}

// NewWishlistService 创建心愿单服务
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// List 获取心愿单商品
func (s *WishlistService) List(userID uint) ([]models.ProductSummary, error) {
	items, err := s.wishlistRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	products := make([]models.ProductSummary, 0, len(items))
	for _, item := range items {
		if item.Product == nil || !item.Product.IsActive {
			continue
		}
		products = append(products, ProductSummary(item.Product))
	}
	return products, nil
}

// Add 加入心愿单
func (s *WishlistService) Add(userID uint, productID string) ([]models.ProductSummary, error) {
	id, err := ParseProductID(productID)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	if err := s.wishlistRepo.Add(userID, id); err != nil {
		return nil, err
	}
	return s.List(userID)
}

// Remove 移出心愿单
func (s *WishlistService) Remove(userID uint, productID string) ([]models.ProductSummary, error) {
	id, err := ParseProductID(productID)
	if err != nil {
		return nil, err
	}
	if err := s.wishlistRepo.Remove(userID, id); err != nil {
		return nil, err
	}
	return s.List(userID)
}
