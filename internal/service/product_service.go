package service

import (
	"strconv"
	"strings"

	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/repository"
)

// ProductService 商品业务服务
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	SellerID    uint
	Title       string
	Description string
	Category    string
	Price       models.Money
	ImageURL    string
	Stock       int
}

// ListPublic 获取公开商品列表
func (s *ProductService) ListPublic(category, search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   category,
		Search:     search,
		OnlyActive: true,
	})
}

// GetPublic 获取公开商品详情
func (s *ProductService) GetPublic(id string) (*models.Product, error) {
	productID, err := ParseProductID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表（含下架商品）
func (s *ProductService) ListAdmin(search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.repo.List(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	})
}

// ListBySeller 获取卖家自己的商品
func (s *ProductService) ListBySeller(sellerID uint, page, pageSize int) ([]models.Product, int64, error) {
	if sellerID == 0 {
		return []models.Product{}, 0, nil
	}
	return s.repo.List(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: sellerID,
	})
}

// Create 创建商品，卖家提交的商品需要管理员审核
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Stock < 0 || input.Price.IsNegative() {
		return nil, ErrProductInvalid
	}
	product := &models.Product{
		SellerID:    input.SellerID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		PriceAmount: input.Price,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Stock:       input.Stock,
		IsActive:    true,
		IsVerified:  input.SellerID == 0,
	}
	if err := s.repo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// SetVerified 审核商品
func (s *ProductService) SetVerified(id string, verified bool) (*models.Product, error) {
	product, err := s.getAny(id)
	if err != nil {
		return nil, err
	}
	product.IsVerified = verified
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Deactivate 下架商品（购物车与心愿单读取时会剔除下架商品）
func (s *ProductService) Deactivate(id string) error {
	product, err := s.getAny(id)
	if err != nil {
		return err
	}
	product.IsActive = false
	return s.repo.Update(product)
}

func (s *ProductService) getAny(id string) (*models.Product, error) {
	productID, err := ParseProductID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ParseProductID 解析商品 ID（客户端以字符串传递）
func ParseProductID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrProductNotFound
	}
	return uint(id), nil
}

// ProductSummary 转换为客户端商品摘要
func ProductSummary(product *models.Product) models.ProductSummary {
	if product == nil {
		return models.ProductSummary{}
	}
	return models.ProductSummary{
		ID:       strconv.FormatUint(uint64(product.ID), 10),
		Title:    product.Title,
		Price:    product.PriceAmount,
		ImageURL: product.ImageURL,
		Stock:    product.Stock,
	}
}
