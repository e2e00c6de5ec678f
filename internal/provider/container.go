package provider

import (
	"github.com/dujiao-next/storefront/internal/authz"
	"github.com/dujiao-next/storefront/internal/cache"
	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/models"
	"github.com/dujiao-next/storefront/internal/repository"
	"github.com/dujiao-next/storefront/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config *config.Config
	DB     *gorm.DB

	// Repositories
	UserRepo     repository.UserRepository
	ProductRepo  repository.ProductRepository
	CartRepo     repository.CartRepository
	WishlistRepo repository.WishlistRepository
	OrderRepo    repository.OrderRepository

	// Services
	AuthzService    *authz.Service
	AuthService     *service.AuthService
	UserService     *service.UserService
	ProductService  *service.ProductService
	CartService     *service.CartService
	WishlistService *service.WishlistService
	OrderService    *service.OrderService
}

// NewContainer 使用全局数据库初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	c, err := NewContainerWithDB(cfg, models.DB)
	if err != nil {
		logger.Errorw("provider_init_failed", "error", err)
		panic(err)
	}
	return c
}

// NewContainerWithDB 使用指定数据库初始化容器（测试复用）
func NewContainerWithDB(cfg *config.Config, db *gorm.DB) (*Container, error) {
	c := &Container{
		Config: cfg,
		DB:     db,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	c.UserRepo = repository.NewUserRepository(c.DB)
	c.ProductRepo = repository.NewProductRepository(c.DB)
	c.CartRepo = repository.NewCartRepository(c.DB)
	c.WishlistRepo = repository.NewWishlistRepository(c.DB)
	c.OrderRepo = repository.NewOrderRepository(c.DB)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		return err
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		return err
	}

	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.UserService = service.NewUserService(c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.WishlistService = service.NewWishlistService(c.WishlistRepo, c.ProductRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.CartRepo, c.ProductRepo)
	return nil
}
