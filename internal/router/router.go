package router

import (
	"sort"
	"strings"

	"github.com/dujiao-next/storefront/internal/authz"
	"github.com/dujiao-next/storefront/internal/cache"
	"github.com/dujiao-next/storefront/internal/config"
	adminhandlers "github.com/dujiao-next/storefront/internal/http/handlers/admin"
	publichandlers "github.com/dujiao-next/storefront/internal/http/handlers/public"
	sellerhandlers "github.com/dujiao-next/storefront/internal/http/handlers/seller"
	"github.com/dujiao-next/storefront/internal/http/response"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/provider"

	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/卖家/后台分组）
	publicHandler := publichandlers.New(c)
	sellerHandler := sellerhandlers.New(c)
	adminHandler := adminhandlers.New(c)
	loginRule := RateLimitRule{
		Prefix:        cache.BuildKey("rate:login"),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "Too many login attempts, retry in %d seconds",
	}
	loginLimiter := RateLimitMiddleware(cache.Client(), loginRule, KeyByIPAndJSONField("email"))

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "Not found")
	})

	api := r.Group(apiPrefix)
	{
		// 登录 / 注册 / 退出
		api.POST("/user/login", loginLimiter, publicHandler.UserLogin)
		api.POST("/seller/login", loginLimiter, publicHandler.SellerLogin)
		api.POST("/admin/login", loginLimiter, publicHandler.AdminLogin)
		api.POST("/user/signup", publicHandler.UserSignup)
		api.POST("/seller/signup", publicHandler.SellerSignup)
		api.POST("/logout", publicHandler.Logout)

		// 公开商品
		api.GET("/products", publicHandler.ListProducts)
		api.GET("/products/:id", publicHandler.GetProduct)

		// 需登录的接口（角色授权见 authz 预置策略）
		authed := api.Group("")
		authed.Use(JWTAuthMiddleware(c.AuthService), RoleRBACMiddleware(c.AuthzService))
		{
			authed.GET("/cart", publicHandler.GetCart)
			authed.POST("/cart/add", publicHandler.AddCartItem)
			authed.PUT("/cart/update", publicHandler.UpdateCartItem)
			authed.DELETE("/cart/remove/:productId", publicHandler.RemoveCartItem)
			authed.DELETE("/cart/clear", publicHandler.ClearCart)

			authed.GET("/wishlist", publicHandler.GetWishlist)
			authed.POST("/wishlist/add", publicHandler.AddWishlistItem)
			authed.DELETE("/wishlist/remove/:productId", publicHandler.RemoveWishlistItem)

			authed.POST("/orders", publicHandler.PlaceOrder)
			authed.GET("/orders/user/:id", publicHandler.GetUserOrders)
			authed.DELETE("/orders/:id", publicHandler.CancelOrder)

			authed.PUT("/user/profile", publicHandler.UpdateProfile)
			authed.POST("/user/become-seller", publicHandler.BecomeSeller)

			authed.GET("/seller/products", sellerHandler.GetProducts)
			authed.POST("/seller/product", sellerHandler.CreateProduct)

			authed.GET("/admin/users", adminHandler.GetUsers)
			authed.PUT("/admin/users/:id/role", adminHandler.UpdateUserRole)
			authed.PUT("/admin/users/:id/block", adminHandler.BlockUser)
			authed.GET("/admin/products", adminHandler.GetProducts)
			authed.DELETE("/admin/products/:id", adminHandler.DeleteProduct)
			authed.PATCH("/admin/verify-product/:id", adminHandler.VerifyProduct)
			authed.GET("/admin/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, apiPrefix+"/admin/") {
			continue
		}
		if item.Path == apiPrefix+"/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
