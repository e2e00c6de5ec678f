package main

import (
	"github.com/dujiao-next/storefront/internal/config"
	"github.com/dujiao-next/storefront/internal/constants"
	"github.com/dujiao-next/storefront/internal/logger"
	"github.com/dujiao-next/storefront/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "password123"

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(nil); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to create default admin: %v", err)
	}

	// 添加演示账号
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash password: %v", err)
	}
	accounts := []models.User{
		{Email: "buyer@example.com", Name: "Demo Buyer", Role: constants.RoleUser},
		{Email: "seller@example.com", Name: "Demo Seller", Role: constants.RoleSeller},
	}
	sellerID := uint(0)
	for _, account := range accounts {
		var existing models.User
		if err := models.DB.Where("email = ?", account.Email).First(&existing).Error; err == nil {
			stdLog.Printf("User already exists: %s", account.Email)
			if existing.Role == constants.RoleSeller {
				sellerID = existing.ID
			}
			continue
		}
		account.PasswordHash = string(hash)
		account.Status = constants.UserStatusActive
		if err := models.DB.Create(&account).Error; err != nil {
			stdLog.Printf("Failed to create user %s: %v", account.Email, err)
			continue
		}
		if account.Role == constants.RoleSeller {
			sellerID = account.ID
		}
		stdLog.Printf("Created user: %s / %s", account.Email, demoPassword)
	}

	// 添加商品
	products := []models.Product{
		{
			Title:       "Wireless Bluetooth Earphones",
			Description: "High quality sound, long battery life, comfortable to wear",
			Category:    "electronics",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(99.99)),
			ImageURL:    "https://images.unsplash.com/photo-1590658268037-6bf12165a8df?w=800",
			Stock:       50,
		},
		{
			Title:       "Smart Watch",
			Description: "Health monitoring, fitness tracking, message notifications",
			Category:    "electronics",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(199.99)),
			ImageURL:    "https://images.unsplash.com/photo-1579586337278-3befd40fd17a?w=800",
			Stock:       20,
		},
		{
			Title:       "Portable Power Bank",
			Description: "High capacity, fast charging, multi-device compatible",
			Category:    "accessories",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(49.99)),
			ImageURL:    "https://images.unsplash.com/photo-1609091839311-d5365f9ff1c5?w=800",
			Stock:       100,
		},
		{
			Title:       "Multi-function Backpack",
			Description: "Large capacity, waterproof and anti-theft, USB charging port",
			Category:    "lifestyle",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(79.99)),
			ImageURL:    "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=800",
			Stock:       30,
		},
		{
			Title:       "Demo Product - Low Stock",
			Description: "Only a few left, handy for trying the out-of-stock message.",
			Category:    "accessories",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(39.90)),
			ImageURL:    "https://images.unsplash.com/photo-1512499617640-c74ae3a79d37?w=800",
			Stock:       2,
		},
	}
	for i := range products {
		products[i].IsActive = true
		products[i].IsVerified = true
	}
	if sellerID != 0 {
		// 卖家商品默认待审核
		products = append(products, models.Product{
			SellerID:    sellerID,
			Title:       "Handmade Ceramic Mug",
			Description: "Listed by the demo seller, waiting for admin verification.",
			Category:    "lifestyle",
			PriceAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(18.50)),
			Stock:       12,
			IsActive:    true,
		})
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("title = ?", product.Title).First(&existing).Error; err == nil {
			stdLog.Printf("Product already exists: %s", product.Title)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Title, err)
			continue
		}
		stdLog.Printf("Created product #%d: %s", product.ID, product.Title)
	}

	stdLog.Println("Seed completed")
}
