package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	SellerID    uint           `gorm:"index" json:"seller_id"`                                    // 卖家ID（0 表示平台自营）
	Title       string         `gorm:"not null" json:"title"`                                     // 标题
	Description string         `gorm:"type:text" json:"description"`                              // 描述
	Category    string         `gorm:"index" json:"category"`                                     // 分类
	PriceAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"` // 价格金额
	ImageURL    string         `json:"image_url"`                                                 // 主图
	Stock       int            `gorm:"not null;default:0" json:"stock"`                           // 可售库存
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`                       // 是否上架
	IsVerified  bool           `gorm:"default:false" json:"is_verified"`                          // 是否通过审核
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
