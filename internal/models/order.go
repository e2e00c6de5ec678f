package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID          uint           `gorm:"index;not null" json:"user_id"`                                // 下单用户ID
	Status          string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	PaymentMethod   string         `gorm:"type:varchar(32);not null" json:"payment_method"`              // 支付方式
	IsPaid          bool           `gorm:"default:false" json:"is_paid"`                                 // 是否已支付
	IsDelivered     bool           `gorm:"default:false;index" json:"is_delivered"`                      // 是否已送达
	ShippingAddress string         `gorm:"type:varchar(255)" json:"shipping_address"`                    // 收货地址
	ShippingCity    string         `gorm:"type:varchar(100)" json:"shipping_city"`                       // 城市
	ShippingZip     string         `gorm:"type:varchar(32)" json:"shipping_zip"`                         // 邮编
	ItemsAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"items_amount"`    // 商品金额
	ShippingAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_amount"` // 运费
	TaxAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`      // 税费
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 应付金额
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                                         // 支付时间
	DeliveredAt     *time.Time     `gorm:"index" json:"delivered_at"`                                    // 送达时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单项表，商品信息为下单时快照
type OrderItem struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                      // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`                            // 订单ID
	ProductID  uint      `gorm:"index;not null" json:"product_id"`                          // 商品ID
	Title      string    `gorm:"not null" json:"title"`                                     // 商品标题快照
	ImageURL   string    `json:"image_url"`                                                 // 商品图片快照
	UnitPrice  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`   // 单价
	Quantity   int       `gorm:"not null" json:"quantity"`                                  // 数量
	TotalPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                   // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
