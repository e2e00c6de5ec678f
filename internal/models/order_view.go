package models

import "time"

// ShippingAddress 收货地址
type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// OrderLine 订单行，商品信息为下单时快照
type OrderLine struct {
	Product  ProductSummary `json:"product"`
	Quantity int            `json:"quantity"`
}

// OrderView 客户端订单视图
type OrderView struct {
	ID              string          `json:"_id"`
	OrderNo         string          `json:"orderNo"`
	Lines           []OrderLine     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	IsPaid          bool            `json:"isPaid"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	ItemsPrice      Money           `json:"itemsPrice"`
	ShippingPrice   Money           `json:"shippingPrice"`
	TaxPrice        Money           `json:"taxPrice"`
	TotalPrice      Money           `json:"totalPrice"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Quantity 订单商品总数
func (o OrderView) Quantity() int {
	total := 0
	for _, line := range o.Lines {
		total += line.Quantity
	}
	return total
}
