package models

// ProductSummary 购物车行内的商品摘要
type ProductSummary struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Price    Money  `json:"price"`
	ImageURL string `json:"imageUrl,omitempty"`
	Stock    int    `json:"stock"`
}

// CartLine 购物车行
// UnitPriceSnapshot 仅用于乐观展示，权威价格来自服务端响应
type CartLine struct {
	ProductID         string         `json:"productId"`
	Quantity          int            `json:"quantity"`
	UnitPriceSnapshot Money          `json:"unitPrice"`
	Product           ProductSummary `json:"product"`
}

// Cart 服务端确认的购物车
// TotalPrice 由服务端按当前价格计算，缺省时为 0
type Cart struct {
	Lines         []CartLine `json:"cartProducts"`
	TotalQuantity int        `json:"totalQuantity"`
	TotalPrice    Money      `json:"totalPrice"`
}

// Len 行数
func (c *Cart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Lines)
}

// Line 按商品 ID 查找购物车行
func (c *Cart) Line(productID string) (CartLine, bool) {
	if c == nil {
		return CartLine{}, false
	}
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

// Clone 深拷贝
func (c *Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines, TotalQuantity: c.TotalQuantity, TotalPrice: c.TotalPrice}
}

// Normalize 去除数量非正的行，并按商品 ID 去重（保留首次出现的位置）
func (c Cart) Normalize() Cart {
	seen := make(map[string]struct{}, len(c.Lines))
	lines := make([]CartLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.Quantity <= 0 || line.ProductID == "" {
			continue
		}
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		if line.Product.ID == "" {
			line.Product.ID = line.ProductID
		}
		lines = append(lines, line)
	}
	c.Lines = lines
	return c
}

// Equal 比较两个购物车内容
func (c Cart) Equal(other Cart) bool {
	if c.TotalQuantity != other.TotalQuantity || !c.TotalPrice.Equal(other.TotalPrice) || len(c.Lines) != len(other.Lines) {
		return false
	}
	for i := range c.Lines {
		a, b := c.Lines[i], other.Lines[i]
		if a.ProductID != b.ProductID || a.Quantity != b.Quantity || !a.UnitPriceSnapshot.Equal(b.UnitPriceSnapshot) {
			return false
		}
		if a.Product.ID != b.Product.ID || a.Product.Title != b.Product.Title || !a.Product.Price.Equal(b.Product.Price) ||
			a.Product.ImageURL != b.Product.ImageURL || a.Product.Stock != b.Product.Stock {
			return false
		}
	}
	return true
}

// PreviewTotal 根据价格快照计算的展示用合计（不作为权威金额）
func (c Cart) PreviewTotal() Money {
	total := Money{}
	for _, line := range c.Lines {
		price := line.UnitPriceSnapshot
		if price.IsZero() {
			price = line.Product.Price
		}
		total = NewMoneyFromDecimal(total.Decimal.Add(price.MulInt(line.Quantity).Decimal))
	}
	return total
}
