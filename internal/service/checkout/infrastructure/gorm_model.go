// internal/service/checkout/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderModel 对应 orders 表。除 status 外创建后不可变。
// coupon_code 是快照列：即使优惠券之后被删除，
// 历史订单仍然完整（参考 order_items 对商品的做法）。
type OrderModel struct {
	ID                   string          `gorm:"primaryKey;size:36"`
	Email                string          `gorm:"size:255;index;not null"`
	ShippingFullName     string          `gorm:"size:255;not null"`
	ShippingAddress      string          `gorm:"size:512;not null"`
	ShippingCity         string          `gorm:"size:128;not null"`
	ShippingPostalCode   string          `gorm:"size:32"`
	ShippingCountry      string          `gorm:"size:64;not null"`
	ShippingPhone        string          `gorm:"size:32"`
	SubtotalAmount       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountAmount       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status               string          `gorm:"size:16;index;not null"`
	PaymentTransactionID string          `gorm:"size:64;index"`
	CouponID             *uint           `gorm:"index"`
	CouponCode           string          `gorm:"size:64"`
	CreatedAt            time.Time
	UpdatedAt            time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID"`
}

// TableName 指定 GORM 应该使用的表名。
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应 order_items 表，归属且仅归属一个订单。
// product_title/product_price 是提交时刻的快照。
type OrderItemModel struct {
	ID           uint            `gorm:"primaryKey"`
	OrderID      string          `gorm:"size:36;index;not null"`
	ProductID    string          `gorm:"size:64;index;not null"`
	ProductTitle string          `gorm:"size:255;not null"`
	ProductPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity     int             `gorm:"not null"`
	CreatedAt    time.Time
}

// TableName 指定 GORM 应该使用的表名。
func (OrderItemModel) TableName() string {
	return "order_items"
}
