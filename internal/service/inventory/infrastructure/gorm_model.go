// internal/service/inventory/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel 对应 products 表。目录内容由商品后台维护，
// 本核心只读它的价格和库存；stock_quantity 的扣减发生在
// 订单提交事务里（见 checkout 的 GormOrderRepository）。
type ProductModel struct {
	ID            string          `gorm:"primaryKey;size:64"`
	Title         string          `gorm:"size:255;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockQuantity int             `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 指定 GORM 应该使用的表名。
func (ProductModel) TableName() string {
	return "products"
}
