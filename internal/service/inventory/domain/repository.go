// internal/service/inventory/domain/repository.go
package domain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrProductNotFound 表示购物车引用了目录中不存在的商品。
var ErrProductNotFound = errors.New("product not found")

// ProductInfo 是目录中一个商品的权威读取结果。
type ProductInfo struct {
	ID            string
	Title         string
	UnitPrice     decimal.Decimal
	StockQuantity int
}

// ProductReader 定义了对商品目录的只读访问。
// 本核心不拥有商品数据，提交时的扣减在 ledger 事务内完成。
type ProductReader interface {
	// FindByIDs 批量读取商品，任何 ID 缺失都返回 ErrProductNotFound。
	FindByIDs(ctx context.Context, ids []string) ([]ProductInfo, error)
}
