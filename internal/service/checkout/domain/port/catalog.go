// internal/service/checkout/domain/port/catalog.go
package port

import (
	"context"

	invdomain "storefront/internal/service/inventory/domain"
)

// CatalogReader 是编排器读取权威价格与库存的端口。
// 客户端购物车里的价格只是展示提示，定价以这里的读取为准。
type CatalogReader interface {
	Load(ctx context.Context, lines []invdomain.Line) ([]invdomain.PricedLine, error)
}
