// internal/service/cart/domain/cart.go
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Cart 是购物者会话里的购物车。它只是一个便利缓存：
// 结账时价格和库存都会按 productId 重新读取权威数据，
// 这里的任何字段都不被信任。
type Cart struct {
	SessionID string     `json:"sessionId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem 记录加购时刻看到的商品信息。
// StockQuantityAtAdd 仅用于前端提示，结账时必然重检。
type CartItem struct {
	ProductID          string          `json:"productId"`
	Title              string          `json:"title"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	Quantity           int             `json:"quantity"`
	StockQuantityAtAdd int             `json:"stockQuantityAtAdd"`
}

// Upsert 合并同一商品的数量，数量减到零及以下时移除该行。
func (c *Cart) Upsert(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			if c.Items[i].Quantity <= 0 {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
			}
			return
		}
	}
	if item.Quantity > 0 {
		c.Items = append(c.Items, item)
	}
}

// CartStore 定义购物车缓存的持久化接口。
type CartStore interface {
	// Get 不存在时返回空购物车而不是错误
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Put(ctx context.Context, cart *Cart, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}
