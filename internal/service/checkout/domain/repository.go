// internal/service/checkout/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单台账的持久化接口。
//
// CommitOrder 是唯一的写入路径，必须在一个数据库事务内完成：
// 对涉及的商品行和优惠券行加行锁，复检库存（收集全部违规，
// 返回 *inventory.StockError），逐行扣减，写入订单和订单行
// （落快照字段），如引用了优惠券则复检总限次并自增 usage_count。
// 任何一步失败，整个事务回滚，持久状态保持原样。
type OrderRepository interface {
	CommitOrder(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*Order, error)
	// UpdateStatus 是管理端的简单状态流转，不在原子提交路径上。
	UpdateStatus(ctx context.Context, id string, status Status) error
}
