// internal/service/promotion/domain/repository.go
package domain

import "context"

// CouponRepository 定义了优惠券的只读持久化接口。
// usage_count 的自增不在这里：它只能发生在订单提交事务内部，
// 由 checkout 的 ledger 实现（见 OrderRepository.CommitOrder）。
type CouponRepository interface {
	// FindByCode 按规范化后的优惠码查找，不存在时返回 ErrCouponNotFound。
	FindByCode(ctx context.Context, code string) (*Coupon, error)

	// CountCommittedUsage 统计某个用户（以邮箱标识）历史已提交订单中
	// 引用该优惠券的次数，用于每用户限次校验。
	CountCommittedUsage(ctx context.Context, couponID uint, email string) (int64, error)
}
