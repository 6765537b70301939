// internal/service/promotion/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/service/promotion/domain"
)

// GormCouponRepository 是 CouponRepository 的 GORM 实现。
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository 创建一个新的 GORM 仓储实例。
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByCode 按规范化后的优惠码查找优惠券。
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var model CouponModel
	err := r.db.WithContext(ctx).
		Where("code = ?", domain.NormalizeCode(code)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, errors.Wrap(err, "failed to query coupon by code")
	}
	return ToDomainCoupon(&model), nil
}

// CountCommittedUsage 统计该邮箱历史已提交订单中引用此券的次数。
// 订单一经创建即视为一次已提交的使用（参见 ledger 的原子提交）。
func (r *GormCouponRepository) CountCommittedUsage(ctx context.Context, couponID uint, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("orders").
		Where("coupon_id = ? AND email = ?", couponID, email).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count coupon usage for user")
	}
	return count, nil
}
