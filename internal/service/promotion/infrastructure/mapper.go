// internal/service/promotion/infrastructure/mapper.go
package infrastructure

import (
	"encoding/json"

	"storefront/internal/service/promotion/domain"
)

// ToDomainCoupon 将数据库模型转换为领域模型。
func ToDomainCoupon(m *CouponModel) *domain.Coupon {
	var eligible []string
	if m.EligibleProductIDs != "" {
		// 历史数据可能存在坏 JSON，解析失败按“全部适用”处理
		_ = json.Unmarshal([]byte(m.EligibleProductIDs), &eligible)
	}

	return &domain.Coupon{
		ID:                 m.ID,
		Code:               m.Code,
		DiscountType:       domain.DiscountType(m.DiscountType),
		DiscountValue:      m.DiscountValue,
		MinPurchaseAmount:  m.MinPurchaseAmount,
		MaxDiscountAmount:  m.MaxDiscountAmount,
		UsageLimit:         m.UsageLimit,
		UsageCount:         m.UsageCount,
		UserUsageLimit:     m.UserUsageLimit,
		ValidFrom:          m.ValidFrom,
		ValidUntil:         m.ValidUntil,
		IsActive:           m.IsActive,
		EligibleProductIDs: eligible,
		RuleExpression:     m.RuleExpression,
	}
}
