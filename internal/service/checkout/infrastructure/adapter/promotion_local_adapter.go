// internal/service/checkout/infrastructure/adapter/promotion_local_adapter.go
package adapter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/service/checkout/domain/port"
	invdomain "storefront/internal/service/inventory/domain"
	promoapp "storefront/internal/service/promotion/application"
	promodomain "storefront/internal/service/promotion/domain"
)

// PromotionLocalAdapter 把结账端口适配到进程内的优惠服务。
// 优惠服务拆分部署时，替换这一个适配器即可。
type PromotionLocalAdapter struct {
	service *promoapp.PromotionService
}

// NewPromotionLocalAdapter 创建优惠服务适配器。
func NewPromotionLocalAdapter(service *promoapp.PromotionService) *PromotionLocalAdapter {
	return &PromotionLocalAdapter{service: service}
}

// Evaluate 实现 port.CouponEvaluator，只做类型转换。
func (a *PromotionLocalAdapter) Evaluate(ctx context.Context, code string, lines []invdomain.PricedLine, subtotal decimal.Decimal, email string, now time.Time) (*port.AppliedCoupon, error) {
	cartLines := make([]promodomain.CartLine, 0, len(lines))
	for _, line := range lines {
		cartLines = append(cartLines, promodomain.CartLine{
			ProductID: line.ProductID,
			Title:     line.Title,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	evaluated, err := a.service.Evaluate(ctx, code, cartLines, subtotal, email, now)
	if err != nil {
		return nil, err
	}
	return &port.AppliedCoupon{
		CouponID: evaluated.Coupon.ID,
		Code:     evaluated.Coupon.Code,
		Discount: evaluated.Discount,
	}, nil
}
