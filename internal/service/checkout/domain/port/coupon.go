// internal/service/checkout/domain/port/coupon.go
package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	invdomain "storefront/internal/service/inventory/domain"
)

// AppliedCoupon 是一次成功校验的结果。Code 会作为快照
// 落到订单上，Discount 已保证不超过小计。
type AppliedCoupon struct {
	CouponID uint
	Code     string
	Discount decimal.Decimal
}

// CouponEvaluator 是编排器对优惠规则引擎的端口。
// 实现必须无副作用：这里的调用不会消耗使用次数。
type CouponEvaluator interface {
	Evaluate(ctx context.Context, code string, lines []invdomain.PricedLine, subtotal decimal.Decimal, email string, now time.Time) (*AppliedCoupon, error)
}
