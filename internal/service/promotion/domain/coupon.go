// internal/service/promotion/domain/coupon.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType 定义了优惠券的折扣方式。
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage" // 按小计的百分比折扣
	DiscountFixed      DiscountType = "fixed"      // 固定金额折扣
)

// Coupon 是优惠券聚合根。usage_count 的唯一合法增长路径
// 是订单提交事务（见 checkout 的 ledger），本包只做纯校验。
type Coupon struct {
	ID                uint
	Code              string
	DiscountType      DiscountType
	DiscountValue     decimal.Decimal
	MinPurchaseAmount *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	UsageLimit        *int
	UsageCount        int
	UserUsageLimit    *int
	ValidFrom         time.Time
	ValidUntil        time.Time
	IsActive          bool
	// 为空表示适用于全部商品
	EligibleProductIDs []string
	// 可选的管理员自定义 CEL 规则（见 RuleEngine）
	RuleExpression string
}

// CartLine 是参与校验的购物车行的快照视图。
type CartLine struct {
	ProductID string
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// NormalizeCode 统一优惠码的大小写与空白，查询和存储共用。
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate 按固定顺序执行无副作用的规则检查，遇到第一个
// 不满足的条件立即返回对应错误。码是否存在（第一步）由
// 仓储负责，每用户限次（第七步）需要订单历史，由应用层负责。
func (c *Coupon) Validate(lines []CartLine, subtotal decimal.Decimal, now time.Time) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if now.Before(c.ValidFrom) {
		return ErrCouponNotYetValid
	}
	if now.After(c.ValidUntil) {
		return ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return ErrCouponUsageLimitHit
	}
	if c.MinPurchaseAmount != nil && subtotal.LessThan(*c.MinPurchaseAmount) {
		return ErrCouponBelowMinimum
	}
	if len(c.EligibleProductIDs) > 0 && !c.appliesToAny(lines) {
		return ErrCouponNotApplicable
	}
	return nil
}

// appliesToAny 检查购物车是否至少包含一个适用商品。
func (c *Coupon) appliesToAny(lines []CartLine) bool {
	eligible := make(map[string]struct{}, len(c.EligibleProductIDs))
	for _, id := range c.EligibleProductIDs {
		eligible[id] = struct{}{}
	}
	for _, line := range lines {
		if _, ok := eligible[line.ProductID]; ok {
			return true
		}
	}
	return false
}

// Discount 计算折扣金额，只应在 Validate 通过后调用。
// 结果恒满足 discount ≤ subtotal，下游的应付金额因此不需要
// 再做负数钳制；保留两位小数，四舍五入。
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var raw decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		raw = subtotal.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		if c.MaxDiscountAmount != nil && raw.GreaterThan(*c.MaxDiscountAmount) {
			raw = *c.MaxDiscountAmount
		}
	case DiscountFixed:
		raw = c.DiscountValue
	default:
		return decimal.Zero
	}

	if raw.GreaterThan(subtotal) {
		raw = subtotal
	}
	return raw.Round(2)
}
