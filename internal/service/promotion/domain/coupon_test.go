// internal/service/promotion/domain/coupon_test.go
package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	d := dec(t, s)
	return &d
}

func intPtr(n int) *int {
	return &n
}

func activeCoupon(t *testing.T, now time.Time) *Coupon {
	return &Coupon{
		ID:            1,
		Code:          "SAVE20",
		DiscountType:  DiscountPercentage,
		DiscountValue: dec(t, "20"),
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		IsActive:      true,
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE20", NormalizeCode("  save20 "))
	assert.Equal(t, "SAVE20", NormalizeCode("Save20"))
}

func TestCouponValidatePasses(t *testing.T) {
	now := time.Now()
	c := activeCoupon(t, now)
	lines := []CartLine{{ProductID: "p1", UnitPrice: dec(t, "50.00"), Quantity: 2}}
	assert.NoError(t, c.Validate(lines, dec(t, "100.00"), now))
}

func TestCouponValidateRejections(t *testing.T) {
	now := time.Now()
	lines := []CartLine{{ProductID: "p1", UnitPrice: dec(t, "50.00"), Quantity: 1}}

	tests := []struct {
		name    string
		mutate  func(c *Coupon)
		wantErr error
	}{
		{
			name:    "inactive",
			mutate:  func(c *Coupon) { c.IsActive = false },
			wantErr: ErrCouponInactive,
		},
		{
			name:    "not yet valid",
			mutate:  func(c *Coupon) { c.ValidFrom = now.Add(time.Hour) },
			wantErr: ErrCouponNotYetValid,
		},
		{
			name:    "expired",
			mutate:  func(c *Coupon) { c.ValidUntil = now.Add(-time.Minute) },
			wantErr: ErrCouponExpired,
		},
		{
			name: "usage limit reached",
			mutate: func(c *Coupon) {
				c.UsageLimit = intPtr(100)
				c.UsageCount = 100
			},
			wantErr: ErrCouponUsageLimitHit,
		},
		{
			name:    "below minimum purchase",
			mutate:  func(c *Coupon) { c.MinPurchaseAmount = decPtr(t, "50.01") },
			wantErr: ErrCouponBelowMinimum,
		},
		{
			name:    "no eligible product in cart",
			mutate:  func(c *Coupon) { c.EligibleProductIDs = []string{"p9"} },
			wantErr: ErrCouponNotApplicable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := activeCoupon(t, now)
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(lines, dec(t, "50.00"), now), tt.wantErr)
		})
	}
}

// 校验顺序是固定的：同时满足多个拒绝条件时，报告最靠前的那个。
func TestCouponValidateOrder(t *testing.T) {
	now := time.Now()
	lines := []CartLine{{ProductID: "p1", UnitPrice: dec(t, "10.00"), Quantity: 1}}

	c := activeCoupon(t, now)
	c.IsActive = false
	c.ValidUntil = now.Add(-time.Hour)
	assert.ErrorIs(t, c.Validate(lines, dec(t, "10.00"), now), ErrCouponInactive)

	c = activeCoupon(t, now)
	c.ValidUntil = now.Add(-time.Hour)
	c.UsageLimit = intPtr(1)
	c.UsageCount = 5
	assert.ErrorIs(t, c.Validate(lines, dec(t, "10.00"), now), ErrCouponExpired)

	c = activeCoupon(t, now)
	c.MinPurchaseAmount = decPtr(t, "100.00")
	c.EligibleProductIDs = []string{"p9"}
	assert.ErrorIs(t, c.Validate(lines, dec(t, "10.00"), now), ErrCouponBelowMinimum)
}

func TestCouponValidateBoundaries(t *testing.T) {
	now := time.Now()
	lines := []CartLine{{ProductID: "p1", UnitPrice: dec(t, "100.00"), Quantity: 1}}

	// 边界时刻算有效
	c := activeCoupon(t, now)
	c.ValidFrom = now
	c.ValidUntil = now
	assert.NoError(t, c.Validate(lines, dec(t, "100.00"), now))

	// 小计正好等于门槛算满足
	c = activeCoupon(t, now)
	c.MinPurchaseAmount = decPtr(t, "100.00")
	assert.NoError(t, c.Validate(lines, dec(t, "100.00"), now))

	// 只要有一个适用商品即可
	c = activeCoupon(t, now)
	c.EligibleProductIDs = []string{"p2", "p1"}
	assert.NoError(t, c.Validate(lines, dec(t, "100.00"), now))
}

func TestDiscountPercentage(t *testing.T) {
	c := &Coupon{DiscountType: DiscountPercentage, DiscountValue: decimal.NewFromInt(15)}

	// 10.99 * 15% = 1.6485，保留两位四舍五入
	assert.Equal(t, "1.65", c.Discount(dec(t, "10.99")).StringFixed(2))

	// 12.35 * 50% = 6.175，半数进位
	c.DiscountValue = decimal.NewFromInt(50)
	assert.Equal(t, "6.18", c.Discount(dec(t, "12.35")).StringFixed(2))
}

func TestDiscountPercentageMaxClamp(t *testing.T) {
	c := &Coupon{
		DiscountType:      DiscountPercentage,
		DiscountValue:     decimal.NewFromInt(50),
		MaxDiscountAmount: decPtr(t, "10.00"),
	}
	assert.Equal(t, "10.00", c.Discount(dec(t, "200.00")).StringFixed(2))
	assert.Equal(t, "5.00", c.Discount(dec(t, "10.00")).StringFixed(2))
}

func TestDiscountFixed(t *testing.T) {
	c := &Coupon{DiscountType: DiscountFixed, DiscountValue: dec(t, "25.00")}
	assert.Equal(t, "25.00", c.Discount(dec(t, "80.00")).StringFixed(2))

	// 固定折扣不会超过小计
	assert.Equal(t, "15.50", c.Discount(dec(t, "15.50")).StringFixed(2))
	assert.Equal(t, "3.00", c.Discount(dec(t, "3.00")).StringFixed(2))
}

func TestDiscountUnknownTypeIsZero(t *testing.T) {
	c := &Coupon{DiscountType: "unknown", DiscountValue: dec(t, "25.00")}
	assert.True(t, c.Discount(dec(t, "80.00")).IsZero())
}

// Discount 是纯函数：重复调用结果一致，也不改动优惠券本身。
func TestDiscountIsPure(t *testing.T) {
	c := &Coupon{DiscountType: DiscountPercentage, DiscountValue: decimal.NewFromInt(20), UsageCount: 3}
	first := c.Discount(dec(t, "99.99"))
	second := c.Discount(dec(t, "99.99"))
	assert.True(t, first.Equal(second))
	assert.Equal(t, 3, c.UsageCount)
}
