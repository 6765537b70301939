// internal/service/checkout/domain/order_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validShipping() ShippingAddress {
	return ShippingAddress{
		FullName: "Ada Lovelace",
		Address:  "12 Analytical Way",
		City:     "London",
		Country:  "GB",
	}
}

func twoItems() []OrderItem {
	return []OrderItem{
		{ProductID: "p1", ProductTitle: "Widget", ProductPrice: decimal.RequireFromString("40.00"), Quantity: 2},
		{ProductID: "p2", ProductTitle: "Gadget", ProductPrice: decimal.RequireFromString("20.00"), Quantity: 1},
	}
}

func TestNewOrderComputesTotals(t *testing.T) {
	order, err := NewOrder("a@b.com", validShipping(), twoItems(), decimal.RequireFromString("15.00"), nil, "")
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, "100.00", order.SubtotalAmount.StringFixed(2))
	assert.Equal(t, "15.00", order.DiscountAmount.StringFixed(2))
	assert.Equal(t, "85.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, StatusPending, order.Status)
	assert.True(t, order.RequiresPayment())
}

func TestNewOrderRejectsEmptyCart(t *testing.T) {
	_, err := NewOrder("a@b.com", validShipping(), nil, decimal.Zero, nil, "")
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestNewOrderRejectsIncompleteShipping(t *testing.T) {
	shipping := validShipping()
	shipping.City = ""
	_, err := NewOrder("a@b.com", shipping, twoItems(), decimal.Zero, nil, "")
	assert.ErrorIs(t, err, ErrInvalidShipping)
}

// 折扣超过小计时应付金额钳制为零，而不是负数。
func TestNewOrderClampsTotalAtZero(t *testing.T) {
	order, err := NewOrder("a@b.com", validShipping(), twoItems(), decimal.RequireFromString("500.00"), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "0.00", order.TotalAmount.StringFixed(2))
	assert.False(t, order.RequiresPayment())
}

func TestNewOrderKeepsCouponSnapshot(t *testing.T) {
	couponID := uint(7)
	order, err := NewOrder("a@b.com", validShipping(), twoItems(), decimal.RequireFromString("20.00"), &couponID, "SAVE20")
	require.NoError(t, err)

	require.NotNil(t, order.CouponID)
	assert.Equal(t, uint(7), *order.CouponID)
	assert.Equal(t, "SAVE20", order.CouponCode)
}

func TestMarkPaid(t *testing.T) {
	order, err := NewOrder("a@b.com", validShipping(), twoItems(), decimal.Zero, nil, "")
	require.NoError(t, err)

	order.MarkPaid("txn_123")
	assert.Equal(t, StatusPaid, order.Status)
	assert.Equal(t, "txn_123", order.PaymentTransactionID)

	// 零元订单：没有网关交易号
	free, err := NewOrder("a@b.com", validShipping(), twoItems(), decimal.RequireFromString("100.00"), nil, "")
	require.NoError(t, err)
	free.MarkPaid("")
	assert.Equal(t, StatusPaid, free.Status)
	assert.Empty(t, free.PaymentTransactionID)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPaid, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusShipped, true},
		{StatusPaid, StatusPending, false},
		{StatusDelivered, StatusShipped, false},
		{StatusPending, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
