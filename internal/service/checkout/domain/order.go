// internal/service/checkout/domain/order.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status 是订单状态。创建后除 status 外订单不可变。
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// CanTransitionTo 是状态流转的软约束：只向前走，
// 未终结的订单随时可以取消。管理端操作用它做提示性检查。
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusCancelled {
		return s != StatusDelivered && s != StatusCancelled
	}
	order := map[Status]int{
		StatusPending:   0,
		StatusPaid:      1,
		StatusShipped:   2,
		StatusDelivered: 3,
	}
	cur, ok1 := order[s]
	nxt, ok2 := order[next]
	return ok1 && ok2 && nxt > cur
}

// ShippingAddress 是下单时填写的收货信息。
type ShippingAddress struct {
	FullName   string
	Address    string
	City       string
	PostalCode string
	Country    string
	Phone      string
}

// Validate 做最基本的完整性检查，字段格式不在本核心职责内。
func (a ShippingAddress) Validate() error {
	if a.FullName == "" || a.Address == "" || a.City == "" || a.Country == "" {
		return ErrInvalidShipping
	}
	return nil
}

// OrderItem 是订单行。ProductTitle/ProductPrice 是提交时刻的
// 快照：商品后台之后怎么改价，历史订单都不受影响。
type OrderItem struct {
	ID           uint
	ProductID    string
	ProductTitle string
	ProductPrice decimal.Decimal
	Quantity     int
}

// Order 是订单聚合根。
type Order struct {
	ID                   string
	Email                string
	Shipping             ShippingAddress
	SubtotalAmount       decimal.Decimal
	DiscountAmount       decimal.Decimal
	TotalAmount          decimal.Decimal
	Status               Status
	PaymentTransactionID string
	// CouponID 是引用，CouponCode 是快照：券被删了历史订单也完整
	CouponID   *uint
	CouponCode string
	Items      []OrderItem
	CreatedAt  time.Time
}

// NewOrder 是订单的工厂函数。total = max(0, subtotal − discount)，
// 在这里计算一次，之后永不重算。零行订单在这里被挡住。
func NewOrder(email string, shipping ShippingAddress, items []OrderItem, discount decimal.Decimal, couponID *uint, couponCode string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}
	if err := shipping.Validate(); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.ProductPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &Order{
		ID:             uuid.NewString(),
		Email:          email,
		Shipping:       shipping,
		SubtotalAmount: subtotal.Round(2),
		DiscountAmount: discount.Round(2),
		TotalAmount:    total.Round(2),
		Status:         StatusPending,
		CouponID:       couponID,
		CouponCode:     couponCode,
		Items:          items,
		CreatedAt:      time.Now(),
	}, nil
}

// MarkPaid 在支付完成（或全额抵扣无需支付）后标记订单。
// 零元订单的 transactionID 为空：没有发生过网关调用。
func (o *Order) MarkPaid(transactionID string) {
	o.Status = StatusPaid
	o.PaymentTransactionID = transactionID
}

// RequiresPayment 判断是否需要走支付网关。
func (o *Order) RequiresPayment() bool {
	return o.TotalAmount.IsPositive()
}
