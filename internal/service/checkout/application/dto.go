// internal/service/checkout/application/dto.go
package application

// CheckoutRequest 是一次结账请求。Items 里的 title/price 只是
// 客户端提示，编排器会按 productId 重读权威价格与库存。
type CheckoutRequest struct {
	Email    string       `json:"email"`
	Shipping ShippingInfo `json:"shipping"`
	Items    []ItemInput  `json:"items"`
	// 可选优惠码；为空则跳过优惠校验
	CouponCode string `json:"couponCode,omitempty"`
	// 支付 nonce；全额抵扣的零元订单可以不带
	PaymentNonce string `json:"paymentNonce,omitempty"`
}

type ShippingInfo struct {
	FullName   string `json:"fullName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type ItemInput struct {
	ProductID string `json:"productId"`
	Title     string `json:"title,omitempty"`
	Price     string `json:"price,omitempty"`
	Quantity  int    `json:"quantity"`
}

// CheckoutResult 是成功结账的返回。零元订单没有 TransactionID。
type CheckoutResult struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId,omitempty"`
}
