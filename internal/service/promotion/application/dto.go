// internal/service/promotion/application/dto.go
package application

import (
	"github.com/shopspring/decimal"

	"storefront/internal/service/promotion/domain"
)

// PreviewRequest 是优惠券试算接口的入参。
type PreviewRequest struct {
	CouponCode string             `json:"couponCode"`
	Email      string             `json:"email,omitempty"`
	Items      []PreviewItemInput `json:"items"`
}

type PreviewItemInput struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// PreviewResponse 返回试算结果。Valid 为 false 时 Reason
// 携带稳定错误码，金额字段为空。
type PreviewResponse struct {
	Valid          bool   `json:"valid"`
	Reason         string `json:"reason,omitempty"`
	Message        string `json:"message,omitempty"`
	DiscountAmount string `json:"discountAmount,omitempty"`
	FinalAmount    string `json:"finalAmount,omitempty"`
}

// EvaluatedCoupon 是一次成功校验的结果，结账编排器据此
// 决定应付金额并在提交事务中引用该券。
type EvaluatedCoupon struct {
	Coupon   *domain.Coupon
	Discount decimal.Decimal
}
