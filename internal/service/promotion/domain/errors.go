// internal/service/promotion/domain/errors.go
package domain

import "github.com/pkg/errors"

// 优惠券校验失败的全部原因。校验按固定顺序短路，
// 每种失败对应一个可上报给用户的独立原因。
var (
	ErrCouponNotFound         = errors.New("coupon code not found")
	ErrCouponInactive         = errors.New("coupon is inactive")
	ErrCouponNotYetValid      = errors.New("coupon is not yet valid")
	ErrCouponExpired          = errors.New("coupon has expired")
	ErrCouponUsageLimitHit    = errors.New("coupon usage limit reached")
	ErrCouponBelowMinimum     = errors.New("cart subtotal is below the coupon minimum purchase amount")
	ErrCouponNotApplicable    = errors.New("coupon is not applicable to any item in the cart")
	ErrCouponUserLimitReached = errors.New("per-user usage limit for this coupon reached")
)

// ReasonCode 把校验错误翻译成对外暴露的稳定错误码。
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrCouponNotFound):
		return "COUPON_NOT_FOUND"
	case errors.Is(err, ErrCouponInactive):
		return "COUPON_INACTIVE"
	case errors.Is(err, ErrCouponNotYetValid):
		return "COUPON_NOT_YET_VALID"
	case errors.Is(err, ErrCouponExpired):
		return "COUPON_EXPIRED"
	case errors.Is(err, ErrCouponUsageLimitHit):
		return "COUPON_USAGE_LIMIT"
	case errors.Is(err, ErrCouponBelowMinimum):
		return "COUPON_BELOW_MINIMUM"
	case errors.Is(err, ErrCouponNotApplicable):
		return "COUPON_NOT_APPLICABLE"
	case errors.Is(err, ErrCouponUserLimitReached):
		return "COUPON_USER_LIMIT"
	default:
		return "COUPON_INVALID"
	}
}

// IsCouponError 判断一个错误是否属于优惠券校验失败，
// 调用方据此决定返回 4xx 还是 5xx。
func IsCouponError(err error) bool {
	for _, target := range []error{
		ErrCouponNotFound, ErrCouponInactive, ErrCouponNotYetValid,
		ErrCouponExpired, ErrCouponUsageLimitHit, ErrCouponBelowMinimum,
		ErrCouponNotApplicable, ErrCouponUserLimitReached,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
