// internal/service/checkout/domain/errors.go
package domain

import "github.com/pkg/errors"

// 结账核心的错误分类。优惠券错误在 promotion/domain，
// 库存错误在 inventory/domain（*StockError 携带逐行明细）。
var (
	// 校验类：立即拒绝，什么都没碰
	ErrCartEmpty           = errors.New("cart is empty")
	ErrInvalidShipping     = errors.New("shipping information is incomplete")
	ErrMissingPaymentNonce = errors.New("payment nonce is required for a non-zero total")

	// 网关类：Declined 用户可换卡重试；Unavailable 可稍后重试；
	// Config 属于运营配置问题，对用户只暴露为通用失败
	ErrPaymentDeclined    = errors.New("payment was declined by the gateway")
	ErrGatewayUnavailable = errors.New("payment gateway is unavailable")
	ErrGatewayConfig      = errors.New("payment gateway configuration is invalid")
)
