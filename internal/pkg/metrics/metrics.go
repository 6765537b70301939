// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 结账核心的业务指标。orphaned_charges_total 尤其重要：
// 它对应必须人工对账的已扣款未落单场景，任何非零值都值得告警。
var (
	CheckoutAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_attempts_total",
		Help: "Checkout attempts by terminal outcome code.",
	}, []string{"outcome"})

	CouponRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_coupon_rejections_total",
		Help: "Coupon validations rejected, by reason.",
	}, []string{"reason"})

	OrphanedCharges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orphaned_charges_total",
		Help: "Captured charges whose order commit failed and need manual reconciliation.",
	})
)
