// internal/service/checkout/application/service.go
package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/checkout/domain"
	"storefront/internal/service/checkout/domain/port"
	invdomain "storefront/internal/service/inventory/domain"
	promodomain "storefront/internal/service/promotion/domain"
)

// CheckoutService 是结账编排器：校验购物车 → 可选的优惠校验 →
// 定总价 → 按总价决定是否走网关 → 原子提交台账。
// 它是台账唯一的写入方；COMMIT 之前的任何失败都不会留下持久痕迹。
type CheckoutService struct {
	orders  domain.OrderRepository
	catalog port.CatalogReader
	coupons port.CouponEvaluator
	gateway port.PaymentGateway
	orphans port.OrphanedChargeReporter
	tracer  trace.Tracer

	// 测试注入时钟
	now func() time.Time
}

// NewCheckoutService 创建结账编排器。
func NewCheckoutService(
	orders domain.OrderRepository,
	catalog port.CatalogReader,
	coupons port.CouponEvaluator,
	gateway port.PaymentGateway,
	orphans port.OrphanedChargeReporter,
	tracer trace.Tracer,
) *CheckoutService {
	return &CheckoutService{
		orders:  orders,
		catalog: catalog,
		coupons: coupons,
		gateway: gateway,
		orphans: orphans,
		tracer:  tracer,
		now:     time.Now,
	}
}

// IssueClientToken 透传网关的客户端令牌，前端初始化支付控件用。
func (s *CheckoutService) IssueClientToken(ctx context.Context) (string, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.IssueClientToken")
	defer span.End()
	return s.gateway.IssueClientToken(ctx)
}

// Checkout 执行一次完整的结账尝试。
// 每次调用都是独立的：这里没有任何自动重试，
// 用户重试就是一次全新的结账。
func (s *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Checkout")
	defer span.End()
	span.SetAttributes(
		attribute.Int("cart.lines", len(req.Items)),
		attribute.Bool("coupon.supplied", req.CouponCode != ""),
	)

	// VALIDATE_CART
	if len(req.Items) == 0 {
		return nil, s.fail(span, "CART_EMPTY", domain.ErrCartEmpty)
	}
	shipping := domain.ShippingAddress{
		FullName:   req.Shipping.FullName,
		Address:    req.Shipping.Address,
		City:       req.Shipping.City,
		PostalCode: req.Shipping.PostalCode,
		Country:    req.Shipping.Country,
		Phone:      req.Shipping.Phone,
	}
	if err := shipping.Validate(); err != nil {
		return nil, s.fail(span, "INVALID_SHIPPING", err)
	}

	// 用权威目录数据重新定价，客户端给的价格只是提示
	lines := make([]invdomain.Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, invdomain.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	priced, err := s.catalog.Load(ctx, lines)
	if err != nil {
		return nil, s.fail(span, "UNKNOWN_PRODUCT", err)
	}
	subtotal := invdomain.Subtotal(priced)
	span.SetAttributes(attribute.String("cart.subtotal", subtotal.StringFixed(2)))

	// COUPON_VALIDATE（仅在带码时）：失败原样返回，什么都没提交
	discount := decimal.Zero
	var couponID *uint
	couponCode := ""
	if req.CouponCode != "" {
		applied, err := s.coupons.Evaluate(ctx, req.CouponCode, priced, subtotal, req.Email, s.now())
		if err != nil {
			if promodomain.IsCouponError(err) {
				return nil, s.fail(span, promodomain.ReasonCode(err), err)
			}
			return nil, s.fail(span, "INTERNAL", err)
		}
		discount = applied.Discount
		id := applied.CouponID
		couponID = &id
		couponCode = applied.Code
	}

	// DETERMINE_TOTAL：在工厂函数里算一次，之后永不重算
	items := make([]domain.OrderItem, 0, len(priced))
	for _, line := range priced {
		items = append(items, domain.OrderItem{
			ProductID:    line.ProductID,
			ProductTitle: line.Title,
			ProductPrice: line.UnitPrice,
			Quantity:     line.Quantity,
		})
	}
	order, err := domain.NewOrder(req.Email, shipping, items, discount, couponID, couponCode)
	if err != nil {
		return nil, s.fail(span, "VALIDATION", err)
	}
	span.SetAttributes(attribute.String("order.total", order.TotalAmount.StringFixed(2)))

	// 提前做一次库存校验，把明显超卖挡在扣款之前；
	// 权威复检仍在提交事务内部进行
	if stockErr := invdomain.GuardLines(priced); stockErr != nil {
		return nil, s.fail(span, "OUT_OF_STOCK", stockErr)
	}

	// BRANCH：零元订单完全跳过网关，但仍然产生一笔可追溯的订单
	transactionID := ""
	if order.RequiresPayment() {
		if req.PaymentNonce == "" {
			return nil, s.fail(span, "MISSING_PAYMENT_NONCE", domain.ErrMissingPaymentNonce)
		}
		transactionID, err = s.gateway.Charge(ctx, req.PaymentNonce, order.TotalAmount.StringFixed(2))
		if err != nil {
			// 网关失败时台账一个字节都没写过
			return nil, s.fail(span, gatewayOutcome(err), err)
		}
		span.SetAttributes(attribute.String("payment.transaction_id", transactionID))
	}
	order.MarkPaid(transactionID)

	// COMMIT：单事务内复检库存、扣减、落单、自增券用量
	if err := s.orders.CommitOrder(ctx, order); err != nil {
		if transactionID != "" {
			// 已扣款但落单失败：孤儿扣款。上报对账，绝不静默。
			s.reportOrphan(ctx, order, transactionID, err)
		}
		if stockErr, ok := asStockError(err); ok {
			return nil, s.fail(span, "OUT_OF_STOCK", stockErr)
		}
		return nil, s.fail(span, "INTERNAL", err)
	}

	metrics.CheckoutAttempts.WithLabelValues("success").Inc()
	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Str("transaction_id", transactionID).
		Msg("checkout committed")

	return &CheckoutResult{OrderID: order.ID, TransactionID: transactionID}, nil
}

// reportOrphan 记录并发布孤儿扣款。上报本身失败也只能记日志：
// 交易号必须至少出现在日志里，人工对账才有线索。
func (s *CheckoutService) reportOrphan(ctx context.Context, order *domain.Order, transactionID string, cause error) {
	metrics.OrphanedCharges.Inc()
	logger.Ctx(ctx).Error().
		Str("order_ref", order.ID).
		Str("transaction_id", transactionID).
		Str("amount", order.TotalAmount.StringFixed(2)).
		Err(cause).
		Msg("orphaned charge: payment captured but order commit failed, manual reconciliation required")

	charge := port.OrphanedCharge{
		OrderRef:      order.ID,
		TransactionID: transactionID,
		Amount:        order.TotalAmount.StringFixed(2),
		Reason:        cause.Error(),
		OccurredAt:    s.now(),
	}
	if err := s.orphans.Report(ctx, charge); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("transaction_id", transactionID).
			Msg("failed to publish orphaned charge event")
	}
}

// fail 统一记录失败出口并原样返回错误。
func (s *CheckoutService) fail(span trace.Span, outcome string, err error) error {
	metrics.CheckoutAttempts.WithLabelValues(outcome).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	return err
}

func gatewayOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrPaymentDeclined):
		return "PAYMENT_DECLINED"
	case errors.Is(err, domain.ErrGatewayConfig):
		return "GATEWAY_CONFIG"
	default:
		return "GATEWAY_UNAVAILABLE"
	}
}

func asStockError(err error) (*invdomain.StockError, bool) {
	var stockErr *invdomain.StockError
	if errors.As(err, &stockErr) {
		return stockErr, true
	}
	return nil, false
}
