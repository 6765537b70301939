// internal/service/promotion/application/service.go
package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/promotion/domain"
)

// PromotionService 提供优惠券的校验与试算。
// 全部入口都是无副作用的：usage_count 的自增只发生在
// 订单提交事务里，预览和真实结账共享同一条规则路径。
type PromotionService struct {
	couponRepo domain.CouponRepository
	ruleEngine domain.RuleEngine
	tracer     trace.Tracer
}

// NewPromotionService 创建一个新的优惠服务实例。
func NewPromotionService(repo domain.CouponRepository, ruleEngine domain.RuleEngine, tracer trace.Tracer) *PromotionService {
	return &PromotionService{
		couponRepo: repo,
		ruleEngine: ruleEngine,
		tracer:     tracer,
	}
}

// Evaluate 是规则引擎的唯一入口：按固定顺序完成全部校验并
// 计算折扣金额。结账编排器和预览接口都走这条路径。
func (s *PromotionService) Evaluate(ctx context.Context, code string, lines []domain.CartLine, subtotal decimal.Decimal, email string, now time.Time) (*EvaluatedCoupon, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.Evaluate")
	defer span.End()

	normalized := domain.NormalizeCode(code)
	span.SetAttributes(
		attribute.String("coupon.code", normalized),
		attribute.String("cart.subtotal", subtotal.StringFixed(2)),
	)

	// 1. 码必须存在
	coupon, err := s.couponRepo.FindByCode(ctx, normalized)
	if err != nil {
		return nil, s.reject(ctx, span, normalized, err)
	}

	// 2-6. 实体自身的纯校验
	if err := coupon.Validate(lines, subtotal, now); err != nil {
		return nil, s.reject(ctx, span, normalized, err)
	}

	// 7. 每用户限次：统计该用户历史已提交订单中的使用次数
	if coupon.UserUsageLimit != nil && email != "" {
		used, err := s.couponRepo.CountCommittedUsage(ctx, coupon.ID, email)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if used >= int64(*coupon.UserUsageLimit) {
			return nil, s.reject(ctx, span, normalized, domain.ErrCouponUserLimitReached)
		}
	}

	// 8. 可选的管理员自定义规则
	if coupon.RuleExpression != "" {
		fact := domain.Fact{
			Subtotal:   subtotal.InexactFloat64(),
			ItemCount:  countItems(lines),
			ProductIDs: productIDs(lines),
			Email:      email,
		}
		ok, err := s.ruleEngine.Evaluate(coupon.RuleExpression, fact)
		if err != nil {
			// 规则本身写错属于运营配置问题，按不适用处理并留痕
			logger.Ctx(ctx).Warn().Err(err).
				Str("coupon_code", normalized).
				Msg("coupon rule expression failed to evaluate")
		}
		if err != nil || !ok {
			return nil, s.reject(ctx, span, normalized, domain.ErrCouponNotApplicable)
		}
	}

	discount := coupon.Discount(subtotal)
	span.SetAttributes(attribute.String("coupon.discount", discount.StringFixed(2)))
	return &EvaluatedCoupon{Coupon: coupon, Discount: discount}, nil
}

// Preview 是面向前端的试算入口，把校验结果包装成 DTO。
// 已知的校验失败不算错误，正常返回 valid=false。
func (s *PromotionService) Preview(ctx context.Context, req *PreviewRequest) (*PreviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.Preview")
	defer span.End()

	lines, subtotal, err := linesFromInput(req.Items)
	if err != nil {
		return nil, err
	}

	evaluated, err := s.Evaluate(ctx, req.CouponCode, lines, subtotal, req.Email, time.Now())
	if err != nil {
		if domain.IsCouponError(err) {
			return &PreviewResponse{
				Valid:   false,
				Reason:  domain.ReasonCode(err),
				Message: err.Error(),
			}, nil
		}
		return nil, err
	}

	final := subtotal.Sub(evaluated.Discount)
	return &PreviewResponse{
		Valid:          true,
		DiscountAmount: evaluated.Discount.StringFixed(2),
		FinalAmount:    final.StringFixed(2),
	}, nil
}

// reject 统一记录拒绝原因，错误原样向上返回。
func (s *PromotionService) reject(ctx context.Context, span trace.Span, code string, err error) error {
	reason := domain.ReasonCode(err)
	span.SetAttributes(attribute.String("coupon.reject_reason", reason))
	metrics.CouponRejections.WithLabelValues(reason).Inc()
	logger.Ctx(ctx).Info().Str("coupon_code", code).Str("reason", reason).Msg("coupon rejected")
	return err
}

func linesFromInput(items []PreviewItemInput) ([]domain.CartLine, decimal.Decimal, error) {
	lines := make([]domain.CartLine, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, decimal.Zero, err
		}
		lines = append(lines, domain.CartLine{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: price,
			Quantity:  item.Quantity,
		})
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return lines, subtotal, nil
}

func countItems(lines []domain.CartLine) int {
	n := 0
	for _, line := range lines {
		n += line.Quantity
	}
	return n
}

func productIDs(lines []domain.CartLine) []string {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}
