// internal/service/promotion/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/promotion/application"
)

// CouponPreviewer 是 HTTP 层对应用服务的最小依赖。
type CouponPreviewer interface {
	Preview(ctx context.Context, req *application.PreviewRequest) (*application.PreviewResponse, error)
}

// PromotionHandler 封装了优惠券试算的 HTTP 处理器。
type PromotionHandler struct {
	service CouponPreviewer
}

// NewPromotionHandler 创建一个新的 HTTP 处理器实例。
func NewPromotionHandler(service CouponPreviewer) *PromotionHandler {
	return &PromotionHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *PromotionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/coupons/preview", h.handlePreview)
}

func (h *PromotionHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Preview(ctx, &req)
	if err != nil {
		// 校验失败已在应用层转换为 valid=false；落到这里的是基础设施错误
		logger.Ctx(ctx).Error().Err(err).Msg("coupon preview failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
