// internal/service/checkout/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/checkout/application"
	"storefront/internal/service/checkout/domain"
	invdomain "storefront/internal/service/inventory/domain"
	promodomain "storefront/internal/service/promotion/domain"
)

// CheckoutUseCase 是 HTTP 层对编排器的最小依赖。
type CheckoutUseCase interface {
	Checkout(ctx context.Context, req *application.CheckoutRequest) (*application.CheckoutResult, error)
	IssueClientToken(ctx context.Context) (string, error)
}

// CheckoutHandler 封装了结账的 HTTP 处理器。
type CheckoutHandler struct {
	service CheckoutUseCase
}

// NewCheckoutHandler 创建一个新的 HTTP 处理器实例。
func NewCheckoutHandler(service CheckoutUseCase) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/checkout", h.handleCheckout)
	mux.HandleFunc("/api/payment/client-token", h.handleClientToken)
}

// checkoutResponse 是对调用方可见的统一结果信封。
type checkoutResponse struct {
	Success       bool                       `json:"success"`
	OrderID       string                     `json:"orderId,omitempty"`
	TransactionID string                     `json:"transactionId,omitempty"`
	ErrorCode     string                     `json:"errorCode,omitempty"`
	Message       string                     `json:"message,omitempty"`
	StockErrors   []invdomain.StockViolation `json:"stockErrors,omitempty"`
}

func (h *CheckoutHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, checkoutResponse{
			Success: false, ErrorCode: "INVALID_REQUEST", Message: "invalid request body",
		})
		return
	}

	result, err := h.service.Checkout(ctx, &req)
	if err != nil {
		status, resp := mapCheckoutError(err)
		if status == http.StatusInternalServerError {
			logger.Ctx(ctx).Error().Err(err).Msg("checkout failed")
		}
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{
		Success:       true,
		OrderID:       result.OrderID,
		TransactionID: result.TransactionID,
	})
}

func (h *CheckoutHandler) handleClientToken(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	token, err := h.service.IssueClientToken(ctx)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to issue client token")
		writeJSON(w, http.StatusServiceUnavailable, checkoutResponse{
			Success: false, ErrorCode: "GATEWAY_UNAVAILABLE", Message: "payment gateway unavailable",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"clientToken": token})
}

// mapCheckoutError 把错误分类翻译成 HTTP 状态码和稳定错误码。
func mapCheckoutError(err error) (int, checkoutResponse) {
	// 库存违规：409 并带逐行明细，购物者一次改完
	var stockErr *invdomain.StockError
	if errors.As(err, &stockErr) {
		return http.StatusConflict, checkoutResponse{
			Success:     false,
			ErrorCode:   "OUT_OF_STOCK",
			Message:     stockErr.Error(),
			StockErrors: stockErr.Violations,
		}
	}

	// 优惠券校验失败：422，错误码区分具体原因
	if promodomain.IsCouponError(err) {
		return http.StatusUnprocessableEntity, checkoutResponse{
			Success:   false,
			ErrorCode: promodomain.ReasonCode(err),
			Message:   err.Error(),
		}
	}

	switch {
	case errors.Is(err, domain.ErrCartEmpty):
		return http.StatusBadRequest, checkoutResponse{Success: false, ErrorCode: "CART_EMPTY", Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidShipping):
		return http.StatusBadRequest, checkoutResponse{Success: false, ErrorCode: "INVALID_SHIPPING", Message: err.Error()}
	case errors.Is(err, domain.ErrMissingPaymentNonce):
		return http.StatusBadRequest, checkoutResponse{Success: false, ErrorCode: "MISSING_PAYMENT_NONCE", Message: err.Error()}
	case errors.Is(err, invdomain.ErrProductNotFound):
		return http.StatusBadRequest, checkoutResponse{Success: false, ErrorCode: "UNKNOWN_PRODUCT", Message: err.Error()}
	case errors.Is(err, domain.ErrPaymentDeclined):
		// 用户可纠正：换一种支付方式重试
		return http.StatusPaymentRequired, checkoutResponse{Success: false, ErrorCode: "PAYMENT_DECLINED", Message: err.Error()}
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, checkoutResponse{Success: false, ErrorCode: "GATEWAY_UNAVAILABLE", Message: "payment processing is temporarily unavailable"}
	case errors.Is(err, domain.ErrGatewayConfig):
		// 运营配置问题，对用户只暴露通用失败，细节在日志里
		return http.StatusInternalServerError, checkoutResponse{Success: false, ErrorCode: "PAYMENT_FAILED", Message: "payment processing failed"}
	default:
		return http.StatusInternalServerError, checkoutResponse{Success: false, ErrorCode: "INTERNAL", Message: "internal error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
