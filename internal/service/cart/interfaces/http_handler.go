// internal/service/cart/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/cart/application"
	"storefront/internal/service/cart/domain"
)

// CartHandler 封装购物车缓存的 HTTP 处理器。
type CartHandler struct {
	service *application.CartService
}

// NewCartHandler 创建一个新的 HTTP 处理器实例。
func NewCartHandler(service *application.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *CartHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/cart", h.handleCart)
}

func (h *CartHandler) handleCart(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		cart, err := h.service.Get(ctx, sessionID)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("failed to read cart")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, cart)

	case http.MethodPut:
		var item domain.CartItem
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		cart, err := h.service.AddItem(ctx, sessionID, item)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("failed to update cart")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, cart)

	case http.MethodDelete:
		if err := h.service.Clear(ctx, sessionID); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("failed to clear cart")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}
