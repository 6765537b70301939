// internal/service/cart/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/service/cart/domain"
)

// CartService 管理会话购物车缓存。
type CartService struct {
	store  domain.CartStore
	ttl    time.Duration
	tracer trace.Tracer
}

// NewCartService 创建购物车服务，ttl 是缓存过期时间。
func NewCartService(store domain.CartStore, ttl time.Duration, tracer trace.Tracer) *CartService {
	return &CartService{store: store, ttl: ttl, tracer: tracer}
}

// Get 读取购物车，不存在时返回空车。
func (s *CartService) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "cart.Get")
	defer span.End()
	span.SetAttributes(attribute.String("cart.session_id", sessionID))
	return s.store.Get(ctx, sessionID)
}

// AddItem 合并加购并刷新过期时间。
func (s *CartService) AddItem(ctx context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "cart.AddItem")
	defer span.End()
	span.SetAttributes(
		attribute.String("cart.session_id", sessionID),
		attribute.String("product.id", item.ProductID),
	)

	cart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	cart.Upsert(item)
	cart.UpdatedAt = time.Now()

	if err := s.store.Put(ctx, cart, s.ttl); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return cart, nil
}

// Clear 清空购物车（结账成功后调用）。
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "cart.Clear")
	defer span.End()
	return s.store.Delete(ctx, sessionID)
}
