// internal/service/cart/infrastructure/redis_store.go
package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"storefront/internal/pkg/redis"
	"storefront/internal/service/cart/domain"
)

const cartKeyPrefix = "cart:"

// RedisCartStore 是 CartStore 的 Redis 实现，整车 JSON 存取。
type RedisCartStore struct {
	client *redis.Client
}

// NewRedisCartStore 创建购物车缓存存储。
func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client}
}

// Get 读取购物车；键不存在返回空车，这不是错误。
func (s *RedisCartStore) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := s.client.GetClient().Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return &domain.Cart{SessionID: sessionID}, nil
		}
		return nil, errors.Wrap(err, "failed to read cart from redis")
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		// 缓存内容损坏时按空车处理，权威数据在结账时重读
		return &domain.Cart{SessionID: sessionID}, nil
	}
	return &cart, nil
}

// Put 整车写入并设置过期时间。
func (s *RedisCartStore) Put(ctx context.Context, cart *domain.Cart, ttl time.Duration) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return errors.Wrap(err, "failed to marshal cart")
	}
	if err := s.client.GetClient().Set(ctx, cartKeyPrefix+cart.SessionID, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to write cart to redis")
	}
	return nil
}

// Delete 删除购物车。
func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.GetClient().Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return errors.Wrap(err, "failed to delete cart from redis")
	}
	return nil
}
