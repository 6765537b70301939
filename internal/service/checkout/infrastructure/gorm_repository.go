// internal/service/checkout/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/service/checkout/domain"
	invdomain "storefront/internal/service/inventory/domain"
	invinfra "storefront/internal/service/inventory/infrastructure"
	promodomain "storefront/internal/service/promotion/domain"
	promoinfra "storefront/internal/service/promotion/infrastructure"
)

// GormOrderRepository 是订单台账的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的台账仓储实例。
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// CommitOrder 是台账唯一的写入路径：一个事务内完成
// 锁行 → 复检库存 → 扣减 → 落单 → 券用量自增。
// 行锁（SELECT ... FOR UPDATE）是并发结账的序列化点：
// 两个购物者抢同一件低库存商品，后拿到锁的那个会在
// 复检时看到已扣减后的库存，不可能双双通过。
func (r *GormOrderRepository) CommitOrder(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 对涉及的商品行加锁并读取当前库存
		ids := make([]string, 0, len(order.Items))
		requested := make(map[string]int, len(order.Items))
		for _, item := range order.Items {
			ids = append(ids, item.ProductID)
			requested[item.ProductID] += item.Quantity
		}

		var products []invinfra.ProductModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).
			Find(&products).Error; err != nil {
			return errors.Wrap(err, "failed to lock product rows")
		}

		available := make(map[string]int, len(products))
		for _, p := range products {
			available[p.ID] = p.StockQuantity
		}

		// 2. 最终复检：收集全部违规而不是碰到第一个就停
		var violations []invdomain.StockViolation
		for _, id := range ids {
			avail, ok := available[id]
			if !ok {
				avail = 0
			}
			if requested[id] > avail {
				violations = append(violations, invdomain.StockViolation{
					ProductID: id,
					Requested: requested[id],
					Available: avail,
				})
			}
		}
		if len(violations) > 0 {
			return &invdomain.StockError{Violations: violations}
		}

		// 3. 逐行扣减。复检已经通过且行仍在锁内，库存不可能变负。
		for id, qty := range requested {
			if err := tx.Model(&invinfra.ProductModel{}).
				Where("id = ?", id).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty)).Error; err != nil {
				return errors.Wrapf(err, "failed to decrement stock for product %s", id)
			}
		}

		// 4. 写入订单头和订单行（快照字段在领域对象里已经定型）
		model := toOrderModel(order)
		if err := tx.Create(model).Error; err != nil {
			return errors.Wrap(err, "failed to insert order")
		}

		// 5. 引用了优惠券：锁行、复检总限次、自增用量。
		// usage_count 只会在这里、且只随本事务的提交而增加。
		if order.CouponID != nil {
			var coupon promoinfra.CouponModel
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&coupon, *order.CouponID).Error; err != nil {
				return errors.Wrap(err, "failed to lock coupon row")
			}
			if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
				return promodomain.ErrCouponUsageLimitHit
			}
			if err := tx.Model(&promoinfra.CouponModel{}).
				Where("id = ?", *order.CouponID).
				UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
				return errors.Wrap(err, "failed to increment coupon usage")
			}
		}

		return nil
	})
}

// FindByID 加载订单及其订单行。
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query order")
	}
	return toDomainOrder(&model), nil
}

// FindByTransactionID 按网关交易号查订单，对账流程使用。
func (r *GormOrderRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").
		First(&model, "payment_transaction_id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query order by transaction id")
	}
	return toDomainOrder(&model), nil
}

// UpdateStatus 是管理端的状态流转，只改 status 一个字段。
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	result := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update order status")
	}
	if result.RowsAffected == 0 {
		return errors.Errorf("order %s not found", id)
	}
	return nil
}

func toOrderModel(order *domain.Order) *OrderModel {
	items := make([]OrderItemModel, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemModel{
			OrderID:      order.ID,
			ProductID:    item.ProductID,
			ProductTitle: item.ProductTitle,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
		})
	}
	return &OrderModel{
		ID:                   order.ID,
		Email:                order.Email,
		ShippingFullName:     order.Shipping.FullName,
		ShippingAddress:      order.Shipping.Address,
		ShippingCity:         order.Shipping.City,
		ShippingPostalCode:   order.Shipping.PostalCode,
		ShippingCountry:      order.Shipping.Country,
		ShippingPhone:        order.Shipping.Phone,
		SubtotalAmount:       order.SubtotalAmount,
		DiscountAmount:       order.DiscountAmount,
		TotalAmount:          order.TotalAmount,
		Status:               string(order.Status),
		PaymentTransactionID: order.PaymentTransactionID,
		CouponID:             order.CouponID,
		CouponCode:           order.CouponCode,
		CreatedAt:            order.CreatedAt,
		Items:                items,
	}
}

func toDomainOrder(model *OrderModel) *domain.Order {
	items := make([]domain.OrderItem, 0, len(model.Items))
	for _, item := range model.Items {
		items = append(items, domain.OrderItem{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductTitle: item.ProductTitle,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
		})
	}
	return &domain.Order{
		ID:    model.ID,
		Email: model.Email,
		Shipping: domain.ShippingAddress{
			FullName:   model.ShippingFullName,
			Address:    model.ShippingAddress,
			City:       model.ShippingCity,
			PostalCode: model.ShippingPostalCode,
			Country:    model.ShippingCountry,
			Phone:      model.ShippingPhone,
		},
		SubtotalAmount:       model.SubtotalAmount,
		DiscountAmount:       model.DiscountAmount,
		TotalAmount:          model.TotalAmount,
		Status:               domain.Status(model.Status),
		PaymentTransactionID: model.PaymentTransactionID,
		CouponID:             model.CouponID,
		CouponCode:           model.CouponCode,
		Items:                items,
		CreatedAt:            model.CreatedAt,
	}
}
