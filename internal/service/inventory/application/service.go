// internal/service/inventory/application/service.go
package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/service/inventory/domain"
)

// InventoryService 是库存守卫：它是“这个购物车现在能不能发货”
// 的唯一裁判。每次调用都重新读取当前库存，绝不相信客户端
// 在加购时缓存的数字。
type InventoryService struct {
	products domain.ProductReader
	tracer   trace.Tracer
}

// NewInventoryService 创建库存守卫实例。
func NewInventoryService(products domain.ProductReader, tracer trace.Tracer) *InventoryService {
	return &InventoryService{products: products, tracer: tracer}
}

// Load 用权威目录数据补全购物车行：当前单价、标题、可用库存。
func (s *InventoryService) Load(ctx context.Context, lines []domain.Line) ([]domain.PricedLine, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Load")
	defer span.End()
	span.SetAttributes(attribute.Int("cart.lines", len(lines)))

	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	byID := make(map[string]domain.ProductInfo, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	priced := make([]domain.PricedLine, 0, len(lines))
	for _, line := range lines {
		p, ok := byID[line.ProductID]
		if !ok {
			span.RecordError(domain.ErrProductNotFound)
			return nil, domain.ErrProductNotFound
		}
		priced = append(priced, domain.PricedLine{
			ProductID: p.ID,
			Title:     p.Title,
			UnitPrice: p.UnitPrice,
			Quantity:  line.Quantity,
			Available: p.StockQuantity,
		})
	}
	return priced, nil
}

// CheckAvailability 重新读取库存并校验全部行，
// 返回 *domain.StockError 时携带每一行的违规明细。
func (s *InventoryService) CheckAvailability(ctx context.Context, lines []domain.Line) error {
	ctx, span := s.tracer.Start(ctx, "inventory.CheckAvailability")
	defer span.End()

	priced, err := s.Load(ctx, lines)
	if err != nil {
		return err
	}
	if stockErr := domain.GuardLines(priced); stockErr != nil {
		span.SetAttributes(attribute.Int("stock.violations", len(stockErr.Violations)))
		return stockErr
	}
	return nil
}
