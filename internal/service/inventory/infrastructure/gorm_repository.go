// internal/service/inventory/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/service/inventory/domain"
)

// GormProductReader 是 ProductReader 的 GORM 实现。
type GormProductReader struct {
	db *gorm.DB
}

// NewGormProductReader 创建一个新的目录读取器。
func NewGormProductReader(db *gorm.DB) *GormProductReader {
	return &GormProductReader{db: db}
}

// FindByIDs 批量读取商品；只要有一个 ID 查不到就整体失败，
// 引用了不存在商品的购物车不可能提交成功。
func (r *GormProductReader) FindByIDs(ctx context.Context, ids []string) ([]domain.ProductInfo, error) {
	var models []ProductModel
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to query products")
	}

	found := make(map[string]struct{}, len(models))
	infos := make([]domain.ProductInfo, 0, len(models))
	for _, m := range models {
		found[m.ID] = struct{}{}
		infos = append(infos, domain.ProductInfo{
			ID:            m.ID,
			Title:         m.Title,
			UnitPrice:     m.Price,
			StockQuantity: m.StockQuantity,
		})
	}

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, errors.Wrapf(domain.ErrProductNotFound, "product %s", id)
		}
	}
	return infos, nil
}
