// internal/service/promotion/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponModel 对应数据库中的 coupons 表。
// 金额列统一 decimal(10,2)；可空的限制条件用指针表达，
// NULL 即“不限制”。
type CouponModel struct {
	gorm.Model
	Code              string           `gorm:"uniqueIndex;size:64;not null"`
	DiscountType      string           `gorm:"size:16;not null"`
	DiscountValue     decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	MinPurchaseAmount *decimal.Decimal `gorm:"type:decimal(10,2)"`
	MaxDiscountAmount *decimal.Decimal `gorm:"type:decimal(10,2)"`
	UsageLimit        *int
	UsageCount        int `gorm:"not null;default:0"`
	UserUsageLimit    *int
	ValidFrom         time.Time `gorm:"index"`
	ValidUntil        time.Time `gorm:"index"`
	IsActive          bool      `gorm:"not null;default:true"`
	// 适用商品 ID 集合，JSON 数组；空表示全部适用
	EligibleProductIDs string `gorm:"type:text"`
	// 可选的 CEL 规则表达式
	RuleExpression string `gorm:"type:text"`
}

// TableName 指定 GORM 应该使用的表名。
func (CouponModel) TableName() string {
	return "coupons"
}
