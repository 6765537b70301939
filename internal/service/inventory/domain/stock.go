// internal/service/inventory/domain/stock.go
package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Line 是一次库存校验请求中的一行：商品和要购买的数量。
type Line struct {
	ProductID string
	Quantity  int
}

// PricedLine 是用权威目录数据补全后的购物车行。
// 价格、标题、库存都来自当前数据库读取，客户端给的只是提示。
type PricedLine struct {
	ProductID string
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
	Available int
}

// StockViolation 描述一行超出可用库存的请求。
type StockViolation struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockError 聚合一次校验中发现的全部违规行。
// 一次性返回所有违规，购物者可以一次改完，而不是逐行试错。
type StockError struct {
	Violations []StockViolation
}

func (e *StockError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: requested %d, available %d", v.ProductID, v.Requested, v.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// GuardLines 对补全后的行执行库存校验，收集每一行的违规。
// 纯函数：提交事务里的最终复检和提前校验共用这段逻辑。
func GuardLines(lines []PricedLine) *StockError {
	var violations []StockViolation
	for _, line := range lines {
		if line.Quantity > line.Available {
			violations = append(violations, StockViolation{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: line.Available,
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &StockError{Violations: violations}
}

// Subtotal 按权威单价计算小计。
func Subtotal(lines []PricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
