// internal/service/promotion/domain/rule.go
package domain

// Fact 是规则表达式可见的购物车事实。
type Fact struct {
	Subtotal   float64  `json:"subtotal"`
	ItemCount  int      `json:"item_count"`
	ProductIDs []string `json:"product_ids"`
	Email      string   `json:"email"`
}

// RuleEngine 对可选的管理员自定义规则求值。
// 表达式为空时不会被调用；求值失败视为规则不满足。
type RuleEngine interface {
	Evaluate(expression string, fact Fact) (bool, error)
}
