// internal/service/promotion/infrastructure/rule/cel_engine.go
package rule

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"storefront/internal/service/promotion/domain"
)

// CELRuleEngine 是 domain.RuleEngine 的 CEL 实现。
// 管理员在优惠券上配置的表达式（如
// `subtotal >= 100.0 && item_count <= 5`）在这里被编译执行。
// 编译结果按表达式缓存，同一条规则只编译一次。
type CELRuleEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewCELRuleEngine 创建规则引擎并声明表达式可见的变量。
func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("subtotal", cel.DoubleType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("product_ids", cel.ListType(cel.StringType)),
		cel.Variable("email", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}
	return &CELRuleEngine{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Evaluate 实现 domain.RuleEngine。非布尔结果视为规则定义错误。
func (e *CELRuleEngine) Evaluate(expression string, fact domain.Fact) (bool, error) {
	prg, err := e.program(expression)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"subtotal":    fact.Subtotal,
		"item_count":  fact.ItemCount,
		"product_ids": fact.ProductIDs,
		"email":       fact.Email,
	})
	if err != nil {
		return false, errors.Wrap(err, "rule evaluation failed")
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("rule expression did not evaluate to bool: %q", expression)
	}
	return result, nil
}

// program 返回缓存的编译结果，未命中时编译并缓存。
func (e *CELRuleEngine) program(expression string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expression]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "failed to compile rule expression %q", expression)
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build rule program")
	}

	e.mu.Lock()
	e.programs[expression] = prg
	e.mu.Unlock()
	return prg, nil
}
