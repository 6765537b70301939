// internal/service/checkout/domain/port/payment.go
package port

import "context"

// PaymentGateway 是对外部支付处理器的出站端口。
// 金额以定点两位小数字符串传输，避免浮点漂移。
// 适配器自己绝不重试：重试与否是编排器（以及用户）的决定。
type PaymentGateway interface {
	// IssueClientToken 获取前端初始化支付控件所需的客户端令牌。
	IssueClientToken(ctx context.Context) (string, error)

	// Charge 用支付 nonce 发起 authorize-and-capture，
	// 成功返回网关交易 ID。失败归一化为结账核心的错误分类
	// （ErrPaymentDeclined / ErrGatewayUnavailable / ErrGatewayConfig）。
	Charge(ctx context.Context, nonce, amount string) (string, error)
}
