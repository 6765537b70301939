// internal/service/checkout/domain/port/reconciliation.go
package port

import (
	"context"
	"time"
)

// OrphanedCharge 记录一笔已扣款但订单提交失败的交易。
// 这是设计中唯一被接受的不一致窗口，必须显式上报，
// 由对账流程人工处理退款，绝不静默吞掉。
type OrphanedCharge struct {
	OrderRef      string    `json:"orderRef"`
	TransactionID string    `json:"transactionId"`
	Amount        string    `json:"amount"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// OrphanedChargeReporter 把孤儿扣款发布给对账消费方。
type OrphanedChargeReporter interface {
	Report(ctx context.Context, charge OrphanedCharge) error
}
