// internal/service/checkout/infrastructure/adapter/reconciliation_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"storefront/internal/pkg/mq"
	"storefront/internal/service/checkout/domain/port"
)

// ReconciliationKafkaAdapter 把孤儿扣款事件发布到对账 topic，
// 由 reconcile-worker 消费。消息键用交易号，同一笔交易的
// 重复上报会落在同一分区，消费端去重简单。
type ReconciliationKafkaAdapter struct {
	writer *kafka.Writer
}

// NewReconciliationKafkaAdapter 创建对账事件生产者。
func NewReconciliationKafkaAdapter(writer *kafka.Writer) *ReconciliationKafkaAdapter {
	return &ReconciliationKafkaAdapter{writer: writer}
}

// Report 实现 port.OrphanedChargeReporter。
func (a *ReconciliationKafkaAdapter) Report(ctx context.Context, charge port.OrphanedCharge) error {
	payload, err := json.Marshal(charge)
	if err != nil {
		return errors.Wrap(err, "failed to marshal orphaned charge event")
	}
	if err := mq.ProduceMessage(ctx, a.writer, []byte(charge.TransactionID), payload); err != nil {
		return errors.Wrap(err, "failed to produce orphaned charge event")
	}
	return nil
}
