// cmd/reconcile-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"storefront/internal/pkg/config"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/tracing"
	"storefront/internal/service/checkout/domain"
	"storefront/internal/service/checkout/domain/port"
	checkoutinfra "storefront/internal/service/checkout/infrastructure"
)

const serviceName = "reconcile-worker"

// reconcile-worker 消费孤儿扣款 topic：支付网关已经扣款，
// 但订单事务提交失败的交易。每条消息和订单表交叉核对，
// 无法匹配已提交订单的扣款记下来等待人工退款。
func main() {
	cfgPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.App.LogLevel)

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	orderRepo := checkoutinfra.NewGormOrderRepository(db)

	reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrphanedChargeTopic, serviceName)
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Msgf("✅ %s consuming topic %s", serviceName, cfg.Infra.Kafka.OrphanedChargeTopic)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error().Err(err).Msg("failed to read message, retrying in 5s")
			time.Sleep(5 * time.Second)
			continue
		}

		msgCtx := mq.ExtractContext(ctx, &msg)
		handleCharge(msgCtx, orderRepo, msg.Value)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down tracer provider")
	}
	log.Info().Msgf("%s gracefully shut down", serviceName)
}

// handleCharge 核对一笔孤儿扣款。匹配到已支付订单说明提交
// 其实成功了（例如上报方在提交后才超时），无需处理；
// 匹配不到的扣款必须退款，打出带交易号的告警日志。
func handleCharge(ctx context.Context, orders domain.OrderRepository, payload []byte) {
	var charge port.OrphanedCharge
	if err := json.Unmarshal(payload, &charge); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to decode orphaned charge payload, skipping")
		return
	}

	order, err := orders.FindByTransactionID(ctx, charge.TransactionID)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("transaction_id", charge.TransactionID).
			Msg("failed to cross-reference orphaned charge, will rely on redelivery")
		return
	}

	if order != nil {
		logger.Ctx(ctx).Info().
			Str("transaction_id", charge.TransactionID).
			Str("order_id", order.ID).
			Msg("charge matched a committed order, no refund needed")
		return
	}

	metrics.OrphanedCharges.Inc()
	logger.Ctx(ctx).Error().
		Str("transaction_id", charge.TransactionID).
		Str("order_ref", charge.OrderRef).
		Str("amount", charge.Amount).
		Str("reason", charge.Reason).
		Time("occurred_at", charge.OccurredAt).
		Msg("🔴 unmatched orphaned charge, manual refund required")
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := mysql.NewConfig()
	dsn.User = cfg.Infra.MySQL.User
	dsn.Passwd = cfg.Infra.MySQL.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Infra.MySQL.Host, cfg.Infra.MySQL.Port)
	dsn.DBName = cfg.Infra.MySQL.Database
	dsn.ParseTime = true
	return gorm.Open(gormmysql.Open(dsn.FormatDSN()), &gorm.Config{})
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
