// cmd/storefront/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"storefront/internal/pkg/config"
	"storefront/internal/pkg/httpclient"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/pkg/redis"
	"storefront/internal/pkg/tracing"
	cartapp "storefront/internal/service/cart/application"
	cartinfra "storefront/internal/service/cart/infrastructure"
	cartifaces "storefront/internal/service/cart/interfaces"
	checkoutapp "storefront/internal/service/checkout/application"
	checkoutinfra "storefront/internal/service/checkout/infrastructure"
	checkoutadapter "storefront/internal/service/checkout/infrastructure/adapter"
	checkoutifaces "storefront/internal/service/checkout/interfaces"
	invapp "storefront/internal/service/inventory/application"
	invinfra "storefront/internal/service/inventory/infrastructure"
	promoapp "storefront/internal/service/promotion/application"
	promoinfra "storefront/internal/service/promotion/infrastructure"
	promorule "storefront/internal/service/promotion/infrastructure/rule"
	promoifaces "storefront/internal/service/promotion/interfaces"
)

const serviceName = "storefront"

// main 是应用的"组装根" (Composition Root)：
// 创建并组装所有依赖项，然后启动应用。
func main() {
	cfgPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.App.LogLevel)

	// 1. 初始化核心技术组件
	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}
	tracer := otel.Tracer(serviceName)

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mysql")
	}

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize redis client")
	}
	defer redisClient.Close()

	orphanWriter := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrphanedChargeTopic)
	defer orphanWriter.Close()

	httpClient := httpclient.NewClient(tracer)

	// 2. 组装业务服务
	couponRepo := promoinfra.NewGormCouponRepository(db)
	ruleEngine, err := promorule.NewCELRuleEngine()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rule engine")
	}
	promotionService := promoapp.NewPromotionService(couponRepo, ruleEngine, tracer)

	productReader := invinfra.NewGormProductReader(db)
	inventoryService := invapp.NewInventoryService(productReader, tracer)

	orderRepo := checkoutinfra.NewGormOrderRepository(db)
	gateway := checkoutadapter.NewPaymentHTTPAdapter(httpClient, cfg.Gateway.BaseURL, cfg.Gateway.MerchantID, cfg.Gateway.APIKey)
	orphanReporter := checkoutadapter.NewReconciliationKafkaAdapter(orphanWriter)
	couponEvaluator := checkoutadapter.NewPromotionLocalAdapter(promotionService)
	checkoutService := checkoutapp.NewCheckoutService(orderRepo, inventoryService, couponEvaluator, gateway, orphanReporter, tracer)

	cartTTL := time.Duration(cfg.Checkout.CartTTLMinutes) * time.Minute
	if cartTTL <= 0 {
		cartTTL = 24 * time.Hour
	}
	cartStore := cartinfra.NewRedisCartStore(redisClient)
	cartService := cartapp.NewCartService(cartStore, cartTTL, tracer)

	// 3. 注册 HTTP 路由
	mux := http.NewServeMux()
	checkoutifaces.NewCheckoutHandler(checkoutService).RegisterRoutes(mux)
	promoifaces.NewPromotionHandler(promotionService).RegisterRoutes(mux)
	cartifaces.NewCartHandler(cartService).RegisterRoutes(mux)

	// 健康检查和监控走独立端口
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	metricsMux.Handle("/metrics", promhttp.Handler())

	appServer := &http.Server{Addr: ":" + strconv.Itoa(cfg.App.Port), Handler: mux}
	metricsServer := &http.Server{Addr: ":" + strconv.Itoa(cfg.App.MetricsPort), Handler: metricsMux}

	// 4. 启动并等待退出信号，优雅关停
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msgf("✅ %s listening on :%d", serviceName, cfg.App.Port)
		if err := appServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info().Msgf("✅ health and metrics server on :%d", cfg.App.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// 后进先出：先停流量，再冲刷 trace
		if err := appServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down http server")
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down metrics server")
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error shutting down tracer provider")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msgf("%s gracefully shut down", serviceName)
}

// openDatabase 建立 MySQL 连接并确保核心表存在。
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := mysql.NewConfig()
	dsn.User = cfg.Infra.MySQL.User
	dsn.Passwd = cfg.Infra.MySQL.Password
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Infra.MySQL.Host, cfg.Infra.MySQL.Port)
	dsn.DBName = cfg.Infra.MySQL.Database
	dsn.ParseTime = true

	db, err := gorm.Open(gormmysql.Open(dsn.FormatDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&invinfra.ProductModel{},
		&promoinfra.CouponModel{},
		&checkoutinfra.OrderModel{},
		&checkoutinfra.OrderItemModel{},
	); err != nil {
		return nil, err
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
