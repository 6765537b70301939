// internal/pkg/config/config.go
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是整个应用的配置根结构，从 YAML 文件加载，
// 关键字段允许通过环境变量覆盖（容器部署时更方便）。
type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Port        int    `yaml:"port"`
		MetricsPort int    `yaml:"metrics_port"`
		LogLevel    string `yaml:"log_level"`
	} `yaml:"app"`

	Infra struct {
		MySQL struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`

		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`

		Kafka struct {
			Brokers             []string `yaml:"brokers"`
			OrphanedChargeTopic string   `yaml:"orphaned_charge_topic"`
		} `yaml:"kafka"`

		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
	} `yaml:"infra"`

	Gateway struct {
		BaseURL    string `yaml:"base_url"`
		MerchantID string `yaml:"merchant_id"`
		APIKey     string `yaml:"api_key"`
	} `yaml:"gateway"`

	Checkout struct {
		CartTTLMinutes int `yaml:"cart_ttl_minutes"`
	} `yaml:"checkout"`
}

// Load 从指定路径加载配置文件，再应用环境变量覆盖。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// applyEnvOverrides 用环境变量覆盖敏感或随部署变化的配置项。
func (c *Config) applyEnvOverrides() {
	c.Infra.MySQL.Host = getEnv("MYSQL_HOST", c.Infra.MySQL.Host)
	c.Infra.MySQL.User = getEnv("MYSQL_USER", c.Infra.MySQL.User)
	c.Infra.MySQL.Password = getEnv("MYSQL_PASSWORD", c.Infra.MySQL.Password)
	c.Infra.MySQL.Database = getEnv("MYSQL_DATABASE", c.Infra.MySQL.Database)
	c.Infra.Redis.Addr = getEnv("REDIS_ADDR", c.Infra.Redis.Addr)
	c.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", c.Infra.Jaeger.Endpoint)
	c.Gateway.BaseURL = getEnv("GATEWAY_BASE_URL", c.Gateway.BaseURL)
	c.Gateway.MerchantID = getEnv("GATEWAY_MERCHANT_ID", c.Gateway.MerchantID)
	c.Gateway.APIKey = getEnv("GATEWAY_API_KEY", c.Gateway.APIKey)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Infra.Kafka.Brokers = strings.Split(brokers, ",")
	}
}

// getEnv 从环境变量中读取配置，不存在时返回 fallback。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
