package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/shopspring/decimal"
)

const envPrefix = "PAYMENTS_"

type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Database DatabaseConfig `koanf:"database"`
	Gateway  GatewayConfig  `koanf:"gateway"`
	Orders   OrdersConfig   `koanf:"orders"`
	Worker   WorkerConfig   `koanf:"worker"`
	Logger   LoggerConfig   `koanf:"logger"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Lock     LockConfig     `koanf:"lock"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port           string        `koanf:"port" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required"`
	// DeepLinkScheme is where the return and cancel pages send the buyer back to the app.
	DeepLinkScheme string `koanf:"deep_link_scheme"`
}

type StorageConfig struct {
	Driver      string `koanf:"driver" validate:"required,oneof=postgres memory"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type GatewayConfig struct {
	BaseURL      string        `koanf:"base_url" validate:"required,url"`
	ClientID     string        `koanf:"client_id" validate:"required"`
	ClientSecret string        `koanf:"client_secret" validate:"required"`
	Timeout      time.Duration `koanf:"timeout" validate:"required"`
	BrandName    string        `koanf:"brand_name"`
	ReturnURL    string        `koanf:"return_url" validate:"required,url"`
	CancelURL    string        `koanf:"cancel_url" validate:"required,url"`
	// WebhookID enables signature checks on inbound webhooks when set.
	WebhookID string `koanf:"webhook_id"`
	// VerifyMode is "remote" (ask the provider) or "local" (check the signature against the signing certificate).
	VerifyMode     string      `koanf:"verify_mode" validate:"omitempty,oneof=remote local"`
	CertHostSuffix string      `koanf:"cert_host_suffix"`
	Retry          RetryConfig `koanf:"retry"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int           `koanf:"max_retries"`
}

type OrdersConfig struct {
	TTL                  time.Duration `koanf:"ttl" validate:"required"`
	Currency             string        `koanf:"currency" validate:"required,len=3"`
	DefaultDeposit       string        `koanf:"default_deposit" validate:"required"`
	ProcessingStaleAfter time.Duration `koanf:"processing_stale_after" validate:"required"`
	CaptureWaitTimeout   time.Duration `koanf:"capture_wait_timeout" validate:"required"`
}

// DepositAmount parses the configured default moderator deposit.
func (c OrdersConfig) DepositAmount() (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(c.DefaultDeposit)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid default deposit %q: %w", c.DefaultDeposit, err)
	}
	return amount, nil
}

type WorkerConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Interval       time.Duration `koanf:"interval" validate:"required"`
	BatchSize      int           `koanf:"batch_size" validate:"required"`
	ReconcileAfter time.Duration `koanf:"reconcile_after" validate:"required"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

type LockConfig struct {
	Driver    string        `koanf:"driver" validate:"omitempty,oneof=local redis"`
	RedisAddr string        `koanf:"redis_addr"`
	TTL       time.Duration `koanf:"ttl"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(defaultsProvider(), nil); err != nil {
		logger.Error("failed to load config defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	if err := mainConfig.validateDependencies(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// validateDependencies covers the rules that span sections.
func (c *Config) validateDependencies() error {
	if c.Storage.Driver == "postgres" {
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres storage driver")
		}
	}
	if c.Lock.Driver == "redis" && c.Lock.RedisAddr == "" {
		return fmt.Errorf("lock.redis_addr is required for the redis lock driver")
	}
	if c.Gateway.VerifyMode == "local" && c.Gateway.CertHostSuffix == "" {
		return fmt.Errorf("gateway.cert_host_suffix is required for local webhook verification")
	}
	if _, err := c.Orders.DepositAmount(); err != nil {
		return err
	}
	return nil
}
