package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PAYMENTS_DATABASE__HOST", "localhost")
	t.Setenv("PAYMENTS_DATABASE__NAME", "payments")
	t.Setenv("PAYMENTS_DATABASE__USER", "payments")
	t.Setenv("PAYMENTS_GATEWAY__BASE_URL", "https://api-m.sandbox.paypal.com")
	t.Setenv("PAYMENTS_GATEWAY__CLIENT_ID", "client")
	t.Setenv("PAYMENTS_GATEWAY__CLIENT_SECRET", "secret")
	t.Setenv("PAYMENTS_GATEWAY__RETURN_URL", "https://api.gonomads.app/api/v1/payments/return")
	t.Setenv("PAYMENTS_GATEWAY__CANCEL_URL", "https://api.gonomads.app/api/v1/payments/cancel")
}

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, 30*time.Minute, cfg.Orders.TTL)
		assert.Equal(t, "USD", cfg.Orders.Currency)
		assert.Equal(t, "remote", cfg.Gateway.VerifyMode)
		assert.Equal(t, "local", cfg.Lock.Driver)
		assert.False(t, cfg.Kafka.Enabled())

		deposit, err := cfg.Orders.DepositAmount()
		require.NoError(t, err)
		assert.Equal(t, "50.00", deposit.StringFixed(2))
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PAYMENTS_ORDERS__TTL", "45m")
		t.Setenv("PAYMENTS_KAFKA__BROKERS", "kafka-1:9092,kafka-2:9092")
		t.Setenv("PAYMENTS_GATEWAY__WEBHOOK_ID", "WH-123")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 45*time.Minute, cfg.Orders.TTL)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
		assert.True(t, cfg.Kafka.Enabled())
		assert.Equal(t, "WH-123", cfg.Gateway.WebhookID)
	})

	t.Run("postgres driver requires database host", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PAYMENTS_DATABASE__HOST", "")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("memory driver needs no database", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PAYMENTS_DATABASE__HOST", "")
		t.Setenv("PAYMENTS_STORAGE__DRIVER", "memory")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Storage.Driver)
	})

	t.Run("rejects unknown lock driver", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PAYMENTS_LOCK__DRIVER", "zookeeper")

		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestDatabaseConfig_MigrationURL(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "svc", Password: "p@ss", Name: "payments", SSLMode: "disable"}

	assert.Equal(t, "pgx5://svc:p%40ss@db:5432/payments?sslmode=disable", cfg.MigrationURL())
}
