package config

import (
	"time"

	"github.com/knadh/koanf/providers/confmap"
)

// defaultsProvider seeds every optional setting; environment variables override them.
func defaultsProvider() *confmap.Confmap {
	return confmap.Provider(map[string]interface{}{
		"primary.env":                   "development",
		"server.port":                   "8080",
		"server.read_timeout":           15 * time.Second,
		"server.write_timeout":          30 * time.Second,
		"server.idle_timeout":           60 * time.Second,
		"server.request_timeout":        25 * time.Second,
		"server.deep_link_scheme":       "gonomads",
		"storage.driver":                "postgres",
		"storage.auto_migrate":          true,
		"database.port":                 5432,
		"database.ssl_mode":             "disable",
		"database.max_open_conns":       10,
		"database.max_idle_conns":       2,
		"database.conn_max_lifetime":    time.Hour,
		"database.conn_max_idle_time":   30 * time.Minute,
		"gateway.timeout":               30 * time.Second,
		"gateway.brand_name":            "Go Nomads",
		"gateway.verify_mode":           "remote",
		"gateway.cert_host_suffix":      ".paypal.com",
		"gateway.retry.base_delay":      500 * time.Millisecond,
		"gateway.retry.max_retries":     3,
		"orders.ttl":                    30 * time.Minute,
		"orders.currency":               "USD",
		"orders.default_deposit":        "50.00",
		"orders.processing_stale_after": 2 * time.Minute,
		"orders.capture_wait_timeout":   10 * time.Second,
		"worker.enabled":                true,
		"worker.interval":               time.Minute,
		"worker.batch_size":             50,
		"worker.reconcile_after":        5 * time.Minute,
		"logger.level":                  "info",
		"logger.format":                 "json",
		"kafka.topic":                   "payments.order-events",
		"lock.driver":                   "local",
		"lock.ttl":                      30 * time.Second,
	}, ".")
}
