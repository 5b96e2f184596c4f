package config

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConfig creates and returns a pgxpool.Config with the database connection settings from the DatabaseConfig.
func (c *DatabaseConfig) PgxConfig(ctx context.Context) (*pgxpool.Config, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Name, c.SSLMode,
	)

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	if c.MaxOpenConns > 0 {
		cfg.MaxConns = int32(c.MaxOpenConns)
	}
	cfg.MinConns = int32(c.MaxIdleConns)
	if c.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = c.ConnMaxLifetime
	}
	if c.ConnMaxIdleTime > 0 {
		cfg.MaxConnIdleTime = c.ConnMaxIdleTime
	}
	cfg.HealthCheckPeriod = 30 * time.Second

	return cfg, nil
}

// MigrationURL is the connection string golang-migrate's pgx/v5 driver understands.
func (c *DatabaseConfig) MigrationURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Name, c.SSLMode,
	)
}
