package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSchema is used when no schema is configured.
const DefaultSchema = "public"

// Config contains PostgreSQL-specific connection options.
type Config struct {
	URL      string
	Schema   string
	MaxConns int32
}

// poolConfig parses the URL and pins every session to read-only transactions.
func (c *Config) poolConfig() (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if c.MaxConns > 0 {
		poolCfg.MaxConns = c.MaxConns
	}
	if poolCfg.ConnConfig.RuntimeParams == nil {
		poolCfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolCfg.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "ekaya-profiler"
	return poolCfg, nil
}
