package postgres

import (
	"context"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "postgres",
			DisplayName: "PostgreSQL",
			Schemes:     []string{"postgres", "postgresql"},
		},
		Open: func(ctx context.Context, dsn string, opts datasource.Options) (datasource.Connection, error) {
			cfg := &Config{
				URL:      dsn,
				Schema:   opts.Schema,
				MaxConns: int32(opts.MaxConns),
			}
			return NewAdapter(ctx, cfg, opts.Logger)
		},
	})
}
