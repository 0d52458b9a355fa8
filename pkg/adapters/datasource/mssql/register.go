package mssql

import (
	"context"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "mssql",
			DisplayName: "Microsoft SQL Server",
			Schemes:     []string{"sqlserver", "mssql"},
		},
		Open: func(ctx context.Context, dsn string, opts datasource.Options) (datasource.Connection, error) {
			cfg := &Config{
				URL:      dsn,
				Schema:   opts.Schema,
				MaxConns: opts.MaxConns,
			}
			return NewAdapter(ctx, cfg, opts.Logger)
		},
	})
}
