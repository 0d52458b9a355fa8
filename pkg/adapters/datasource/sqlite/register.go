package sqlite

import (
	"context"

	"github.com/ekaya-inc/ekaya-profiler/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "sqlite",
			DisplayName: "SQLite",
			Schemes:     []string{"sqlite", "file"},
			Local:       true,
		},
		Open: func(ctx context.Context, dsn string, opts datasource.Options) (datasource.Connection, error) {
			cfg, err := ParseURL(dsn)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg, opts)
		},
	})
}
