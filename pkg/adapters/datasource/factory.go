package datasource

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-profiler/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-profiler/pkg/config"
	"github.com/ekaya-inc/ekaya-profiler/pkg/logging"
)

// Open selects an adapter by the URL scheme of rawURL and opens a connection.
// Driver suffixes in the scheme ("postgresql+psycopg2://") are ignored.
func Open(ctx context.Context, rawURL string, opts Options) (Connection, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	scheme, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	reg, ok := lookup(scheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q (not compiled in)", apperrors.ErrUnsupportedDatasource, scheme)
	}
	if !reg.Info.Local {
		dsn = config.ResolveURLForDocker(dsn)
	}

	opts.Logger.Info("Opening datasource",
		zap.String("type", reg.Info.Type),
		zap.String("url", logging.SanitizeConnectionString(dsn)),
		zap.String("schema", opts.Schema))

	conn, err := reg.Open(ctx, dsn, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", reg.Info.DisplayName, err)
	}
	return conn, nil
}

// ParseURL returns the lower-cased scheme of rawURL without any "+driver"
// suffix, and the URL rewritten to use that scheme.
func ParseURL(rawURL string) (scheme string, dsn string, err error) {
	rawURL = strings.TrimSpace(rawURL)
	idx := strings.Index(rawURL, ":")
	if idx <= 0 {
		return "", "", apperrors.NewConfigurationError("connection.url", "missing URL scheme (expected e.g. postgres://, sqlserver://, sqlite:///file.db)", nil)
	}

	full := strings.ToLower(rawURL[:idx])
	scheme = full
	if plus := strings.Index(full, "+"); plus >= 0 {
		scheme = full[:plus]
	}
	if scheme == "" {
		return "", "", apperrors.NewConfigurationError("connection.url", fmt.Sprintf("invalid URL scheme %q", full), nil)
	}
	return scheme, scheme + rawURL[idx:], nil
}
